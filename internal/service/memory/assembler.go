package memory

import (
	"context"
	"fmt"

	"github.com/carepath/memcore/internal/core"
	"github.com/carepath/memcore/pkg/log"
)

// BuildContext assembles a bounded context for one model invocation:
// the recent message window (through the recency cache), the top
// semantic pins and the most recent summaries, trimmed to maxTokens.
//
// maxTokens < 0 selects the configured default budget; 0 is honored as
// a real budget and still yields the recent-message floor. Truncation
// drops summaries first (lowest importance, oldest on ties), then pins
// (only once summaries are exhausted, and only when the budget is
// attainable at all), then the oldest recent messages down to a hard
// floor. The floor is returned even when it alone exceeds the budget,
// so the context is never empty for a live session.
func (e *Engine) BuildContext(ctx context.Context, sessionID string, maxTokens int) (core.MemoryContext, error) {
	if maxTokens < 0 {
		maxTokens = e.cfg.ContextBudget
	}

	recent, err := e.cache.RecentMessages(ctx, sessionID, e.cfg.RecentWindow)
	if err != nil {
		return core.MemoryContext{}, fmt.Errorf("recent messages: %w", err)
	}

	pins, err := e.pins.ListTop(ctx, sessionID, e.cfg.PinLimit)
	if err != nil {
		return core.MemoryContext{}, fmt.Errorf("top pins: %w", err)
	}

	summaries, err := e.summaries.ListRecent(ctx, sessionID, e.cfg.SummaryLimit)
	if err != nil {
		return core.MemoryContext{}, fmt.Errorf("recent summaries: %w", err)
	}

	mc := core.MemoryContext{
		RecentMessages: recent,
		SemanticPins:   pins,
		Summaries:      summaries,
	}
	mc.EstimatedTokens = e.estimateContext(mc)

	if mc.EstimatedTokens <= maxTokens {
		return mc, nil
	}

	// Summaries are cheapest to regenerate: they go first.
	for len(mc.Summaries) > 0 && mc.EstimatedTokens > maxTokens {
		mc.Summaries = dropLeastImportantSummary(mc.Summaries)
		mc.EstimatedTokens = e.estimateContext(mc)
	}
	if mc.EstimatedTokens <= maxTokens {
		return mc, nil
	}

	// If even the bare message floor exceeds the budget, evicting
	// durable pins buys nothing: keep them, trim messages to the
	// floor and return over budget.
	floor := e.cfg.RecentFloor
	if len(mc.RecentMessages) < floor {
		floor = len(mc.RecentMessages)
	}
	floorMessages := mc.RecentMessages[len(mc.RecentMessages)-floor:]
	if e.estimateMessages(floorMessages) > maxTokens {
		mc.RecentMessages = floorMessages
		mc.EstimatedTokens = e.estimateContext(mc)

		log.FromCtx(ctx).Debug().
			Str("session", sessionID).
			Int("budget", maxTokens).
			Int("estimated", mc.EstimatedTokens).
			Msg("context floor exceeds budget")
		return mc, nil
	}

	// The budget is attainable: pins go before messages beyond the floor.
	for len(mc.SemanticPins) > 0 && mc.EstimatedTokens > maxTokens {
		mc.SemanticPins = dropLeastImportantPin(mc.SemanticPins)
		mc.EstimatedTokens = e.estimateContext(mc)
	}

	for len(mc.RecentMessages) > floor && mc.EstimatedTokens > maxTokens {
		mc.RecentMessages = mc.RecentMessages[1:]
		mc.EstimatedTokens = e.estimateContext(mc)
	}

	return mc, nil
}

func (e *Engine) estimateMessages(msgs []core.Message) int {
	total := 0
	for _, msg := range msgs {
		total += e.estimator.EstimateText(msg.Text)
	}
	return total
}

func (e *Engine) estimateContext(mc core.MemoryContext) int {
	total := e.estimateMessages(mc.RecentMessages)
	for _, pin := range mc.SemanticPins {
		total += e.estimator.EstimateText(pin.Content)
	}
	for _, s := range mc.Summaries {
		total += e.estimator.EstimateText(s.SummaryText)
	}
	return total
}

// dropLeastImportantSummary removes the summary with the lowest
// importance score, breaking ties by oldest created_at, and keeps the
// remaining slice in its recency order.
func dropLeastImportantSummary(summaries []core.Summary) []core.Summary {
	victim := 0
	for i := 1; i < len(summaries); i++ {
		s, v := summaries[i], summaries[victim]
		if s.ImportanceScore < v.ImportanceScore ||
			(s.ImportanceScore == v.ImportanceScore && s.CreatedAt.Before(v.CreatedAt)) {
			victim = i
		}
	}
	return append(summaries[:victim:victim], summaries[victim+1:]...)
}

func dropLeastImportantPin(pins []core.SemanticPin) []core.SemanticPin {
	victim := 0
	for i := 1; i < len(pins); i++ {
		p, v := pins[i], pins[victim]
		if p.ImportanceScore < v.ImportanceScore ||
			(p.ImportanceScore == v.ImportanceScore && p.CreatedAt.Before(v.CreatedAt)) {
			victim = i
		}
	}
	return append(pins[:victim:victim], pins[victim+1:]...)
}
