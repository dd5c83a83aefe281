package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/carepath/memcore/internal/core"
	"github.com/carepath/memcore/pkg/log"
)

// CreateSummary fetches the message range, sends it through the
// summarizer gateway and persists the result. It blocks for the
// duration of the model call and honors ctx cancellation; callers that
// cannot afford the wait run it off the request path (see Worker).
func (e *Engine) CreateSummary(ctx context.Context, sessionID string, startID, endID int64, messageCount int) (core.Summary, error) {
	if sessionID == "" {
		return core.Summary{}, &core.ValidationError{Field: "session_id", Reason: "must not be empty"}
	}
	if startID <= 0 || endID < startID {
		return core.Summary{}, &core.ValidationError{Field: "message range", Reason: fmt.Sprintf("invalid range [%d, %d]", startID, endID)}
	}
	if messageCount <= 0 {
		return core.Summary{}, &core.ValidationError{Field: "message_count", Reason: "must be positive"}
	}

	msgs, err := e.messages.ReadRange(ctx, sessionID, startID, endID)
	if err != nil {
		return core.Summary{}, fmt.Errorf("read message range: %w", err)
	}
	if len(msgs) == 0 {
		return core.Summary{}, &core.SummarizationError{
			SessionID: sessionID,
			Err:       fmt.Errorf("empty message range [%d, %d]", startID, endID),
		}
	}

	text, err := e.summarizer.Summarize(ctx, msgs)
	if err != nil {
		return core.Summary{}, &core.SummarizationError{SessionID: sessionID, Err: err}
	}

	summary, err := e.summaries.Add(ctx, core.Summary{
		SessionID:       sessionID,
		SummaryText:     text,
		MessageCount:    messageCount,
		StartMessageID:  startID,
		EndMessageID:    endID,
		ImportanceScore: core.DefaultSummaryImportance,
	})
	if err != nil {
		return core.Summary{}, fmt.Errorf("persist summary: %w", err)
	}

	log.FromCtx(ctx).Info().
		Str("session", sessionID).
		Int64("start", startID).
		Int64("end", endID).
		Msg("summary created")
	return summary, nil
}

// NeedsSummarization reports whether enough messages have accumulated
// past the latest summary to warrant a new one. Pure read, cheap to
// call every turn; degrades to false on any read error.
func (e *Engine) NeedsSummarization(ctx context.Context, sessionID string) bool {
	logger := log.FromCtx(ctx)

	latest, err := e.summaries.Latest(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			logger.Warn().Err(err).Str("session", sessionID).Msg("summary lookup failed")
			return false
		}

		count, err := e.cache.MessageCount(ctx, sessionID)
		if err != nil {
			logger.Warn().Err(err).Str("session", sessionID).Msg("message count failed")
			return false
		}
		return count >= e.cfg.SummarizeThreshold
	}

	since, err := e.messages.CountSince(ctx, sessionID, latest.EndMessageID)
	if err != nil {
		logger.Warn().Err(err).Str("session", sessionID).Msg("count since summary failed")
		return false
	}
	return since >= e.cfg.SummarizeThreshold
}
