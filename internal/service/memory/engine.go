package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/carepath/memcore/internal/config"
	"github.com/carepath/memcore/internal/core"
	"github.com/carepath/memcore/pkg/log"
)

// Engine is the conversation memory engine: importance scoring,
// budget-constrained context assembly, summary and pin persistence,
// and the summarization trigger. It owns no goroutines; callers
// decide what runs off the request path.
type Engine struct {
	cfg        *config.AppConfig
	messages   core.MessageRepository
	summaries  core.SummaryRepository
	pins       core.PinRepository
	summarizer core.Summarizer
	estimator  core.TokenEstimator
	cache      *RecencyCache
	scorer     *Scorer
}

func NewEngine(
	cfg *config.AppConfig,
	messages core.MessageRepository,
	summaries core.SummaryRepository,
	pins core.PinRepository,
	summarizer core.Summarizer,
	estimator core.TokenEstimator,
	cache *RecencyCache,
) *Engine {
	return &Engine{
		cfg:        cfg,
		messages:   messages,
		summaries:  summaries,
		pins:       pins,
		summarizer: summarizer,
		estimator:  estimator,
		cache:      cache,
		scorer:     NewScorer(),
	}
}

// Score rates a message's relevance on [0,1]. Never fails; degenerate
// input gets the 0.5 default.
func (e *Engine) Score(msg core.Message) float64 {
	return e.scorer.Score(msg)
}

// ScoreAndStore scores a message and persists the result. A failed
// write degrades to log-and-return: rescoring is best effort and must
// never break the turn that triggered it.
func (e *Engine) ScoreAndStore(ctx context.Context, msg core.Message) float64 {
	score := e.scorer.Score(msg)
	if err := e.messages.UpdateImportance(ctx, msg.ID, score); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Int64("message_id", msg.ID).Msg("failed to persist importance score")
	}
	return score
}

// CreatePin stores a durable fact that survives context truncation.
func (e *Engine) CreatePin(ctx context.Context, sessionID string, req core.PinRequest) (core.SemanticPin, error) {
	if sessionID == "" {
		return core.SemanticPin{}, &core.ValidationError{Field: "session_id", Reason: "must not be empty"}
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return core.SemanticPin{}, &core.ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if req.ImportanceScore < 0 || req.ImportanceScore > 1 {
		return core.SemanticPin{}, &core.ValidationError{Field: "importance_score", Reason: "must be in [0,1]"}
	}

	importance := req.ImportanceScore
	if importance == 0 {
		importance = core.DefaultPinImportance
	}
	pinType := req.PinType
	if pinType == "" {
		pinType = core.PinManual
	}

	pin, err := e.pins.Add(ctx, core.SemanticPin{
		SessionID:       sessionID,
		Content:         content,
		SourceMessageID: req.SourceMessageID,
		ImportanceScore: importance,
		PinType:         pinType,
	})
	if err != nil {
		return core.SemanticPin{}, fmt.Errorf("create pin: %w", err)
	}

	log.FromCtx(ctx).Debug().Str("session", sessionID).Str("type", pin.PinType).Msg("pin created")
	return pin, nil
}

// Stats aggregates the memory footprint of one session.
func (e *Engine) Stats(ctx context.Context, sessionID string) (core.SessionStats, error) {
	stats, err := e.messages.Stats(ctx, sessionID)
	if err != nil {
		return core.SessionStats{}, fmt.Errorf("message stats: %w", err)
	}

	if stats.TotalSummaries, err = e.summaries.Count(ctx, sessionID); err != nil {
		return core.SessionStats{}, fmt.Errorf("summary count: %w", err)
	}
	if stats.TotalPins, err = e.pins.Count(ctx, sessionID); err != nil {
		return core.SessionStats{}, fmt.Errorf("pin count: %w", err)
	}

	return stats, nil
}
