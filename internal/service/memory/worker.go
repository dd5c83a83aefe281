package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/carepath/memcore/internal/core"
	"github.com/carepath/memcore/pkg/log"
)

// Worker runs summarization off the chat-turn path. Each tick it scans
// sessions and summarizes the backlog of any session past the
// threshold. A failed pass is retried on the next tick, so a crash
// between summarization and persistence self-heals.
type Worker struct {
	engine    *Engine
	messages  core.MessageRepository
	summaries core.SummaryRepository
	Interval  time.Duration
}

func NewWorker(engine *Engine, messages core.MessageRepository, summaries core.SummaryRepository, interval time.Duration) *Worker {
	return &Worker{
		engine:    engine,
		messages:  messages,
		summaries: summaries,
		Interval:  interval,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Dur("interval", w.Interval).Msg("starting summarization worker")

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Sweep(ctx); err != nil {
				logger.Error().Err(err).Msg("summarization sweep failed")
			}
		}
	}
}

func (w *Worker) Shutdown(ctx context.Context) error {
	return nil
}

// Sweep summarizes every session whose backlog crossed the threshold.
func (w *Worker) Sweep(ctx context.Context) error {
	sessions, err := w.messages.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	logger := log.FromCtx(ctx)
	for _, sessionID := range sessions {
		if !w.engine.NeedsSummarization(ctx, sessionID) {
			continue
		}
		if err := w.SummarizeSession(ctx, sessionID); err != nil {
			logger.Error().Err(err).Str("session", sessionID).Msg("session summarization failed")
		}
	}
	return nil
}

// SummarizeSession summarizes everything after the latest summary's
// end marker. Summarizing forward only keeps the created ranges
// non-overlapping without a store-level constraint.
func (w *Worker) SummarizeSession(ctx context.Context, sessionID string) error {
	var afterID int64
	latest, err := w.summaries.Latest(ctx, sessionID)
	switch {
	case err == nil:
		afterID = latest.EndMessageID
	case errors.Is(err, core.ErrNotFound):
		afterID = 0
	default:
		return fmt.Errorf("latest summary: %w", err)
	}

	backlog, err := w.messages.ReadRange(ctx, sessionID, afterID+1, math.MaxInt64)
	if err != nil {
		return fmt.Errorf("read backlog: %w", err)
	}
	if len(backlog) == 0 {
		return nil
	}

	startID := backlog[0].ID
	endID := backlog[len(backlog)-1].ID

	if _, err := w.engine.CreateSummary(ctx, sessionID, startID, endID, len(backlog)); err != nil {
		return err
	}

	w.autoPinAlerts(ctx, sessionID, backlog)
	return nil
}

// autoPinAlerts pins safety-relevant messages from a freshly
// summarized range so they outlive the raw transcript in context
// assembly. Best effort: pin failures are logged, never propagated.
func (w *Worker) autoPinAlerts(ctx context.Context, sessionID string, msgs []core.Message) {
	logger := log.FromCtx(ctx)

	for _, msg := range msgs {
		if msg.Role != core.RoleUser || !w.engine.scorer.HasAlert(msg.Text) {
			continue
		}

		sourceID := msg.ID
		_, err := w.engine.CreatePin(ctx, sessionID, core.PinRequest{
			Content:         msg.Text,
			SourceMessageID: &sourceID,
			PinType:         core.PinAuto,
		})
		if err != nil {
			logger.Warn().Err(err).Int64("message_id", msg.ID).Msg("auto-pin failed")
		}
	}
}
