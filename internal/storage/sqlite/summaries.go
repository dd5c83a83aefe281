package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/carepath/memcore/internal/core"
)

type SummariesRepo struct {
	db *sql.DB
}

func NewSummariesRepo(db *sql.DB) *SummariesRepo {
	return &SummariesRepo{db: db}
}

func (r *SummariesRepo) Add(ctx context.Context, s core.Summary) (core.Summary, error) {
	if s.ImportanceScore == 0 {
		s.ImportanceScore = core.DefaultSummaryImportance
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO summaries (session_id, summary_text, message_count, start_message_id, end_message_id, importance_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		s.SessionID, s.SummaryText, s.MessageCount, s.StartMessageID, s.EndMessageID,
		s.ImportanceScore, s.CreatedAt,
	)
	if err != nil {
		return core.Summary{}, &core.StoreError{Op: "insert summary", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Summary{}, &core.StoreError{Op: "insert summary", Err: err}
	}
	s.ID = id
	return s, nil
}

func (r *SummariesRepo) ListRecent(ctx context.Context, sessionID string, limit int) ([]core.Summary, error) {
	query := `SELECT id, session_id, summary_text, message_count, start_message_id, end_message_id, importance_score, created_at
		FROM summaries WHERE session_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, &core.StoreError{Op: "query summaries", Err: err}
	}
	defer rows.Close()

	var summaries []core.Summary
	for rows.Next() {
		var s core.Summary
		if err := rows.Scan(&s.ID, &s.SessionID, &s.SummaryText, &s.MessageCount,
			&s.StartMessageID, &s.EndMessageID, &s.ImportanceScore, &s.CreatedAt); err != nil {
			return nil, &core.StoreError{Op: "scan summary", Err: err}
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *SummariesRepo) Latest(ctx context.Context, sessionID string) (core.Summary, error) {
	summaries, err := r.ListRecent(ctx, sessionID, 1)
	if err != nil {
		return core.Summary{}, err
	}
	if len(summaries) == 0 {
		return core.Summary{}, fmt.Errorf("latest summary for session %s: %w", sessionID, core.ErrNotFound)
	}
	return summaries[0], nil
}

func (r *SummariesRepo) Count(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM summaries WHERE session_id = ?`, sessionID,
	).Scan(&count)
	if err != nil {
		return 0, &core.StoreError{Op: "count summaries", Err: err}
	}
	return count, nil
}
