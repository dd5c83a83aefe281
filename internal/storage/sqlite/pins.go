package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/carepath/memcore/internal/core"
)

type PinsRepo struct {
	db *sql.DB
}

func NewPinsRepo(db *sql.DB) *PinsRepo {
	return &PinsRepo{db: db}
}

func (r *PinsRepo) Add(ctx context.Context, p core.SemanticPin) (core.SemanticPin, error) {
	if p.ImportanceScore == 0 {
		p.ImportanceScore = core.DefaultPinImportance
	}
	if p.PinType == "" {
		p.PinType = core.PinManual
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	var sourceID sql.NullInt64
	if p.SourceMessageID != nil {
		sourceID = sql.NullInt64{Int64: *p.SourceMessageID, Valid: true}
	}

	query := `INSERT INTO semantic_pins (session_id, content, source_message_id, importance_score, pin_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		p.SessionID, p.Content, sourceID, p.ImportanceScore, p.PinType, p.CreatedAt,
	)
	if err != nil {
		return core.SemanticPin{}, &core.StoreError{Op: "insert pin", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.SemanticPin{}, &core.StoreError{Op: "insert pin", Err: err}
	}
	p.ID = id
	return p, nil
}

func (r *PinsRepo) ListTop(ctx context.Context, sessionID string, limit int) ([]core.SemanticPin, error) {
	query := `SELECT id, session_id, content, source_message_id, importance_score, pin_type, created_at
		FROM semantic_pins WHERE session_id = ? ORDER BY importance_score DESC, created_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, &core.StoreError{Op: "query pins", Err: err}
	}
	defer rows.Close()

	var pins []core.SemanticPin
	for rows.Next() {
		var p core.SemanticPin
		var sourceID sql.NullInt64

		if err := rows.Scan(&p.ID, &p.SessionID, &p.Content, &sourceID,
			&p.ImportanceScore, &p.PinType, &p.CreatedAt); err != nil {
			return nil, &core.StoreError{Op: "scan pin", Err: err}
		}

		if sourceID.Valid {
			id := sourceID.Int64
			p.SourceMessageID = &id
		}
		pins = append(pins, p)
	}
	return pins, rows.Err()
}

func (r *PinsRepo) Count(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM semantic_pins WHERE session_id = ?`, sessionID,
	).Scan(&count)
	if err != nil {
		return 0, &core.StoreError{Op: "count pins", Err: err}
	}
	return count, nil
}
