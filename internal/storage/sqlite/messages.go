package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/carepath/memcore/internal/core"
	"github.com/carepath/memcore/pkg/log"
)

type MessagesRepo struct {
	db *sql.DB
}

func NewMessagesRepo(db *sql.DB) *MessagesRepo {
	return &MessagesRepo{db: db}
}

func (r *MessagesRepo) Add(ctx context.Context, msg core.Message) (core.Message, error) {
	if msg.ImportanceScore == 0 {
		msg.ImportanceScore = core.DefaultMessageImportance
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO messages (session_id, role, text, model_id, token_usage, importance_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		msg.SessionID, msg.Role, msg.Text, nullString(msg.ModelID), nullInt(msg.TokenUsage),
		msg.ImportanceScore, msg.CreatedAt,
	)
	if err != nil {
		return core.Message{}, &core.StoreError{Op: "insert message", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Message{}, &core.StoreError{Op: "insert message", Err: err}
	}
	msg.ID = id
	return msg, nil
}

// ReadRecent fetches the last 'limit' messages by ordering DESC, then
// reverses them back to chronological order.
func (r *MessagesRepo) ReadRecent(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	query := `SELECT id, session_id, role, text, model_id, token_usage, importance_score, created_at
		FROM messages WHERE session_id = ? ORDER BY id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, &core.StoreError{Op: "query recent messages", Err: err}
	}
	defer rows.Close()

	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	log.FromCtx(ctx).Debug().Int("count", len(messages)).Msg("loaded recent messages")
	return messages, nil
}

func (r *MessagesRepo) ReadRange(ctx context.Context, sessionID string, startID, endID int64) ([]core.Message, error) {
	query := `SELECT id, session_id, role, text, model_id, token_usage, importance_score, created_at
		FROM messages WHERE session_id = ? AND id BETWEEN ? AND ? ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionID, startID, endID)
	if err != nil {
		return nil, &core.StoreError{Op: "query message range", Err: err}
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *MessagesRepo) Count(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE session_id = ?`, sessionID,
	).Scan(&count)
	if err != nil {
		return 0, &core.StoreError{Op: "count messages", Err: err}
	}
	return count, nil
}

func (r *MessagesRepo) CountSince(ctx context.Context, sessionID string, afterID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE session_id = ? AND id > ?`, sessionID, afterID,
	).Scan(&count)
	if err != nil {
		return 0, &core.StoreError{Op: "count messages since", Err: err}
	}
	return count, nil
}

func (r *MessagesRepo) UpdateImportance(ctx context.Context, messageID int64, score float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET importance_score = ? WHERE id = ?`, score, messageID,
	)
	if err != nil {
		return &core.StoreError{Op: "update importance", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return &core.StoreError{Op: "update importance", Err: err}
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *MessagesRepo) ListSessions(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT session_id FROM messages ORDER BY session_id`)
	if err != nil {
		return nil, &core.StoreError{Op: "list sessions", Err: err}
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &core.StoreError{Op: "scan session id", Err: err}
		}
		sessions = append(sessions, id)
	}
	return sessions, rows.Err()
}

func (r *MessagesRepo) Stats(ctx context.Context, sessionID string) (core.SessionStats, error) {
	var stats core.SessionStats
	var oldest, newest sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(created_at), MAX(created_at), COALESCE(AVG(importance_score), 0)
		 FROM messages WHERE session_id = ?`, sessionID,
	).Scan(&stats.TotalMessages, &oldest, &newest, &stats.AverageImportance)
	if err != nil {
		return core.SessionStats{}, &core.StoreError{Op: "message stats", Err: err}
	}

	if oldest.Valid {
		stats.OldestMessageAt = &oldest.Time
	}
	if newest.Valid {
		stats.NewestMessageAt = &newest.Time
	}
	return stats, nil
}

func scanMessages(rows *sql.Rows) ([]core.Message, error) {
	var messages []core.Message
	for rows.Next() {
		var msg core.Message
		var modelID sql.NullString
		var tokenUsage sql.NullInt64

		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &msg.Text,
			&modelID, &tokenUsage, &msg.ImportanceScore, &msg.CreatedAt); err != nil {
			return nil, &core.StoreError{Op: "scan message", Err: err}
		}

		msg.ModelID = modelID.String
		if tokenUsage.Valid {
			usage := int(tokenUsage.Int64)
			msg.TokenUsage = &usage
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
