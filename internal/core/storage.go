package core

import "context"

type MessageRepository interface {
	Add(ctx context.Context, msg Message) (Message, error)
	// ReadRecent returns the last limit messages in chronological order.
	ReadRecent(ctx context.Context, sessionID string, limit int) ([]Message, error)
	// ReadRange returns messages with startID <= id <= endID, chronological.
	ReadRange(ctx context.Context, sessionID string, startID, endID int64) ([]Message, error)
	Count(ctx context.Context, sessionID string) (int, error)
	// CountSince counts messages with id > afterID.
	CountSince(ctx context.Context, sessionID string, afterID int64) (int, error)
	UpdateImportance(ctx context.Context, messageID int64, score float64) error
	ListSessions(ctx context.Context) ([]string, error)
	Stats(ctx context.Context, sessionID string) (SessionStats, error)
}

type SummaryRepository interface {
	Add(ctx context.Context, s Summary) (Summary, error)
	// ListRecent returns summaries ordered by recency descending.
	ListRecent(ctx context.Context, sessionID string, limit int) ([]Summary, error)
	// Latest returns the most recent summary, or ErrNotFound.
	Latest(ctx context.Context, sessionID string) (Summary, error)
	Count(ctx context.Context, sessionID string) (int, error)
}

type PinRepository interface {
	Add(ctx context.Context, p SemanticPin) (SemanticPin, error)
	// ListTop returns pins ordered by importance descending.
	ListTop(ctx context.Context, sessionID string, limit int) ([]SemanticPin, error)
	Count(ctx context.Context, sessionID string) (int, error)
}
