package core

import "time"

const AppVersion = "0.1.0"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Pin types. Manual is the default for caller-created pins; the rest
// mark pins created automatically by noteworthy-message detection.
const (
	PinManual  = "manual"
	PinAuto    = "auto"
	PinCode    = "code"
	PinConcept = "concept"
	PinSystem  = "system"
)

const (
	DefaultMessageImportance = 0.5
	DefaultSummaryImportance = 0.7
	DefaultPinImportance     = 0.8
)

// Message is one turn in a conversation. IDs are monotonically
// increasing within a session, so id order equals chronological order.
type Message struct {
	ID              int64     `json:"id"`
	SessionID       string    `json:"session_id"`
	Role            string    `json:"role"`
	Text            string    `json:"text"`
	ModelID         string    `json:"model_id,omitempty"`
	TokenUsage      *int      `json:"token_usage,omitempty"`
	ImportanceScore float64   `json:"importance_score"`
	CreatedAt       time.Time `json:"created_at"`
}

// Summary compresses a contiguous message range [StartMessageID, EndMessageID].
// The store does not enforce non-overlap between ranges.
type Summary struct {
	ID              int64     `json:"id"`
	SessionID       string    `json:"session_id"`
	SummaryText     string    `json:"summary_text"`
	MessageCount    int       `json:"message_count"`
	StartMessageID  int64     `json:"start_message_id"`
	EndMessageID    int64     `json:"end_message_id"`
	ImportanceScore float64   `json:"importance_score"`
	CreatedAt       time.Time `json:"created_at"`
}

// SemanticPin is a durable fact that survives context truncation.
type SemanticPin struct {
	ID              int64     `json:"id"`
	SessionID       string    `json:"session_id"`
	Content         string    `json:"content"`
	SourceMessageID *int64    `json:"source_message_id,omitempty"`
	ImportanceScore float64   `json:"importance_score"`
	PinType         string    `json:"pin_type"`
	CreatedAt       time.Time `json:"created_at"`
}

// PinRequest carries the optional fields of a pin-creation call.
// Zero values select the defaults (importance 0.8, type manual).
type PinRequest struct {
	Content         string
	SourceMessageID *int64
	ImportanceScore float64
	PinType         string
}

// MemoryContext is the per-request output of the context assembler.
// It is rebuilt on every call and never persisted or cached as a whole.
type MemoryContext struct {
	RecentMessages  []Message     `json:"recent_messages"`  // chronological
	SemanticPins    []SemanticPin `json:"semantic_pins"`    // descending importance
	Summaries       []Summary     `json:"summaries"`        // descending recency
	EstimatedTokens int           `json:"estimated_tokens"`
}

// SessionStats aggregates the memory footprint of one session.
type SessionStats struct {
	TotalMessages     int        `json:"total_messages"`
	TotalSummaries    int        `json:"total_summaries"`
	TotalPins         int        `json:"total_pins"`
	OldestMessageAt   *time.Time `json:"oldest_message_at,omitempty"`
	NewestMessageAt   *time.Time `json:"newest_message_at,omitempty"`
	AverageImportance float64    `json:"average_importance"`
}
