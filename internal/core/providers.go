package core

import "context"

// ChatMessage is the wire shape sent to a model provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type AIProvider interface {
	Chat(ctx context.Context, history []ChatMessage) (ChatMessage, error)
}

// Summarizer turns a message range into prose. Implementations are
// expected to be slow (model call) and context-cancellable.
type Summarizer interface {
	Summarize(ctx context.Context, msgs []Message) (string, error)
}

// TokenEstimator approximates the token cost of a text. It sits behind
// an interface so the chars/4 heuristic can be swapped for a real
// tokenizer without touching the assembler's truncation logic.
type TokenEstimator interface {
	EstimateText(text string) int
}
