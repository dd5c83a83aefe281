package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/carepath/memcore/internal/core"
	"github.com/carepath/memcore/pkg/retry"
)

const summarySystemPrompt = "You are a conversation summarization system. Output only the summary prose, no preamble."

// LLMSummarizer implements core.Summarizer on top of a chat model.
// The model call is retried with bounded backoff; the final error
// (including a timeout) propagates to the caller.
type LLMSummarizer struct {
	ai      core.AIProvider
	retrier *retry.Retrier
}

func NewLLMSummarizer(ai core.AIProvider) *LLMSummarizer {
	return &LLMSummarizer{
		ai:      ai,
		retrier: retry.NewDefaultRetrier(),
	}
}

func (s *LLMSummarizer) Summarize(ctx context.Context, msgs []core.Message) (string, error) {
	conversation := formatConversation(msgs)
	if conversation == "" {
		return "", fmt.Errorf("no summarizable content in range")
	}

	var resp core.ChatMessage
	err := s.retrier.Do(ctx, func() error {
		var chatErr error
		resp, chatErr = s.ai.Chat(ctx, []core.ChatMessage{
			{Role: core.RoleSystem, Content: summarySystemPrompt},
			{Role: core.RoleUser, Content: buildSummaryPrompt(conversation)},
		})
		return chatErr
	})
	if err != nil {
		return "", fmt.Errorf("llm chat: %w", err)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", fmt.Errorf("model returned empty summary")
	}
	return text, nil
}

func formatConversation(msgs []core.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		if m.Role == core.RoleSystem {
			continue
		}
		b.WriteString(strings.ToUpper(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

func buildSummaryPrompt(conversation string) string {
	return fmt.Sprintf(
		`Summarize the following conversation segment in a short paragraph. Preserve concrete facts, decisions, names, dosages and dates; drop greetings and filler. Conversation: %s`,
		conversation,
	)
}
