package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepath/memcore/internal/core"
)

// seedCorpus loads a session with 8 messages of 2 tokens each, two
// pins of 10 tokens each and two summaries of 50 tokens each
// (CharEstimator, len/4). Full corpus estimate: 136 tokens.
func seedCorpus(t *testing.T, env *testEnv, sessionID string) {
	t.Helper()
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		env.messages.seed(sessionID, strings.Repeat("m", 8))
	}

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err := env.pins.Add(ctx, core.SemanticPin{
		SessionID:       sessionID,
		Content:         strings.Repeat("p", 40),
		ImportanceScore: 0.6,
		PinType:         core.PinManual,
		CreatedAt:       base,
	})
	require.NoError(t, err)
	_, err = env.pins.Add(ctx, core.SemanticPin{
		SessionID:       sessionID,
		Content:         strings.Repeat("q", 40),
		ImportanceScore: 0.9,
		PinType:         core.PinManual,
		CreatedAt:       base.Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = env.summaries.Add(ctx, core.Summary{
		SessionID:      sessionID,
		SummaryText:    strings.Repeat("s", 200),
		MessageCount:   5,
		StartMessageID: 1,
		EndMessageID:   5,
		CreatedAt:      base,
	})
	require.NoError(t, err)
	_, err = env.summaries.Add(ctx, core.Summary{
		SessionID:      sessionID,
		SummaryText:    strings.Repeat("t", 200),
		MessageCount:   3,
		StartMessageID: 6,
		EndMessageID:   8,
		CreatedAt:      base.Add(time.Hour),
	})
	require.NoError(t, err)
}

func TestBuildContext_EmptySession(t *testing.T) {
	env := newTestEnv()

	mc, err := env.engine.BuildContext(context.Background(), "empty", -1)
	require.NoError(t, err)

	assert.Empty(t, mc.RecentMessages)
	assert.Empty(t, mc.SemanticPins)
	assert.Empty(t, mc.Summaries)
	assert.Equal(t, 0, mc.EstimatedTokens)
}

func TestBuildContext_WithinBudgetUntouched(t *testing.T) {
	env := newTestEnv()
	seedCorpus(t, env, "s1")

	mc, err := env.engine.BuildContext(context.Background(), "s1", 136)
	require.NoError(t, err)

	assert.Len(t, mc.RecentMessages, 8)
	assert.Len(t, mc.SemanticPins, 2)
	assert.Len(t, mc.Summaries, 2)
	assert.Equal(t, 136, mc.EstimatedTokens)
}

func TestBuildContext_SummariesDropBeforePins(t *testing.T) {
	env := newTestEnv()
	seedCorpus(t, env, "s1")

	// 136 total; one 50-token summary must go, nothing else.
	mc, err := env.engine.BuildContext(context.Background(), "s1", 100)
	require.NoError(t, err)

	assert.Len(t, mc.Summaries, 1)
	assert.Len(t, mc.SemanticPins, 2)
	assert.Len(t, mc.RecentMessages, 8)
	assert.Equal(t, 86, mc.EstimatedTokens)
}

func TestBuildContext_SummaryTieBrokenByOldest(t *testing.T) {
	env := newTestEnv()
	seedCorpus(t, env, "s1")

	// Both summaries carry the default 0.7: the older one goes first.
	mc, err := env.engine.BuildContext(context.Background(), "s1", 100)
	require.NoError(t, err)

	require.Len(t, mc.Summaries, 1)
	assert.Equal(t, strings.Repeat("t", 200), mc.Summaries[0].SummaryText)
}

func TestBuildContext_PinsDropBeforeMessages(t *testing.T) {
	env := newTestEnv()
	seedCorpus(t, env, "s1")

	// After both summaries (136 -> 36) the lowest-importance pin is
	// shed (36 -> 26 <= 30) while every message survives.
	mc, err := env.engine.BuildContext(context.Background(), "s1", 30)
	require.NoError(t, err)

	assert.Empty(t, mc.Summaries)
	require.Len(t, mc.SemanticPins, 1)
	assert.Equal(t, 0.9, mc.SemanticPins[0].ImportanceScore)
	assert.Len(t, mc.RecentMessages, 8)
	assert.Equal(t, 26, mc.EstimatedTokens)
}

func TestBuildContext_OldestMessagesDropLast(t *testing.T) {
	env := newTestEnv()
	seedCorpus(t, env, "s1")

	// Summaries and pins gone (36 -> 16), then the two oldest
	// messages (16 -> 12).
	mc, err := env.engine.BuildContext(context.Background(), "s1", 12)
	require.NoError(t, err)

	assert.Empty(t, mc.Summaries)
	assert.Empty(t, mc.SemanticPins)
	require.Len(t, mc.RecentMessages, 6)
	assert.Equal(t, int64(3), mc.RecentMessages[0].ID)
	assert.Equal(t, 12, mc.EstimatedTokens)
}

func TestBuildContext_FloorSurvivesZeroBudget(t *testing.T) {
	env := newTestEnv()
	seedCorpus(t, env, "s1")

	mc, err := env.engine.BuildContext(context.Background(), "s1", 0)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(mc.RecentMessages), 3)
	last := mc.RecentMessages[len(mc.RecentMessages)-1]
	assert.Equal(t, int64(8), last.ID)
	assert.Greater(t, mc.EstimatedTokens, 0)
}

func TestBuildContext_MessagesStayChronological(t *testing.T) {
	env := newTestEnv()
	seedCorpus(t, env, "s1")

	mc, err := env.engine.BuildContext(context.Background(), "s1", 12)
	require.NoError(t, err)

	for i := 1; i < len(mc.RecentMessages); i++ {
		assert.Less(t, mc.RecentMessages[i-1].ID, mc.RecentMessages[i].ID)
	}
}

func TestBuildContext_EstimateMonotonicInBudget(t *testing.T) {
	env := newTestEnv()
	seedCorpus(t, env, "s1")

	// Budgets at or above the 6-token message floor; the estimate must
	// never shrink as the budget grows, and saturates at the corpus.
	budgets := []int{6, 12, 30, 100, 136, 500}
	prev := -1
	for _, budget := range budgets {
		mc, err := env.engine.BuildContext(context.Background(), "s1", budget)
		require.NoError(t, err)
		require.GreaterOrEqual(t, mc.EstimatedTokens, prev, "budget %d", budget)
		prev = mc.EstimatedTokens
	}
	assert.Equal(t, 136, prev)
}

func TestBuildContext_Idempotent(t *testing.T) {
	env := newTestEnv()
	seedCorpus(t, env, "s1")

	first, err := env.engine.BuildContext(context.Background(), "s1", 30)
	require.NoError(t, err)
	second, err := env.engine.BuildContext(context.Background(), "s1", 30)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildContext_DefaultBudget(t *testing.T) {
	env := newTestEnv()
	seedCorpus(t, env, "s1")

	mc, err := env.engine.BuildContext(context.Background(), "s1", -1)
	require.NoError(t, err)

	// 136 tokens fit comfortably inside the 3000 default.
	assert.Equal(t, 136, mc.EstimatedTokens)
	assert.Len(t, mc.Summaries, 2)
}

// The canonical over-budget scenario: a long session, one summary, one
// critical pin, tiny budget. The summary is sacrificed, the pin is
// kept (the floor alone already exceeds the budget, so evicting it
// would not help), and only the floor messages remain.
func TestBuildContext_OverBudgetKeepsCriticalPin(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		env.messages.seed("s1", strings.Repeat("x", 100)) // 25 tokens each
	}
	_, err := env.summaries.Add(ctx, core.Summary{
		SessionID:      "s1",
		SummaryText:    strings.Repeat("s", 480), // 120 tokens
		MessageCount:   10,
		StartMessageID: 1,
		EndMessageID:   10,
	})
	require.NoError(t, err)
	_, err = env.pins.Add(ctx, core.SemanticPin{
		SessionID:       "s1",
		Content:         "Patient allergic to penicillin",
		ImportanceScore: 0.95,
		PinType:         core.PinManual,
	})
	require.NoError(t, err)

	mc, err := env.engine.BuildContext(ctx, "s1", 50)
	require.NoError(t, err)

	assert.Empty(t, mc.Summaries, "summaries drop first")
	require.Len(t, mc.SemanticPins, 1, "pin must survive")
	assert.Equal(t, "Patient allergic to penicillin", mc.SemanticPins[0].Content)

	require.Len(t, mc.RecentMessages, 3, "only the floor remains")
	assert.Equal(t, int64(18), mc.RecentMessages[0].ID)
	assert.Equal(t, int64(20), mc.RecentMessages[2].ID)

	// 3 messages at 25 tokens + the 7-token pin.
	assert.Equal(t, 82, mc.EstimatedTokens)
}

func TestBuildContext_StoreErrorPropagates(t *testing.T) {
	env := newTestEnv()
	env.messages.failReads = errStoreDown

	_, err := env.engine.BuildContext(context.Background(), "s1", -1)
	require.ErrorIs(t, err, errStoreDown)
}
