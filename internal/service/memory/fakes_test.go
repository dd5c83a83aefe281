package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/carepath/memcore/internal/config"
	"github.com/carepath/memcore/internal/core"
)

// In-memory fakes for the repository and summarizer interfaces.

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[string][]core.Message
	nextID   int64

	readRecentCalls int
	countCalls      int
	failReads       error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[string][]core.Message)}
}

func (r *fakeMessageRepo) seed(sessionID string, texts ...string) []core.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	var added []core.Message
	for _, text := range texts {
		r.nextID++
		msg := core.Message{
			ID:              r.nextID,
			SessionID:       sessionID,
			Role:            core.RoleUser,
			Text:            text,
			ImportanceScore: core.DefaultMessageImportance,
			CreatedAt:       time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(r.nextID) * time.Minute),
		}
		r.messages[sessionID] = append(r.messages[sessionID], msg)
		added = append(added, msg)
	}
	return added
}

func (r *fakeMessageRepo) Add(ctx context.Context, msg core.Message) (core.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	msg.ID = r.nextID
	r.messages[msg.SessionID] = append(r.messages[msg.SessionID], msg)
	return msg, nil
}

func (r *fakeMessageRepo) ReadRecent(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readRecentCalls++
	if r.failReads != nil {
		return nil, r.failReads
	}
	msgs := r.messages[sessionID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]core.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (r *fakeMessageRepo) ReadRange(ctx context.Context, sessionID string, startID, endID int64) ([]core.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads != nil {
		return nil, r.failReads
	}
	var out []core.Message
	for _, msg := range r.messages[sessionID] {
		if msg.ID >= startID && msg.ID <= endID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, sessionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.countCalls++
	if r.failReads != nil {
		return 0, r.failReads
	}
	return len(r.messages[sessionID]), nil
}

func (r *fakeMessageRepo) CountSince(ctx context.Context, sessionID string, afterID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads != nil {
		return 0, r.failReads
	}
	count := 0
	for _, msg := range r.messages[sessionID] {
		if msg.ID > afterID {
			count++
		}
	}
	return count, nil
}

func (r *fakeMessageRepo) UpdateImportance(ctx context.Context, messageID int64, score float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sessionID, msgs := range r.messages {
		for i := range msgs {
			if msgs[i].ID == messageID {
				r.messages[sessionID][i].ImportanceScore = score
				return nil
			}
		}
	}
	return core.ErrNotFound
}

func (r *fakeMessageRepo) ListSessions(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sessions []string
	for id := range r.messages {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)
	return sessions, nil
}

func (r *fakeMessageRepo) Stats(ctx context.Context, sessionID string) (core.SessionStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages[sessionID]
	stats := core.SessionStats{TotalMessages: len(msgs)}
	if len(msgs) == 0 {
		return stats, nil
	}
	oldest, newest := msgs[0].CreatedAt, msgs[len(msgs)-1].CreatedAt
	stats.OldestMessageAt = &oldest
	stats.NewestMessageAt = &newest
	total := 0.0
	for _, msg := range msgs {
		total += msg.ImportanceScore
	}
	stats.AverageImportance = total / float64(len(msgs))
	return stats, nil
}

type fakeSummaryRepo struct {
	mu        sync.Mutex
	summaries map[string][]core.Summary
	nextID    int64
	failReads error
}

func newFakeSummaryRepo() *fakeSummaryRepo {
	return &fakeSummaryRepo{summaries: make(map[string][]core.Summary)}
}

func (r *fakeSummaryRepo) Add(ctx context.Context, s core.Summary) (core.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s.ID = r.nextID
	if s.ImportanceScore == 0 {
		s.ImportanceScore = core.DefaultSummaryImportance
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(r.nextID) * time.Hour)
	}
	r.summaries[s.SessionID] = append(r.summaries[s.SessionID], s)
	return s, nil
}

func (r *fakeSummaryRepo) ListRecent(ctx context.Context, sessionID string, limit int) ([]core.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failReads != nil {
		return nil, r.failReads
	}
	src := r.summaries[sessionID]
	out := make([]core.Summary, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSummaryRepo) Latest(ctx context.Context, sessionID string) (core.Summary, error) {
	recent, err := r.ListRecent(ctx, sessionID, 1)
	if err != nil {
		return core.Summary{}, err
	}
	if len(recent) == 0 {
		return core.Summary{}, fmt.Errorf("latest summary: %w", core.ErrNotFound)
	}
	return recent[0], nil
}

func (r *fakeSummaryRepo) Count(ctx context.Context, sessionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.summaries[sessionID]), nil
}

type fakePinRepo struct {
	mu     sync.Mutex
	pins   map[string][]core.SemanticPin
	nextID int64
}

func newFakePinRepo() *fakePinRepo {
	return &fakePinRepo{pins: make(map[string][]core.SemanticPin)}
}

func (r *fakePinRepo) Add(ctx context.Context, p core.SemanticPin) (core.SemanticPin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(r.nextID) * time.Hour)
	}
	r.pins[p.SessionID] = append(r.pins[p.SessionID], p)
	return p, nil
}

func (r *fakePinRepo) ListTop(ctx context.Context, sessionID string, limit int) ([]core.SemanticPin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.pins[sessionID]
	out := make([]core.SemanticPin, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ImportanceScore > out[j].ImportanceScore
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakePinRepo) Count(ctx context.Context, sessionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pins[sessionID]), nil
}

type fakeSummarizer struct {
	text  string
	err   error
	calls int
	last  []core.Message
}

func (s *fakeSummarizer) Summarize(ctx context.Context, msgs []core.Message) (string, error) {
	s.calls++
	s.last = msgs
	if s.err != nil {
		return "", s.err
	}
	if s.text == "" {
		return "summary of the conversation", nil
	}
	return s.text, nil
}

var errStoreDown = errors.New("store unavailable")

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		CacheTTL:           5 * time.Second,
		ContextBudget:      3000,
		RecentWindow:       8,
		PinLimit:           5,
		SummaryLimit:       3,
		RecentFloor:        3,
		TokenEstimator:     "chars",
		SummarizeThreshold: 15,
	}
}

type testEnv struct {
	engine     *Engine
	messages   *fakeMessageRepo
	summaries  *fakeSummaryRepo
	pins       *fakePinRepo
	summarizer *fakeSummarizer
	cache      *RecencyCache
	cfg        *config.AppConfig
}

func newTestEnv() *testEnv {
	cfg := testConfig()
	messages := newFakeMessageRepo()
	summaries := newFakeSummaryRepo()
	pins := newFakePinRepo()
	summarizer := &fakeSummarizer{}
	cache := NewRecencyCache(messages, cfg.CacheTTL)

	return &testEnv{
		engine:     NewEngine(cfg, messages, summaries, pins, summarizer, CharEstimator{}, cache),
		messages:   messages,
		summaries:  summaries,
		pins:       pins,
		summarizer: summarizer,
		cache:      cache,
		cfg:        cfg,
	}
}
