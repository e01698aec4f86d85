package contextmgr

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/internal/service/pairs"
	"github.com/sandevgo/recall/internal/service/scoring"
	"github.com/sandevgo/recall/internal/service/semantic"
	"github.com/sandevgo/recall/pkg/bloom"
	"github.com/sandevgo/recall/pkg/cache"
	"github.com/sandevgo/recall/pkg/log"
	"github.com/sandevgo/recall/pkg/tokens"
)

const (
	defaultThreshold = 0.3

	// packing stops once this many messages fit and the next candidate
	// would overflow; scanning the rest of a long history buys little
	minPackedBeforeStop = 10

	// auto-summarization keeps this many newest unpinned messages live
	recentKeptOnSummarize = 10

	// summarization triggers when unpinned tokens exceed this multiple of
	// the configured token limit
	summarizeFactor = 2

	semanticTopK       = 5
	semanticBoostLimit = 0.3

	defaultMinRecentPairs = 3

	expectedSessions = 10000
	sessionBloomFPR  = 0.01
)

// Config wires a Manager. Storage is required; everything else has a default.
type Config struct {
	Storage    core.Storage
	Scorer     *scoring.Scorer
	Summarizer core.Summarizer
	Counter    core.TokenCounter
	TokenLimit int
	CacheSize  int

	// MinRecentPairs is how many of the newest conversation pairs
	// GetPairContext always keeps, budget permitting or not.
	MinRecentPairs int
}

// Manager orchestrates context selection for LLM calls: it scores, ranks and
// packs a session's history into a hard token budget. It holds no per-session
// locks; racing mutations of the same session resolve at the storage layer.
type Manager struct {
	storage        core.Storage
	scorer         *scoring.Scorer
	summarizer     core.Summarizer
	index          *semantic.Index
	pairs          *pairs.Manager
	tokenCache     *cache.TokenCache
	seen           *bloom.Filter
	tokenLimit     int
	minRecentPairs int
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.Storage == nil {
		return nil, fmt.Errorf("contextmgr: storage is required")
	}
	if cfg.TokenLimit <= 0 {
		return nil, fmt.Errorf("contextmgr: token limit must be positive, got %d", cfg.TokenLimit)
	}

	scorer := cfg.Scorer
	if scorer == nil {
		scorer = scoring.NewScorer()
	}
	counter := cfg.Counter
	if counter == nil {
		counter = tokens.Estimate
	}
	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = 4096
	}
	minRecent := cfg.MinRecentPairs
	if minRecent <= 0 {
		minRecent = defaultMinRecentPairs
	}

	tokenCache, err := cache.NewTokenCache(cacheSize, counter)
	if err != nil {
		return nil, fmt.Errorf("contextmgr: token cache: %w", err)
	}
	seen, err := bloom.New(expectedSessions, sessionBloomFPR)
	if err != nil {
		return nil, fmt.Errorf("contextmgr: session filter: %w", err)
	}

	return &Manager{
		storage:        cfg.Storage,
		scorer:         scorer,
		summarizer:     cfg.Summarizer,
		index:          semantic.NewIndex(),
		pairs:          pairs.NewManager(scorer),
		tokenCache:     tokenCache,
		seen:           seen,
		tokenLimit:     cfg.TokenLimit,
		minRecentPairs: minRecent,
	}, nil
}

// AddOptions carries the optional fields of a new message.
type AddOptions struct {
	Pinned     bool
	Importance *float64
	Metadata   map[string]any
}

// Add stores a new message and returns its id. When the session's unpinned
// content grows past twice the token limit, everything but the newest few
// unpinned messages is summarized and deleted; this is what keeps GetContext
// scans bounded on long-running sessions.
func (m *Manager) Add(ctx context.Context, sessionID, role, content string, opts AddOptions) (string, error) {
	if opts.Importance != nil && (*opts.Importance < 0 || *opts.Importance > 1) {
		return "", fmt.Errorf("add message: importance %g out of [0,1]", *opts.Importance)
	}

	msg := core.Message{
		ID:         uuid.NewString(),
		Role:       role,
		Content:    content,
		Timestamp:  time.Now(),
		Pinned:     opts.Pinned,
		Importance: opts.Importance,
		Metadata:   opts.Metadata,
	}

	if err := m.storage.AddMessage(ctx, sessionID, msg); err != nil {
		return "", fmt.Errorf("add message: %w", err)
	}

	m.index.Add(msg)
	m.seen.Add(sessionID)

	if err := m.maybeSummarize(ctx, sessionID); err != nil {
		return "", err
	}

	return msg.ID, nil
}

// GetContext assembles a context for one model call. The returned messages
// are chronological and their combined token estimate never exceeds
// opts.MaxTokens.
func (m *Manager) GetContext(ctx context.Context, sessionID string, opts core.ContextOptions) (core.ContextResult, error) {
	if opts.MaxTokens <= 0 {
		return core.ContextResult{}, fmt.Errorf("get context: max tokens must be positive, got %d", opts.MaxTokens)
	}
	threshold := opts.ImportanceThreshold
	if threshold <= 0 {
		threshold = defaultThreshold
	}

	all, err := m.storage.GetMessages(ctx, sessionID)
	if err != nil {
		return core.ContextResult{}, fmt.Errorf("get context: %w", err)
	}

	logger := log.FromCtx(ctx)
	remaining := opts.MaxTokens

	var selected []core.Message
	var result core.ContextResult

	// 1. stored summary first, as a synthetic system message; dropped
	// whole if it alone does not fit
	summaryText, err := m.storage.GetSummary(ctx, sessionID)
	if err != nil {
		return core.ContextResult{}, fmt.Errorf("get summary: %w", err)
	}
	if summaryText != "" {
		synthetic := core.Message{
			ID:      "summary:" + sessionID,
			Role:    core.RoleSystem,
			Content: "Previous conversation summary: " + summaryText,
		}
		if cost := m.tokenCache.Count(synthetic.Content); cost <= remaining {
			selected = append(selected, synthetic)
			remaining -= cost
			result.WasSummarized = true
		}
	}

	// 2. pinned messages chronologically, each checked on its own; a pin
	// is a priority signal, not a guarantee against a too-small budget
	var unpinned []core.Message
	for _, msg := range all {
		if !msg.Pinned {
			unpinned = append(unpinned, msg)
			continue
		}
		cost := m.tokenCache.Count(msg.Content)
		if cost > remaining {
			logger.Warn().Str("id", msg.ID).Int("cost", cost).Int("remaining", remaining).
				Msg("pinned message exceeds remaining budget, skipping")
			continue
		}
		selected = append(selected, msg)
		remaining -= cost
		result.PinnedCount++
	}

	// 3. score the rest, boosting query-relevant messages
	scored := m.scoreMessages(all, unpinned, opts.CurrentQuery)

	// 4. threshold, then score-descending with recency breaking near-ties
	survivors := scored[:0]
	for _, sm := range scored {
		if sm.Score >= threshold {
			survivors = append(survivors, sm)
		}
	}
	sort.SliceStable(survivors, func(i, j int) bool {
		di := survivors[i].Score - survivors[j].Score
		if di <= 0.1 && di >= -0.1 {
			return survivors[i].Message.Timestamp.After(survivors[j].Message.Timestamp)
		}
		return di > 0
	})

	// 5. greedy pack with the bounded stopping rule
	packed := 0
	for _, sm := range survivors {
		cost := m.tokenCache.Count(sm.Message.Content)
		if cost > remaining {
			if packed >= minPackedBeforeStop {
				break
			}
			continue
		}
		selected = append(selected, sm.Message)
		remaining -= cost
		packed++
	}

	// 6. chronological order for the model; the synthetic summary has a
	// zero timestamp and stays in front
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Timestamp.Before(selected[j].Timestamp)
	})

	result.Messages = selected
	result.MessageCount = len(selected)
	result.TokenCount = opts.MaxTokens - remaining

	logger.Debug().
		Str("session", sessionID).
		Int("messages", result.MessageCount).
		Int("tokens", result.TokenCount).
		Bool("summarized", result.WasSummarized).
		Msg("context assembled")

	return result, nil
}

// GetPairContext selects whole conversation pairs instead of individual
// messages, so a user turn never arrives without the reply that answered it.
// System pairs and the newest pairs are kept unconditionally, which can push
// the result past the budget on pathological histories; older pairs only
// spend what remains.
func (m *Manager) GetPairContext(ctx context.Context, sessionID string, opts core.ContextOptions) (core.ContextResult, error) {
	if opts.MaxTokens <= 0 {
		return core.ContextResult{}, fmt.Errorf("get pair context: max tokens must be positive, got %d", opts.MaxTokens)
	}

	all, err := m.storage.GetMessages(ctx, sessionID)
	if err != nil {
		return core.ContextResult{}, fmt.Errorf("get pair context: %w", err)
	}

	built := m.pairs.BuildPairs(all)
	selected := m.pairs.SelectPairs(built, opts.CurrentQuery, opts.MaxTokens, m.minRecentPairs, m.tokenCache.Count)
	messages := pairs.PairsToMessages(selected)

	total := 0
	for _, msg := range messages {
		total += m.tokenCache.Count(msg.Content)
	}

	log.FromCtx(ctx).Debug().
		Str("session", sessionID).
		Int("pairs", len(selected)).
		Int("tokens", total).
		Msg("pair context assembled")

	return core.ContextResult{
		Messages:     messages,
		TokenCount:   total,
		MessageCount: len(messages),
	}, nil
}

func (m *Manager) scoreMessages(all, unpinned []core.Message, query string) []core.ScoredMessage {
	indexOf := make(map[string]int, len(all))
	for i, msg := range all {
		indexOf[msg.ID] = i
	}

	boost := make(map[string]float64)
	if query != "" {
		for _, hit := range semantic.FindRelevant(query, unpinned, semanticTopK) {
			boost[hit.Message.ID] = semanticBoostLimit * hit.Score
		}
	}

	scored := make([]core.ScoredMessage, 0, len(unpinned))
	for _, msg := range unpinned {
		s := m.scorer.Score(msg, indexOf[msg.ID]) + boost[msg.ID]
		scored = append(scored, core.ScoredMessage{Message: msg, Score: s})
	}
	return scored
}

// Pin marks a message for unconditional inclusion whenever its size permits.
// Pinning an unknown message is a no-op, not an error.
func (m *Manager) Pin(ctx context.Context, sessionID, messageID string) error {
	return m.setPinned(ctx, sessionID, messageID, true)
}

func (m *Manager) Unpin(ctx context.Context, sessionID, messageID string) error {
	return m.setPinned(ctx, sessionID, messageID, false)
}

func (m *Manager) setPinned(ctx context.Context, sessionID, messageID string, pinned bool) error {
	err := m.storage.UpdateMessage(ctx, sessionID, messageID, core.MessageUpdate{Pinned: &pinned})
	if err != nil {
		if core.IsNotFound(err) {
			log.FromCtx(ctx).Debug().Str("id", messageID).Msg("pin target not found, ignoring")
			return nil
		}
		return fmt.Errorf("update message: %w", err)
	}
	return nil
}

// Clear drops the session's messages and summary, and unindexes its content.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	msgs, err := m.storage.GetMessages(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	for _, msg := range msgs {
		m.index.Remove(msg.ID)
	}
	if err := m.storage.ClearSession(ctx, sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// HasSession answers through the bloom filter first: a negative there is
// definitive and saves the storage round-trip, a positive still has to be
// confirmed.
func (m *Manager) HasSession(ctx context.Context, sessionID string) (bool, error) {
	if !m.seen.MightContain(sessionID) {
		return false, nil
	}
	ok, err := m.storage.HasSession(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("has session: %w", err)
	}
	return ok, nil
}

// Search ranks the shared index's content against a query. The index spans
// all sessions; entries are keyed by message ID, not by session.
func (m *Manager) Search(query string, topK int) []semantic.Result {
	return m.index.Search(query, topK, 0)
}

func (m *Manager) maybeSummarize(ctx context.Context, sessionID string) error {
	all, err := m.storage.GetMessages(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("summarize check: %w", err)
	}

	var unpinned []core.Message
	total := 0
	for _, msg := range all {
		if msg.Pinned {
			continue
		}
		unpinned = append(unpinned, msg)
		total += m.tokenCache.Count(msg.Content)
	}

	if total <= summarizeFactor*m.tokenLimit {
		return nil
	}

	logger := log.FromCtx(ctx)
	if m.summarizer == nil {
		logger.Debug().Str("session", sessionID).Msg("summarization threshold reached but no summarizer configured")
		return nil
	}

	cut := len(unpinned) - recentKeptOnSummarize
	if cut <= 0 {
		return nil
	}
	older := unpinned[:cut]

	digest := m.summarizer.Summarize(older)
	if digest == "" {
		return nil
	}

	prior, err := m.storage.GetSummary(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get summary: %w", err)
	}
	combined := digest
	if prior != "" {
		combined = strings.TrimSpace(prior) + " " + digest
	}
	if err := m.storage.SetSummary(ctx, sessionID, combined); err != nil {
		return fmt.Errorf("set summary: %w", err)
	}

	for _, msg := range older {
		if err := m.storage.DeleteMessage(ctx, sessionID, msg.ID); err != nil {
			return fmt.Errorf("delete summarized message: %w", err)
		}
		m.index.Remove(msg.ID)
	}

	logger.Info().
		Str("session", sessionID).
		Int("summarized", len(older)).
		Int("kept", len(unpinned)-len(older)).
		Msg("auto-summarized older messages")

	return nil
}
