package pairs

import (
	"fmt"
	"sort"
	"time"

	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/internal/service/scoring"
)

// maxLookback bounds reference resolution: a referencing pair only considers
// the 10 pairs before it, keeping resolution O(pairs * 10) on any history.
const maxLookback = 10

const (
	longReplyBoost  = 0.1
	enumReplyBoost  = 0.15
	referencedBoost = 0.2
)

// Pair is a user message and the assistant reply that answered it, treated as
// an atomic unit for retention. System messages and unanswered user messages
// form singleton pairs. Pairs are rebuilt from the message list on every
// request, never persisted.
type Pair struct {
	ID                string
	User              *core.Message
	Assistant         *core.Message
	Topic             string
	Importance        float64
	HasReference      bool
	ReferencedPairIDs []string
	Timestamp         time.Time
}

// IsSystem reports whether the pair wraps a standalone system message.
func (p *Pair) IsSystem() bool {
	return p.User != nil && p.User.Role == core.RoleSystem
}

// Messages flattens the pair back to its original messages.
func (p *Pair) Messages() []core.Message {
	out := make([]core.Message, 0, 2)
	if p.User != nil {
		out = append(out, *p.User)
	}
	if p.Assistant != nil {
		out = append(out, *p.Assistant)
	}
	return out
}

// Manager builds and selects conversation pairs. It owns no state beyond the
// scorer used to derive user-message importance.
type Manager struct {
	scorer *scoring.Scorer
}

func NewManager(scorer *scoring.Scorer) *Manager {
	return &Manager{scorer: scorer}
}

// BuildPairs runs a single forward scan: a user message opens a pending pair,
// the next assistant message closes it, a second consecutive user message
// force-closes the previous pair as unanswered, and a trailing unanswered
// user message closes at end of scan. Importance is derived per pair and
// reference boosts are back-propagated afterwards.
func (m *Manager) BuildPairs(messages []core.Message) []*Pair {
	var result []*Pair
	var pending *Pair

	closePending := func() {
		if pending != nil {
			result = append(result, pending)
			pending = nil
		}
	}

	for i := range messages {
		msg := messages[i]
		switch msg.Role {
		case core.RoleSystem:
			closePending()
			result = append(result, &Pair{
				ID:         pairID(len(result)),
				User:       &messages[i],
				Importance: 1.0,
				Timestamp:  msg.Timestamp,
			})
		case core.RoleUser:
			closePending()
			pending = &Pair{
				ID:           pairID(len(result)),
				User:         &messages[i],
				HasReference: DetectReference(msg.Content),
				Timestamp:    msg.Timestamp,
			}
		case core.RoleAssistant:
			if pending != nil {
				pending.Assistant = &messages[i]
				closePending()
			} else {
				// an orphaned reply still has to survive round-tripping
				result = append(result, &Pair{
					ID:        pairID(len(result)),
					Assistant: &messages[i],
					Timestamp: msg.Timestamp,
				})
			}
		default:
			// function/tool traffic never participates in pairing
		}
	}
	closePending()

	m.deriveImportance(result, messages)
	m.resolveReferences(result)

	return result
}

func (m *Manager) deriveImportance(built []*Pair, messages []core.Message) {
	indexOf := make(map[string]int, len(messages))
	for i, msg := range messages {
		indexOf[msg.ID] = i
	}

	for _, p := range built {
		if p.IsSystem() {
			continue
		}

		score := 0.0
		if p.User != nil {
			score = m.scorer.Score(*p.User, indexOf[p.User.ID])
		}

		if p.Assistant != nil {
			if len(p.Assistant.Content) > 200 {
				score += longReplyBoost
			}
			if hasEnumeration(p.Assistant.Content) {
				score += enumReplyBoost
			}
		}

		p.Importance = clamp(score)
	}
}

// resolveReferences links each referencing pair to its most plausible target
// and boosts the target's importance. The nearest earlier pair whose reply
// lays out an enumeration wins; failing that, the immediately previous pair.
func (m *Manager) resolveReferences(built []*Pair) {
	for i, p := range built {
		if !p.HasReference {
			continue
		}

		target := resolveTarget(built, i)
		if target < 0 {
			continue
		}

		p.ReferencedPairIDs = append(p.ReferencedPairIDs, built[target].ID)
		built[target].Importance = clamp(built[target].Importance + referencedBoost)
	}
}

func resolveTarget(built []*Pair, from int) int {
	lowest := from - maxLookback
	if lowest < 0 {
		lowest = 0
	}

	for j := from - 1; j >= lowest; j-- {
		if built[j].Assistant != nil && hasEnumeration(built[j].Assistant.Content) {
			return j
		}
	}
	if from > 0 {
		return from - 1
	}
	return -1
}

// SelectPairs picks pairs under a token budget. System pairs and the most
// recent minRecent pairs are unconditional; pairs the current query points at
// go next; importance-ranked older pairs fill up to 60% of whatever budget
// remains. Output is re-sorted to chronological order so role alternation
// stays coherent for the model.
func (m *Manager) SelectPairs(built []*Pair, currentQuery string, tokenBudget, minRecent int, count core.TokenCounter) []*Pair {
	if len(built) == 0 {
		return nil
	}

	selected := make(map[string]*Pair)
	remaining := tokenBudget

	take := func(p *Pair) {
		if _, ok := selected[p.ID]; ok {
			return
		}
		selected[p.ID] = p
		remaining -= pairCost(p, count)
	}

	for _, p := range built {
		if p.IsSystem() {
			take(p)
		}
	}

	recentFrom := len(built) - minRecent
	if recentFrom < 0 {
		recentFrom = 0
	}
	for _, p := range built[recentFrom:] {
		take(p)
	}

	if currentQuery != "" && DetectReference(currentQuery) {
		if target := resolveTarget(built, len(built)); target >= 0 {
			p := built[target]
			if cost := pairCost(p, count); cost <= remaining {
				take(p)
			}
		}
	}

	ranked := make([]*Pair, 0, len(built))
	for _, p := range built {
		if _, ok := selected[p.ID]; !ok {
			ranked = append(ranked, p)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Importance > ranked[j].Importance
	})

	historyBudget := int(float64(remaining) * 0.6)
	for _, p := range ranked {
		cost := pairCost(p, count)
		if cost > historyBudget {
			continue
		}
		take(p)
		historyBudget -= cost
	}

	out := make([]*Pair, 0, len(selected))
	for _, p := range built {
		if _, ok := selected[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// PairsToMessages flattens pairs back to an order-preserving message list.
func PairsToMessages(built []*Pair) []core.Message {
	var out []core.Message
	for _, p := range built {
		out = append(out, p.Messages()...)
	}
	return out
}

func pairCost(p *Pair, count core.TokenCounter) int {
	cost := 0
	if p.User != nil {
		cost += count(p.User.Content)
	}
	if p.Assistant != nil {
		cost += count(p.Assistant.Content)
	}
	return cost
}

func pairID(seq int) string {
	return fmt.Sprintf("pair-%d", seq)
}

func clamp(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < 0 {
		return 0
	}
	return v
}
