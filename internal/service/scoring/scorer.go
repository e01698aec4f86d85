package scoring

import (
	"regexp"
	"strings"

	"github.com/sandevgo/recall/internal/core"
)

const baseline = 0.4

// Rule is a single importance signal. Match failures are skipped, never
// fatal, so a bad custom rule cannot abort a selection pass.
type Rule struct {
	Name   string
	Weight float64
	Match  func(msg core.Message, index int) (bool, error)
}

var (
	personalInfoRe = regexp.MustCompile(`(?i)\b(my name is|i am \d+|i'm \d+|years? old|my (wife|husband|partner|son|daughter|kids?|family|birthday|address))\b`)
	contactInfoRe  = regexp.MustCompile(`(?i)([\w.+-]+@[\w-]+\.[\w.]+|\+?\d[\d\s().-]{7,}\d|\bcall me\b|\bmy (phone|email|number)\b)`)
	budgetRe       = regexp.MustCompile(`(?i)([$€£]\s?\d|\b(budget|price|cost|afford|spend|cheap|expensive)\b|\b\d+\s?(dollars|euros|pounds|usd|eur|gbp)\b)`)
	preferenceRe   = regexp.MustCompile(`(?i)\b(i (prefer|like|love|want|need|hate|dislike|avoid)|please (always|never)|from now on|always use|never use|remember (to|that)|make sure|important:)\b`)
	dateRe         = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december|deadline|due (date|by)?|tomorrow|tonight|next (week|month|year)|\d{1,2}[/.-]\d{1,2}([/.-]\d{2,4})?)\b`)
	backRefRe      = regexp.MustCompile(`(?i)\b(that|this|those|these|it|the (first|second|third|last|other) one|step \d+|option \d+)\b`)
	agreementRe    = regexp.MustCompile(`(?i)^(ok(ay)?|yes|no|sure|thanks?|thank you|got it|sounds good|yep|yeah|nope|fine|great)[.!]*$`)
)

// builtinRules is consulted in order; the final score is the max over all
// matches, not a sum, so stacking signals can never exceed 1.0 and adding a
// match can never lower a score.
var builtinRules = []Rule{
	{Name: "system_role", Weight: 1.0, Match: func(m core.Message, _ int) (bool, error) {
		return m.Role == core.RoleSystem, nil
	}},
	{Name: "personal_info", Weight: 0.9, Match: matchPattern(personalInfoRe)},
	{Name: "contact_info", Weight: 0.9, Match: matchPattern(contactInfoRe)},
	{Name: "budget", Weight: 0.85, Match: matchPattern(budgetRe)},
	{Name: "preference", Weight: 0.8, Match: matchPattern(preferenceRe)},
	{Name: "first_user_message", Weight: 0.8, Match: func(m core.Message, index int) (bool, error) {
		return m.Role == core.RoleUser && index == 0, nil
	}},
	{Name: "date_deadline", Weight: 0.7, Match: matchPattern(dateRe)},
	{Name: "long_message", Weight: 0.7, Match: func(m core.Message, _ int) (bool, error) {
		return len(m.Content) > 500, nil
	}},
	{Name: "back_reference_question", Weight: 0.6, Match: func(m core.Message, _ int) (bool, error) {
		return strings.Contains(m.Content, "?") && backRefRe.MatchString(m.Content), nil
	}},
	{Name: "short_agreement", Weight: 0.3, Match: func(m core.Message, _ int) (bool, error) {
		trimmed := strings.TrimSpace(m.Content)
		return len(trimmed) < 20 && agreementRe.MatchString(trimmed), nil
	}},
}

func matchPattern(re *regexp.Regexp) func(core.Message, int) (bool, error) {
	return func(m core.Message, _ int) (bool, error) {
		return re.MatchString(m.Content), nil
	}
}

// Scorer derives an importance in [0,1] for a message at a position in its
// sequence. Custom rules registered at runtime are consulted after the
// built-in table.
type Scorer struct {
	custom []Rule
}

func NewScorer() *Scorer {
	return &Scorer{}
}

// AddRule registers a custom rule evaluated on every subsequent Score call.
func (s *Scorer) AddRule(rule Rule) {
	s.custom = append(s.custom, rule)
}

// Score is pure over its inputs. An explicit importance set on the message is
// authoritative and returned unchanged; a pinned message scores 1.0.
func (s *Scorer) Score(msg core.Message, index int) float64 {
	if msg.Pinned {
		return 1.0
	}
	if explicit, ok := msg.ExplicitImportance(); ok {
		return explicit
	}

	score := baseline
	for _, rule := range builtinRules {
		if applyRule(rule, msg, index) && rule.Weight > score {
			score = rule.Weight
		}
	}
	for _, rule := range s.custom {
		if applyRule(rule, msg, index) && rule.Weight > score {
			score = rule.Weight
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// applyRule swallows both errors and panics from a rule. A failing rule is
// treated as a non-match.
func applyRule(rule Rule, msg core.Message, index int) (matched bool) {
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()

	ok, err := rule.Match(msg, index)
	if err != nil {
		return false
	}
	return ok
}
