package detection

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Scorer turns a text and a profile into a verdict.
type Scorer interface {
	Score(text string, p *Profile) *Result
}

// EngineConfig configures an Engine. Zero fields fall back to defaults.
type EngineConfig struct {
	Thresholds Thresholds
	Weights    Weights

	// Vocabulary replaces GenericVocabulary when non-empty.
	Vocabulary []string

	// Verbs replaces ActionVerbs when non-empty.
	Verbs []string
}

// Engine is the rule-based spoiler scorer. It holds only immutable compiled
// state, so one Engine can serve any number of goroutines.
type Engine struct {
	thresholds Thresholds
	weights    Weights
	vocabulary []string // normalized
	action     *regexp.Regexp
}

var defaultEngine = NewEngine(EngineConfig{})

// Score scores text with the default engine.
func Score(text string, p *Profile) *Result {
	return defaultEngine.Score(text, p)
}

// NewEngine builds an engine from cfg.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights()
	}
	vocab := cfg.Vocabulary
	if len(vocab) == 0 {
		vocab = GenericVocabulary
	}
	verbs := cfg.Verbs
	if len(verbs) == 0 {
		verbs = ActionVerbs
	}

	e := &Engine{
		thresholds: cfg.Thresholds,
		weights:    cfg.Weights,
		vocabulary: make([]string, 0, len(vocab)),
	}
	for _, v := range vocab {
		if n := normalize(v); strings.TrimSpace(n) != "" {
			e.vocabulary = append(e.vocabulary, n)
		}
	}

	quoted := make([]string, len(verbs))
	for i, v := range verbs {
		quoted[i] = regexp.QuoteMeta(v)
	}
	// <word> <verb> [<word>]
	e.action = regexp.MustCompile(`(?i)[\p{L}\p{N}_]+\s+(?:` + strings.Join(quoted, "|") + `)\b(?:\s+[\p{L}\p{N}_]+)?`)

	return e
}

// Thresholds returns the thresholds in use.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Score implements Scorer. A nil profile scores with no user rules at medium
// sensitivity.
func (e *Engine) Score(text string, p *Profile) *Result {
	if p == nil {
		p = DefaultProfile()
	}

	result := &Result{RiskLevel: RiskLow, MatchedTerms: []string{}}
	if strings.TrimSpace(text) == "" {
		return result
	}

	original := norm.NFC.String(text)
	lower := strings.ToLower(original)
	matched := newTermSet()
	score := 0

	// User keywords
	for _, kw := range p.BlockedKeywords {
		if contains(lower, kw) {
			score += e.weights.Keyword
			matched.add(strings.TrimSpace(kw))
		}
	}

	// Context terms
	contextActive := false
	for _, term := range p.ContextTerms {
		if contains(lower, term) {
			score += e.weights.Context
			contextActive = true
			matched.add(strings.TrimSpace(term))
		}
	}

	// Generic vocabulary, amplified by context
	for _, term := range e.vocabulary {
		if !strings.Contains(lower, term) {
			continue
		}
		if contextActive {
			score += e.weights.GenericInContext
			matched.add(term)
		} else {
			score += e.weights.Generic
		}
	}

	// Subject + outcome verb
	if e.action.MatchString(original) {
		score += e.weights.ActionPattern
		matched.add(ActionPatternMarker)
	}

	result.RawScore = score
	result.IsSpoiler = score >= e.thresholds.For(p.Sensitivity)
	result.Confidence = clamp(score*10, 0, 100)
	result.RiskLevel = RiskFor(result.Confidence)
	result.MatchedTerms = matched.terms

	return result
}

// normalize folds s for substring matching.
func normalize(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// contains reports whether the user term occurs in the already normalized text.
// Blank terms never match.
func contains(lowerText, term string) bool {
	n := normalize(strings.TrimSpace(term))
	if n == "" {
		return false
	}
	return strings.Contains(lowerText, n)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// termSet keeps first-seen order and drops case-insensitive duplicates.
type termSet struct {
	seen  map[string]struct{}
	terms []string
}

func newTermSet() *termSet {
	return &termSet{seen: make(map[string]struct{}), terms: []string{}}
}

func (s *termSet) add(term string) {
	key := normalize(term)
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.terms = append(s.terms, term)
}
