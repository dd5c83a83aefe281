package memory

import (
	"strings"

	"github.com/carepath/memcore/internal/core"
)

// Scoring weights. The additive sum without the question bonus never
// exceeds 0.95, so a question mark always raises the score strictly
// even after clamping at 1.0. An alert hit alone lands at 0.8, the
// bottom of the top band.
const (
	scoreBase      = 0.25
	lengthWeight   = 0.15
	lengthSaturate = 600 // characters at which the length signal maxes out
	questionBonus  = 0.10
	alertBonus     = 0.55
)

// alertVocabulary marks messages that carry safety-relevant content.
var alertVocabulary = []string{
	"allergy", "allergic", "allergies",
	"emergency", "urgent", "critical",
	"overdose", "bleeding", "reaction",
	"error", "failed", "failure", "warning",
}

type messageFeatures struct {
	length      int
	hasQuestion bool
	hasAlert    bool
}

func extractFeatures(text string) messageFeatures {
	lower := strings.ToLower(text)

	f := messageFeatures{
		length:      len(text),
		hasQuestion: strings.Contains(text, "?"),
	}

	for _, term := range alertVocabulary {
		if strings.Contains(lower, term) {
			f.hasAlert = true
			break
		}
	}

	return f
}

// Scorer rates message relevance on [0,1]. Pure: no I/O, no mutation
// of the message; the caller decides whether to persist the result.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

func (s *Scorer) Score(msg core.Message) float64 {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return core.DefaultMessageImportance
	}

	f := extractFeatures(text)

	score := scoreBase

	lengthRatio := float64(f.length) / lengthSaturate
	if lengthRatio > 1 {
		lengthRatio = 1
	}
	score += lengthWeight * lengthRatio

	if f.hasQuestion {
		score += questionBonus
	}
	if f.hasAlert {
		score += alertBonus
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// HasAlert reports whether the text contains alert vocabulary.
// Used by auto-pin detection on the summarization path.
func (s *Scorer) HasAlert(text string) bool {
	return extractFeatures(strings.TrimSpace(text)).hasAlert
}
