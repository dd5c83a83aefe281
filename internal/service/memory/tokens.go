package memory

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/carepath/memcore/internal/core"
)

// CharEstimator approximates token cost as len(text)/4. Not exact
// tokenization; the divisor tracks the observed average for English
// prose and is the documented reference heuristic.
type CharEstimator struct{}

func (CharEstimator) EstimateText(text string) int {
	return len(text) / 4
}

// TiktokenEstimator counts real BPE tokens (cl100k_base).
type TiktokenEstimator struct {
	enc *tiktoken.Tiktoken
}

var (
	tk     *tiktoken.Tiktoken
	tkOnce sync.Once
	tkErr  error
)

func NewTiktokenEstimator() (*TiktokenEstimator, error) {
	tkOnce.Do(func() {
		tk, tkErr = tiktoken.GetEncoding("cl100k_base")
	})
	if tkErr != nil {
		return nil, fmt.Errorf("load tiktoken encoding: %w", tkErr)
	}
	return &TiktokenEstimator{enc: tk}, nil
}

func (e *TiktokenEstimator) EstimateText(text string) int {
	return len(e.enc.Encode(text, nil, nil))
}

// NewEstimator selects a token estimation strategy by name.
func NewEstimator(name string) (core.TokenEstimator, error) {
	switch name {
	case "", "chars":
		return CharEstimator{}, nil
	case "tiktoken":
		return NewTiktokenEstimator()
	default:
		return nil, fmt.Errorf("unknown token estimator: %s", name)
	}
}
