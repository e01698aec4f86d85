package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Estimate is the default token counter: the ~4 chars/token heuristic, good
// enough for budget comparisons, not billing-accurate.
func Estimate(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}

// NewTiktokenCounter returns a counter backed by the model's real BPE
// vocabulary. It is considerably slower than Estimate, so callers normally
// wrap it in a token cache.
func NewTiktokenCounter(model string) (func(text string) int, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("tokens: encoding for model %q: %w", model, err)
	}
	return func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}, nil
}
