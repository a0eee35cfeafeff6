package semantic

import (
	"context"
	"strings"
)

// TrimToBudget trims text so that its token count (per tokenizer) stays at
// or below softLimit, targeting approximately target tokens. Mirrors the
// teacher's ensureEmbeddingTokenLimit: count tokens, and if over the soft
// limit, truncate by the rune-length ratio implied by target/count rather
// than re-tokenizing repeatedly.
func TrimToBudget(ctx context.Context, tokenizer Tokenizer, text string, softLimit, target int) (string, error) {
	if softLimit <= 0 || tokenizer == nil {
		return text, nil
	}
	count, err := tokenizer.CountTokens(text)
	if err != nil {
		return text, err
	}
	if count <= softLimit {
		return text, nil
	}
	if target <= 0 || target >= count {
		return text, nil
	}

	runes := []rune(text)
	ratio := float64(target) / float64(count)
	keep := int(float64(len(runes)) * ratio)
	if keep < 1 {
		keep = 1
	}
	if keep > len(runes) {
		keep = len(runes)
	}
	trimmed := strings.TrimSpace(string(runes[:keep]))
	return trimmed, nil
}
