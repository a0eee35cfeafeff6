package semantic

import (
	"github.com/jdkato/prose/v2"
)

// Tokenizer counts and splits tokens for pre-chunk budgeting. Model-specific
// tokenizers (wordpiece/BPE) are supplied externally via OnnxRunner; this
// package only needs a rough, fast token count for the chunk/trim decisions
// below, for which prose/v2's tokenizer (already a teacher dependency) is
// an idiomatic default.
type Tokenizer interface {
	CountTokens(text string) (int, error)
	Tokens(text string) ([]string, error)
}

// proseTokenizer is the default fallback tokenizer used when no
// model-specific tokenizer is configured.
type proseTokenizer struct{}

// DefaultTokenizer returns the prose/v2-backed fallback tokenizer.
func DefaultTokenizer() Tokenizer { return proseTokenizer{} }

func (proseTokenizer) Tokens(text string) ([]string, error) {
	doc, err := prose.NewDocument(text, prose.WithExtraction(false), prose.WithTagging(false))
	if err != nil {
		return nil, err
	}
	toks := doc.Tokens()
	out := make([]string, len(toks))
	for i, tok := range toks {
		out[i] = tok.Text
	}
	return out, nil
}

func (p proseTokenizer) CountTokens(text string) (int, error) {
	toks, err := p.Tokens(text)
	if err != nil {
		return 0, err
	}
	return len(toks), nil
}
