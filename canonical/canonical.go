// Package canonical implements C2: Unicode canonicalization, whitespace
// collapsing, tokenization with byte offsets, and the identity hash.
package canonical

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"unicode"

	cferrors "contentfp/errors"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const stage = "canonical"

// Config mirrors config.CanonicalConfig to keep this package free of a
// dependency on the config package (the pipeline stages are configured by
// plain value structs; wiring to viper happens one layer up).
type Config struct {
	Version          int
	NormalizeUnicode bool
	StripPunctuation bool
	Lowercase        bool
}

// Token is a maximal non-delimiter run in the canonical text, with byte
// offsets into CanonicalText.
type Token struct {
	Text  string
	Start int
	End   int
}

// Document is the C2 output.
type Document struct {
	DocID         string
	CanonicalText string
	Tokens        []Token
	TokenHashes   [][32]byte
	IdentityHash  string
	Version       int
	Config        Config
}

var lowerCaser = cases.Lower(language.Und)

// Canonicalize runs the C2 pipeline over text for docID under cfg.
func Canonicalize(docID, text string, cfg Config) (*Document, error) {
	if cfg.Version <= 0 {
		return nil, cferrors.New(stage, cferrors.InvalidConfig, "version must be > 0")
	}
	if docID == "" {
		return nil, cferrors.New(stage, cferrors.MissingDocId, "doc id is required")
	}

	if cfg.NormalizeUnicode {
		text = norm.NFKC.String(text)
	}
	if cfg.Lowercase {
		text = lowerCaser.String(text)
	}

	canonicalText, tokens := collapseAndTokenize(text, cfg.StripPunctuation)
	if canonicalText == "" {
		return nil, cferrors.New(stage, cferrors.EmptyInput, "canonical text is empty after normalization")
	}

	versionBE := make([]byte, 4)
	binary.BigEndian.PutUint32(versionBE, uint32(cfg.Version))

	identity := sha256.New()
	identity.Write(versionBE)
	identity.Write([]byte{0x00})
	identity.Write([]byte(canonicalText))
	identityHash := hex.EncodeToString(identity.Sum(nil))

	tokenHashes := make([][32]byte, len(tokens))
	for i, tok := range tokens {
		h := sha256.New()
		h.Write(versionBE)
		h.Write([]byte{0x01})
		h.Write([]byte(tok.Text))
		var sum [32]byte
		copy(sum[:], h.Sum(nil))
		tokenHashes[i] = sum
	}

	return &Document{
		DocID:         docID,
		CanonicalText: canonicalText,
		Tokens:        tokens,
		TokenHashes:   tokenHashes,
		IdentityHash:  identityHash,
		Version:       cfg.Version,
		Config:        cfg,
	}, nil
}

// collapseAndTokenize walks code points emitting a single ASCII space between
// maximal non-delimiter runs, recording byte offsets of each run in the
// output string as it is built.
func collapseAndTokenize(text string, stripPunctuation bool) (string, []Token) {
	var out strings.Builder
	out.Grow(len(text))

	var tokens []Token
	pendingDelimiter := false
	atStart := true
	tokenStart := -1

	isDelimiter := func(r rune) bool {
		if unicode.IsSpace(r) {
			return true
		}
		if stripPunctuation && unicode.IsPunct(r) {
			return true
		}
		return false
	}

	flushToken := func() {
		if tokenStart >= 0 {
			tokens = append(tokens, Token{
				Text:  out.String()[tokenStart:out.Len()],
				Start: tokenStart,
				End:   out.Len(),
			})
			tokenStart = -1
		}
	}

	for _, r := range text {
		if isDelimiter(r) {
			flushToken()
			if !atStart {
				pendingDelimiter = true
			}
			continue
		}
		if pendingDelimiter {
			out.WriteByte(' ')
			pendingDelimiter = false
		}
		if tokenStart < 0 {
			tokenStart = out.Len()
		}
		out.WriteRune(r)
		atStart = false
	}
	flushToken()

	// pendingDelimiter is only ever materialized into a space lazily, right
	// before the next non-delimiter rune; a trailing delimiter run therefore
	// never reaches out, so no explicit trim is needed here.
	return out.String(), tokens
}
