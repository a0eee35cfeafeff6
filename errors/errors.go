// Package errors provides the error-kind taxonomy shared by every pipeline
// stage. Each stage raises a Kind-tagged error; callers branch on Kind rather
// than on string matching or stage-specific sentinel values.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error by the condition that produced it, independent of
// which stage raised it. Kinds are stable across stages so a caller can
// decide retry/fallback policy from the Kind alone.
type Kind string

const (
	// C1 Ingest
	MissingPayload       Kind = "missing_payload"
	EmptyBinaryPayload   Kind = "empty_binary_payload"
	InvalidUtf8          Kind = "invalid_utf8"
	InvalidMetadata      Kind = "invalid_metadata"
	PayloadTooLarge      Kind = "payload_too_large"
	EmptyNormalizedText  Kind = "empty_normalized_text"
	DocIdDerivationFailed Kind = "doc_id_derivation_failed"

	// C2 Canonical
	MissingDocId Kind = "missing_doc_id"
	EmptyInput   Kind = "empty_input"

	// C3 Perceptual
	NotEnoughTokens Kind = "not_enough_tokens"

	// C4 Semantic — ModelNotFound/TokenizerMissing are non-fatal: callers
	// catch them and fall back to the stub rather than propagating.
	ModelNotFound    Kind = "model_not_found"
	TokenizerMissing Kind = "tokenizer_missing"
	Download         Kind = "download"
	Io               Kind = "io"
	Inference        Kind = "inference"

	// C5 Index
	Backend     Kind = "backend"
	Encode      Kind = "encode"
	Decode      Kind = "decode"
	Compression Kind = "compression"

	// Shared across stages
	InvalidConfig Kind = "invalid_config"
)

// Error is a Kind-tagged error carrying the originating stage and the
// wrapped cause, if any.
type Error struct {
	Kind  Kind
	Stage string
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Stage, e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New constructs a Kind-tagged error with no wrapped cause.
func New(stage string, kind Kind, msg string) error {
	return &Error{Kind: kind, Stage: stage, Msg: msg}
}

// Wrap constructs a Kind-tagged error wrapping cause. Returns nil if cause is nil.
func Wrap(stage string, kind Kind, msg string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Stage: stage, Msg: msg, Cause: cause}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(stage string, kind Kind, cause error, format string, args ...interface{}) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Stage: stage, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err is a tagged *Error with the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, if tagged; ok is false otherwise.
func KindOf(err error) (kind Kind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Recoverable reports whether the error kind is one C4 silently recovers
// from (falls back to the deterministic stub) rather than failing the call.
func Recoverable(err error) bool {
	kind, ok := KindOf(err)
	if !ok {
		return false
	}
	return kind == ModelNotFound || kind == TokenizerMissing
}
