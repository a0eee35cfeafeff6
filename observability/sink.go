// Package observability defines the abstract event sink every pipeline
// stage emits structured trace events through. No sink implementation is
// part of the core pipeline; callers wire in whichever sink fits their
// deployment (zap-backed, no-op, or a test-capturing sink).
package observability

import "time"

// Event is the structured trace record every stage emits on success and on
// failure, per the (stage, status, latency, tenant, doc_id, hash, error_kind)
// contract.
type Event struct {
	Stage     string
	Status    string // "ok" or "error"
	Latency   time.Duration
	Tenant    string
	DocID     string
	Hash      string
	ErrorKind string
}

// Sink receives Events. Implementations must not block the caller for long;
// a slow sink should buffer or drop rather than stall the pipeline.
type Sink interface {
	Emit(Event)
}

// NoopSink discards every event. Used as the default when no sink is wired.
type NoopSink struct{}

func (NoopSink) Emit(Event) {}

// Ok builds a success Event for stage.
func Ok(stage, tenant, docID, hash string, latency time.Duration) Event {
	return Event{Stage: stage, Status: "ok", Latency: latency, Tenant: tenant, DocID: docID, Hash: hash}
}

// Err builds a failure Event for stage.
func Err(stage, tenant, docID string, latency time.Duration, errorKind string) Event {
	return Event{Stage: stage, Status: "error", Latency: latency, Tenant: tenant, DocID: docID, ErrorKind: errorKind}
}
