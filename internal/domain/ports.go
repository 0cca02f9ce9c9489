package domain

import (
	"context"
	"time"
)

// LLMClient defines how the core application talks to the language model.
type LLMClient interface {
	// GenerateReply produces the assistant's answer for one turn.
	GenerateReply(ctx context.Context, utterance string, convCtx ConversationContext) (string, error)

	// ClassifyIntent labels the caller's utterance. Implementations return a
	// value from the closed intent set.
	ClassifyIntent(ctx context.Context, utterance string) (Intent, error)

	// Summarize condenses a call transcript into a few sentences.
	Summarize(ctx context.Context, transcript string) (string, error)
}

// ConversationContext gives the LLM a bounded view of the conversation.
type ConversationContext struct {
	CallID        CallID
	DomainContext string // static knowledge snapshot supplied at call start
	History       []Turn // last N turns only, never the full history
}

// KnowledgeBase answers questions from static district knowledge before the
// model is consulted.
type KnowledgeBase interface {
	// Answer returns a canned answer and true when the query matches
	// confidently enough to skip generation.
	Answer(query string) (string, bool)

	// Snapshot is the context blob handed to generation at call start.
	Snapshot() string

	// Ready reports whether the knowledge base loaded.
	Ready() bool
}

// SessionStore persists call sessions keyed by call SID with expiry.
// Implementations replace whole records (last writer wins); callers must
// never mutate a stored session in place.
type SessionStore interface {
	Put(ctx context.Context, session *CallSession, ttl time.Duration) error
	Get(ctx context.Context, id CallID) (*CallSession, error)
	Delete(ctx context.Context, id CallID) error
	Touch(ctx context.Context, id CallID, ttl time.Duration) error

	// Active lists every stored session, TTL-lapsed ones included, so the
	// expiry sweep can finalize them. Get is where expiry hides a record.
	Active(ctx context.Context) ([]*CallSession, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	Close() error
}
