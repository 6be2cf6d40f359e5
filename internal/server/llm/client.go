// Package llm abstracts the hosted completion engine behind a small client
// interface so handlers and services do not depend on a concrete provider.
package llm

import "context"

// Message is one turn of the conversation sent to the engine.
type Message struct {
	Role    string
	Content string
}

// Chunk is one increment of a streamed response. A non-nil Err means the
// stream terminated abnormally; no further chunks follow it.
type Chunk struct {
	Content string
	Err     error
}

// Client generates conversational replies from a message history.
//
// Stream returns a channel of ordered chunks. The channel is closed after
// the final chunk once the engine signals completion, or after a chunk
// carrying Err if the stream fails mid-flight. Cancelling ctx aborts the
// stream.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Stream(ctx context.Context, messages []Message) (<-chan Chunk, error)
}
