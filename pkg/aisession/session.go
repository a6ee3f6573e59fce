// Package aisession manages realtime conversations with the speech model.
//
// A Session is a live duplex channel: callers stream PCM audio and text in,
// and consume model audio, tool calls, and turn boundaries from the Events
// iterator. The concrete transport is the Gemini Live API.
package aisession

import (
	"context"
	"iter"
)

// Session is one live model conversation.
//
// SendAudio, SendText and SendToolResult may be called from any goroutine.
// Events must be consumed from a single goroutine; the iterator ends when
// the session closes or fails.
type Session interface {
	// SendText submits a text turn and asks the model to respond.
	SendText(ctx context.Context, text string) error

	// SendAudio streams one PCM frame (16-bit little endian, 16 kHz mono).
	SendAudio(ctx context.Context, pcm []byte) error

	// SendToolResult answers a previously received tool call.
	SendToolResult(ctx context.Context, call *ToolCall, result string) error

	// Events yields server events in arrival order.
	Events() iter.Seq2[*Event, error]

	// Close terminates the conversation.
	Close() error
}

// Event is one server message, already flattened for consumption.
type Event struct {
	// Audio holds model speech as PCM (16-bit little endian, 24 kHz mono).
	Audio []byte

	// ToolCalls lists function invocations requested by the model.
	ToolCalls []*ToolCall

	// TurnComplete marks the end of a model turn.
	TurnComplete bool

	// Interrupted reports that the caller spoke over the model and
	// buffered playback should be discarded.
	Interrupted bool
}

// ToolCall is a function invocation requested by the model. Arguments is
// populated when the transport delivers structured arguments; Raw carries
// the argument payload verbatim when it arrives as text.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
	Raw       string
}

// Opener establishes sessions. It exists so call handling can be tested
// against a fake model.
type Opener interface {
	Connect(ctx context.Context, systemPrompt string) (Session, error)
}
