package llms

import (
	"errors"

	"github.com/koscakluka/ema-storyteller/core/conversations"
)

var (
	// ErrTransport reports that the backend could not be reached or refused
	// the request. It is surfaced once as an error chunk and never retried.
	ErrTransport = errors.New("llm transport failed")
	// ErrParse reports a malformed stream record. Such records are skipped.
	ErrParse = errors.New("llm stream record malformed")
	// ErrBackend reports an error field sent by the backend inside the stream.
	ErrBackend = errors.New("llm backend reported an error")
)

// ErrorChunkPrefix prefixes every error surfaced through the chunk callback.
const ErrorChunkPrefix = "Error: "

// StreamState is the lifecycle of a single streaming request.
type StreamState int32

const (
	StreamIdle StreamState = iota
	StreamRequesting
	StreamStreaming
	StreamDone
	StreamCancelled
	StreamFailed
)

func (s StreamState) String() string {
	switch s {
	case StreamIdle:
		return "idle"
	case StreamRequesting:
		return "requesting"
	case StreamStreaming:
		return "streaming"
	case StreamDone:
		return "done"
	case StreamCancelled:
		return "cancelled"
	case StreamFailed:
		return "failed"
	}
	return "unknown"
}

// Request is a prompt together with the conversation context it continues.
type Request struct {
	Prompt  string
	Context conversations.Context
}

// Outcome describes how a stream ended.
type Outcome struct {
	// Status is one of StreamDone, StreamCancelled or StreamFailed.
	Status StreamState
	// Context is the updated conversation context. It is only set when the
	// backend sent its done record.
	Context conversations.Context
	// Delivered holds every chunk handed to the chunk callback, in order.
	Delivered []string
	// Records counts the stream records that were processed.
	Records int
}

func (o Outcome) IsDone() bool { return o.Status == StreamDone }
