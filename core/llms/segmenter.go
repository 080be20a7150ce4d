package llms

import (
	"context"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DefaultTerminators are the fragments that close a speakable segment.
var DefaultTerminators = []string{".", ":", "!", "?"}

// Segmenter accumulates streamed fragments and turns them into speakable
// segments.
//
// A segment is flushed only when a fragment is exactly one of the
// terminators; terminators embedded in longer fragments do not flush. When a
// gating marker is configured, everything up to and including the fragment
// containing the marker is consumed without being delivered.
//
// Segmenter is not safe for concurrent use; a stream owns its own instance.
type Segmenter struct {
	terminators []string
	marker      string

	open        bool
	accumulator strings.Builder
}

type SegmenterOption func(*Segmenter)

func WithTerminators(terminators ...string) SegmenterOption {
	return func(s *Segmenter) {
		s.terminators = slices.Clone(terminators)
	}
}

// WithGatingMarker holds back all output until a fragment contains marker.
// An empty marker leaves the output ungated.
func WithGatingMarker(marker string) SegmenterOption {
	return func(s *Segmenter) {
		s.marker = marker
	}
}

func NewSegmenter(opts ...SegmenterOption) *Segmenter {
	s := &Segmenter{terminators: DefaultTerminators}
	for _, opt := range opts {
		opt(s)
	}
	s.open = s.marker == ""
	return s
}

// Push appends a fragment. It returns the flushed segment and whether it may
// be delivered. A flushed segment that is still gated is returned with
// deliver set to false and must be dropped by the caller.
func (s *Segmenter) Push(fragment string) (segment string, flushed bool, deliver bool) {
	s.accumulator.WriteString(fragment)

	if slices.Contains(s.terminators, fragment) {
		segment, flushed, deliver = s.accumulator.String(), true, s.open
		s.accumulator.Reset()
		segmentsFlushed.Add(context.Background(), 1, metric.WithAttributes(attribute.Bool("delivered", deliver)))
	}

	if s.marker != "" && strings.Contains(fragment, s.marker) {
		s.open = true
		s.accumulator.Reset()
	}

	return segment, flushed, deliver
}

// Flush returns whatever is left in the accumulator and resets it.
func (s *Segmenter) Flush() (segment string, deliver bool) {
	segment = s.accumulator.String()
	s.accumulator.Reset()
	return segment, s.open && segment != ""
}

// Reset drops the accumulator, used when a stream is superseded.
func (s *Segmenter) Reset() { s.accumulator.Reset() }

// IsOpen reports whether flushed segments are currently delivered.
func (s *Segmenter) IsOpen() bool { return s.open }

// Pending reports the text accumulated since the last flush.
func (s *Segmenter) Pending() string { return s.accumulator.String() }
