package llms

import (
	"slices"
	"testing"
)

func collectDelivered(s *Segmenter, fragments ...string) []string {
	var delivered []string
	for _, fragment := range fragments {
		if segment, flushed, deliver := s.Push(fragment); flushed && deliver {
			delivered = append(delivered, segment)
		}
	}
	return delivered
}

func TestSegmenterFlushesOnTerminatorFragments(t *testing.T) {
	delivered := collectDelivered(NewSegmenter(), "Hel", "lo", ".", "How", " are", " you", "?")

	if want := []string{"Hello.", "How are you?"}; !slices.Equal(delivered, want) {
		t.Fatalf("expected %q, got %q", want, delivered)
	}
}

func TestSegmenterIgnoresTerminatorsInsideLongerFragments(t *testing.T) {
	s := NewSegmenter()
	delivered := collectDelivered(s, "Once", " upon", " a", " time.")

	if len(delivered) != 0 {
		t.Fatalf("expected no flush for embedded terminator, got %q", delivered)
	}
	if segment, deliver := s.Flush(); segment != "Once upon a time." || !deliver {
		t.Fatalf("expected residual %q to be deliverable, got %q (deliver=%t)", "Once upon a time.", segment, deliver)
	}
	if pending := s.Pending(); pending != "" {
		t.Fatalf("expected accumulator to be empty after flush, got %q", pending)
	}
}

func TestSegmenterHandlesEveryTerminator(t *testing.T) {
	delivered := collectDelivered(NewSegmenter(), "One", ":", "Two", "!", "Three", "?", "Four", ".")

	if want := []string{"One:", "Two!", "Three?", "Four."}; !slices.Equal(delivered, want) {
		t.Fatalf("expected %q, got %q", want, delivered)
	}
}

func TestSegmenterGatesOutputUntilMarker(t *testing.T) {
	s := NewSegmenter(WithGatingMarker("</think>"))
	delivered := collectDelivered(s,
		"<think>", "Let", " me", " think", ".", " Hmm", "!",
		"</think>",
		"Once", " upon", " a", " time", ".",
	)

	if want := []string{"Once upon a time."}; !slices.Equal(delivered, want) {
		t.Fatalf("expected only post-marker text %q, got %q", want, delivered)
	}
}

func TestSegmenterStartsEmptyAfterMarker(t *testing.T) {
	s := NewSegmenter(WithGatingMarker("</think>"))
	collectDelivered(s, "reasoning", " left", " over", "\n</think>\n")

	if !s.IsOpen() {
		t.Fatalf("expected gate to open on marker fragment")
	}
	if pending := s.Pending(); pending != "" {
		t.Fatalf("expected empty accumulator after marker, got %q", pending)
	}
	if _, deliver := s.Flush(); deliver {
		t.Fatalf("expected nothing deliverable right after the marker")
	}
}

func TestSegmenterGatedResidualIsNotDeliverable(t *testing.T) {
	s := NewSegmenter(WithGatingMarker("</think>"))
	collectDelivered(s, "still", " thinking")

	if _, deliver := s.Flush(); deliver {
		t.Fatalf("expected gated residual to stay undelivered")
	}
}

func TestSegmenterCustomTerminators(t *testing.T) {
	delivered := collectDelivered(NewSegmenter(WithTerminators(";")), "a", ".", "b", ";")

	if want := []string{"a.b;"}; !slices.Equal(delivered, want) {
		t.Fatalf("expected %q, got %q", want, delivered)
	}
}
