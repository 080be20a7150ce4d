package orchestration

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

func TestTextBufferYieldsChunksUntilComplete(t *testing.T) {
	buffer := newTextBuffer()
	buffer.AddChunk("Once upon a time.")

	received := make(chan []string, 1)
	go func() {
		var chunks []string
		for chunk := range buffer.Chunks(context.Background()) {
			chunks = append(chunks, chunk)
		}
		received <- chunks
	}()

	buffer.AddChunk("The end.")
	buffer.TextComplete()
	buffer.AddChunk("ignored")

	select {
	case chunks := <-received:
		if want := []string{"Once upon a time.", "The end."}; !slices.Equal(chunks, want) {
			t.Fatalf("expected %q, got %q", want, chunks)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for chunks")
	}
}

func TestTextBufferClearStopsConsumer(t *testing.T) {
	buffer := newTextBuffer()

	done := make(chan int, 1)
	go func() {
		count := 0
		for range buffer.Chunks(context.Background()) {
			count++
		}
		done <- count
	}()

	buffer.Clear()
	buffer.AddChunk("late")

	select {
	case count := <-done:
		if count != 0 {
			t.Fatalf("expected no chunks after clear, got %d", count)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for consumer to stop")
	}
}

func TestTextBufferStopsOnContextDone(t *testing.T) {
	buffer := newTextBuffer()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		for range buffer.Chunks(ctx) {
		}
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for consumer to stop")
	}
}

func TestTurnCompletesOnlyWhenResponseAndImageFinish(t *testing.T) {
	turn := newTurn(context.Background(), 1, TurnCapturing)
	if !turn.dispatch("hello") {
		t.Fatalf("expected dispatch to succeed")
	}
	if turn.dispatch("again") {
		t.Fatalf("expected transcript to be immutable once dispatched")
	}

	if turn.finishResponse() {
		t.Fatalf("expected turn to wait for the image")
	}
	if !turn.finishImage() {
		t.Fatalf("expected turn to complete")
	}
	if turn.Status() != TurnCompleted {
		t.Fatalf("expected completed, got %s", turn.Status())
	}
	if turn.fail(errors.New("late")) {
		t.Fatalf("expected completed turn to stay completed")
	}
	if turn.supersede() {
		t.Fatalf("expected completed turn not to be superseded")
	}
}

func TestSupersedeCancelsTurn(t *testing.T) {
	turn := newTurn(context.Background(), 1, TurnDispatched)
	turn.appendResponse("Once")
	turn.appendResponse(" upon.")

	if !turn.supersede() {
		t.Fatalf("expected live turn to be superseded")
	}
	if turn.ctx.Err() == nil {
		t.Fatalf("expected turn context to be cancelled")
	}

	snapshot := turn.snapshot()
	if snapshot.Status != TurnSuperseded {
		t.Fatalf("expected superseded, got %s", snapshot.Status)
	}
	if snapshot.Response != "Once upon." {
		t.Fatalf("expected joined response, got %q", snapshot.Response)
	}
}
