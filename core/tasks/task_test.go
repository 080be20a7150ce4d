package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStartDeliversCurrentResultOnce(t *testing.T) {
	results := make(chan Result[string, string], 4)
	task := New("echo",
		func(_ context.Context, input string, _ Token) (string, error) { return input + "!", nil },
		func(result Result[string, string]) { results <- result },
	)

	token := task.Start(context.Background(), "hello")
	task.Wait()

	select {
	case result := <-results:
		if result.Token != token {
			t.Fatalf("expected result token %d, got %d", token, result.Token)
		}
		if result.Value != "hello!" || result.Err != nil {
			t.Fatalf("expected value %q without error, got %q, %v", "hello!", result.Value, result.Err)
		}
	default:
		t.Fatalf("expected a delivered result")
	}

	if len(results) != 0 {
		t.Fatalf("expected exactly one delivery, got %d more", len(results))
	}
	if current := task.Current(); current != NoToken {
		t.Fatalf("expected current token to be cleared after delivery, got %d", current)
	}
}

func TestSupersededResultsAreDiscarded(t *testing.T) {
	release := make(chan struct{})
	var delivered []string
	var deliveredMu sync.Mutex

	task := New("slow",
		func(_ context.Context, input string, _ Token) (string, error) {
			<-release
			return input, nil
		},
		func(result Result[string, string]) {
			deliveredMu.Lock()
			delivered = append(delivered, result.Value)
			deliveredMu.Unlock()
		},
		WithMaxInFlight(3),
	)

	first := task.Start(context.Background(), "first")
	second := task.Start(context.Background(), "second")
	third := task.Start(context.Background(), "third")
	if !(first < second && second < third) {
		t.Fatalf("expected monotonically increasing tokens, got %d, %d, %d", first, second, third)
	}

	close(release)
	task.Wait()

	deliveredMu.Lock()
	defer deliveredMu.Unlock()
	if len(delivered) != 1 || delivered[0] != "third" {
		t.Fatalf("expected only the latest result to be delivered, got %v", delivered)
	}
}

func TestStartCancelsPreviousRunContext(t *testing.T) {
	cancelled := make(chan struct{}, 1)
	task := New("cooperative",
		func(ctx context.Context, input string, _ Token) (string, error) {
			if input == "first" {
				<-ctx.Done()
				cancelled <- struct{}{}
				return "", ctx.Err()
			}
			return input, nil
		},
		nil,
	)

	task.Start(context.Background(), "first")
	waitForCondition(t, time.Second, "first run to start", func() bool { return task.InFlight() == 1 })
	task.Start(context.Background(), "second")

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the superseded run to observe cancellation")
	}
	task.Wait()
}

func TestCancelCurrentDiscardsInFlightResult(t *testing.T) {
	var deliveries atomic.Int32
	task := New("cancellable",
		func(ctx context.Context, _ struct{}, token Token) (int, error) {
			<-ctx.Done()
			return int(token), nil
		},
		func(Result[struct{}, int]) { deliveries.Add(1) },
	)

	token := task.Start(context.Background(), struct{}{})
	task.CancelCurrent()

	if task.IsCurrent(token) {
		t.Fatalf("expected token %d to stop being current after cancellation", token)
	}
	if current := task.Current(); current == NoToken || current == token {
		t.Fatalf("expected current token to advance past %d, got %d", token, current)
	}

	task.Wait()
	if got := deliveries.Load(); got != 0 {
		t.Fatalf("expected cancelled run to deliver nothing, got %d deliveries", got)
	}
}

func TestFailuresAreDeliveredAsResults(t *testing.T) {
	errBackend := errors.New("backend down")
	results := make(chan Result[string, string], 1)
	task := New("failing",
		func(context.Context, string, Token) (string, error) { return "", errBackend },
		func(result Result[string, string]) { results <- result },
	)

	task.Start(context.Background(), "input")
	task.Wait()

	result := <-results
	if !errors.Is(result.Err, errBackend) {
		t.Fatalf("expected wrapped backend error, got %v", result.Err)
	}
	if !strings.Contains(result.Err.Error(), "failing task failed") {
		t.Fatalf("expected error to name the task kind, got %q", result.Err.Error())
	}
}

func TestPanicsAreDeliveredAsFailures(t *testing.T) {
	results := make(chan Result[string, string], 1)
	task := New("panicking",
		func(context.Context, string, Token) (string, error) { panic("boom") },
		func(result Result[string, string]) { results <- result },
	)

	task.Start(context.Background(), "input")
	task.Wait()

	result := <-results
	if result.Err == nil || !strings.Contains(result.Err.Error(), "panicked: boom") {
		t.Fatalf("expected panic to be converted into an error, got %v", result.Err)
	}
	if result.Input != "input" {
		t.Fatalf("expected failed result to carry its input, got %q", result.Input)
	}
}

func TestCompletionDoesNotClobberNewerToken(t *testing.T) {
	var task *Task[string, string]
	var secondToken atomic.Uint64
	secondStarted := make(chan struct{})
	releaseSecond := make(chan struct{})

	task = New("chained",
		func(_ context.Context, input string, _ Token) (string, error) {
			if input == "second" {
				close(secondStarted)
				<-releaseSecond
			}
			return input, nil
		},
		func(result Result[string, string]) {
			if result.Value == "first" {
				secondToken.Store(uint64(task.Start(context.Background(), "second")))
			}
		},
		WithMaxInFlight(1),
	)

	task.Start(context.Background(), "first")

	select {
	case <-secondStarted:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the second run")
	}

	if current, want := task.Current(), Token(secondToken.Load()); current != want {
		t.Fatalf("expected current token %d to survive the first completion, got %d", want, current)
	}

	close(releaseSecond)
	task.Wait()
}

func TestMaxInFlightBoundsConcurrentRuns(t *testing.T) {
	var running, maxRunning atomic.Int32
	task := New("bounded",
		func(ctx context.Context, _ int, _ Token) (int, error) {
			now := running.Add(1)
			defer running.Add(-1)
			for {
				peak := maxRunning.Load()
				if now <= peak || maxRunning.CompareAndSwap(peak, now) {
					break
				}
			}
			select {
			case <-ctx.Done():
			case <-time.After(20 * time.Millisecond):
			}
			return 0, nil
		},
		nil,
		WithMaxInFlight(1),
	)

	for i := range 5 {
		task.Start(context.Background(), i)
	}
	task.Wait()

	if peak := maxRunning.Load(); peak > 1 {
		t.Fatalf("expected at most 1 concurrent run, got %d", peak)
	}
}

func waitForCondition(t *testing.T, timeout time.Duration, description string, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("timed out waiting for %s", description)
}
