// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDedupeCollapsesConcurrentCalls(t *testing.T) {
	dedup := NewDeduplicator()

	var calls atomic.Int32
	release := make(chan struct{})

	operation := func() (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	const callers = 8
	results := make([]int, callers)
	errs := make([]error, callers)
	started := make(chan struct{}, callers)

	var group sync.WaitGroup
	for i := range callers {
		group.Add(1)
		go func() {
			defer group.Done()
			started <- struct{}{}
			results[i], errs[i] = dedupe(dedup, "k", operation)
		}()
	}

	// Wait for every caller goroutine to be scheduled, then give them
	// a beat to join the flight before letting the operation complete.
	for range callers {
		<-started
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	group.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("operation invoked %d times, want 1", got)
	}
	for i := range callers {
		if errs[i] != nil {
			t.Errorf("caller %d: unexpected error: %v", i, errs[i])
		}
		if results[i] != 42 {
			t.Errorf("caller %d: got %d, want 42", i, results[i])
		}
	}
}

func TestDedupeForgetsAfterSettle(t *testing.T) {
	dedup := NewDeduplicator()

	var calls atomic.Int32
	operation := func() (string, error) {
		calls.Add(1)
		return "fresh", nil
	}

	for range 3 {
		if _, err := dedupe(dedup, "k", operation); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 3 {
		t.Errorf("sequential calls invoked the operation %d times, want 3", got)
	}
}

func TestDedupeSharesFailure(t *testing.T) {
	dedup := NewDeduplicator()

	failure := errors.New("backend down")
	entered := make(chan struct{})
	release := make(chan struct{})
	operation := func() (int, error) {
		close(entered)
		<-release
		return 0, failure
	}

	var firstErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, firstErr = dedupe(dedup, "k", operation)
	}()

	// Join the in-flight call while the operation is blocked. The
	// fallback closure also fails, so the assertion below holds even
	// if scheduling lets this caller miss the flight.
	<-entered
	joinDone := make(chan error, 1)
	go func() {
		_, err := dedupe(dedup, "k", func() (int, error) {
			return 0, failure
		})
		joinDone <- err
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	<-done
	secondErr := <-joinDone

	if !errors.Is(firstErr, failure) {
		t.Errorf("first caller error = %v, want %v", firstErr, failure)
	}
	if !errors.Is(secondErr, failure) {
		t.Errorf("joined caller error = %v, want %v", secondErr, failure)
	}
	result, err := dedupe(dedup, "k", func() (int, error) { return 7, nil })
	if err != nil || result != 7 {
		t.Errorf("post-failure call: got (%d, %v), want (7, nil)", result, err)
	}
}
