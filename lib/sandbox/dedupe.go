// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import "golang.org/x/sync/singleflight"

// Dedup keys for the idempotent read operations that are collapsed.
// Lease creation has no key on purpose: every submit must produce
// exactly one request.
const (
	dedupKeyAuthStatus    = "auth-status"
	dedupKeyConfiguration = "configuration"
	dedupKeyLeases        = "leases"
	dedupKeyTemplate      = "lease-template:" // + template ID
)

// Deduplicator collapses concurrent calls that share a logical key
// into one in-flight operation. Late callers receive the same result
// (and the same error) as the caller that started the operation. The
// tracked entry is forgotten as soon as the operation settles, success
// or failure, so the next call starts fresh.
//
// Only idempotent reads are routed through here.
type Deduplicator struct {
	group singleflight.Group
}

// NewDeduplicator returns an empty Deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Do runs operation under key, collapsing concurrent duplicates. The
// result is not cached: singleflight drops the key the moment the
// operation settles, so a sequential re-call issues a fresh request.
func (d *Deduplicator) Do(key string, operation func() (any, error)) (any, error) {
	result, err, _ := d.group.Do(key, operation)
	return result, err
}

// dedupe is the typed convenience wrapper used by Client's read paths.
func dedupe[T any](d *Deduplicator, key string, operation func() (T, error)) (T, error) {
	result, err := d.Do(key, func() (any, error) {
		return operation()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}
