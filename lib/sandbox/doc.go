// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sandbox provides the client-side core of the sandbox portal:
// typed operations against the remote provisioning API, the visitor
// session store, and request deduplication.
//
// The API client (Client) covers the five remote operations the portal
// needs: authentication status, lease-template detail, portal
// configuration (including the Acceptable Use Policy text), the
// visitor's lease list, and lease creation. Idempotent reads are
// collapsed through a Deduplicator so concurrent callers share one
// in-flight request; lease creation deliberately is not, so every
// submit produces exactly one request.
//
// SessionStore is the single source of truth for "is this visitor
// signed in". UI components subscribe to it and render independently;
// the store knows nothing about its subscribers. Any API call that
// comes back unauthorized clears the session uniformly, regardless of
// which caller issued it.
package sandbox
