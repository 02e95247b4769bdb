// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// SessionStore is the single source of truth for the visitor's
// authentication state. Many independent UI fragments subscribe to it;
// the store has no knowledge of their rendering, it only reports
// transitions.
//
// The credential is held in memory and mirrored to a mode-0600 session
// file in the user's runtime directory — the portal's only durable
// state. The file is removed on logout and whenever any API call
// reports the credential invalid.
type SessionStore struct {
	mu         sync.Mutex
	session    *AuthSession
	listeners  map[int]func(authenticated bool)
	nextHandle int

	path   string
	logger *slog.Logger
}

// SessionFilePath returns the default session file location:
// $XDG_RUNTIME_DIR/sandbox-portal/session.json, falling back to the
// system temp directory when no runtime directory is set. Runtime
// directories are cleared at end of session, which matches the
// credential's intended lifetime.
func SessionFilePath() string {
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, "sandbox-portal", "session.json")
}

// NewSessionStore creates a SessionStore backed by the session file at
// path. An existing readable session file seeds the initial state; a
// missing or unreadable file means signed out. If logger is nil,
// slog.Default() is used.
func NewSessionStore(path string, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	store := &SessionStore{
		listeners: make(map[int]func(bool)),
		path:      path,
		logger:    logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("cannot read session file", "path", path, "error", err)
		}
		return store
	}
	var session AuthSession
	if err := json.Unmarshal(data, &session); err != nil || session.Token == "" {
		// A corrupt session file is equivalent to signed out. Remove
		// it so the next sign-in starts clean.
		logger.Warn("discarding unusable session file", "path", path)
		os.Remove(path)
		return store
	}
	store.session = &session
	return store
}

// IsAuthenticated reports whether a credential is currently held.
// Synchronous: it reflects local state, which a background Reconcile
// may later correct against server truth.
func (store *SessionStore) IsAuthenticated() bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.session != nil
}

// Current returns a copy of the held session, or nil when signed out.
func (store *SessionStore) Current() *AuthSession {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.session == nil {
		return nil
	}
	copied := *store.session
	copied.Roles = append([]string(nil), store.session.Roles...)
	return &copied
}

// Token returns the bearer credential, or "" when signed out. This is
// the Client's TokenSource.
func (store *SessionStore) Token() string {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.session == nil {
		return ""
	}
	return store.session.Token
}

// Subscribe registers a listener for authentication transitions. The
// listener is invoked immediately — synchronously, before Subscribe
// returns — with the current value, so dependents never observe an
// uninitialized window. It is invoked again on every transition.
// The returned function unsubscribes; it is safe to call more than
// once.
func (store *SessionStore) Subscribe(listener func(authenticated bool)) (unsubscribe func()) {
	store.mu.Lock()
	handle := store.nextHandle
	store.nextHandle++
	store.listeners[handle] = listener
	current := store.session != nil
	store.mu.Unlock()

	listener(current)

	return func() {
		store.mu.Lock()
		delete(store.listeners, handle)
		store.mu.Unlock()
	}
}

// SetSession installs a credential (the authentication callback path),
// persists it, and notifies listeners synchronously.
func (store *SessionStore) SetSession(session AuthSession) error {
	if session.Token == "" {
		return fmt.Errorf("sandbox: session token is required")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("sandbox: failed to encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(store.path), 0o700); err != nil {
		return fmt.Errorf("sandbox: failed to create session directory: %w", err)
	}
	if err := os.WriteFile(store.path, data, 0o600); err != nil {
		return fmt.Errorf("sandbox: failed to write session file: %w", err)
	}

	store.mu.Lock()
	wasAuthenticated := store.session != nil
	store.session = &session
	listeners := store.snapshotListenersLocked()
	store.mu.Unlock()

	store.logger.Info("session established", "email", session.Email)
	if !wasAuthenticated {
		notify(listeners, true)
	}
	return nil
}

// Logout clears the credential and the session file, then notifies
// listeners synchronously. Safe to call when already signed out (the
// uniform 401 path may race an explicit sign-out).
func (store *SessionStore) Logout() {
	store.mu.Lock()
	wasAuthenticated := store.session != nil
	store.session = nil
	listeners := store.snapshotListenersLocked()
	store.mu.Unlock()

	if err := os.Remove(store.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		store.logger.Warn("cannot remove session file", "path", store.path, "error", err)
	}

	if wasAuthenticated {
		store.logger.Info("session cleared")
		notify(listeners, false)
	}
}

// Reconcile checks the held credential against the server's
// authentication-status endpoint and folds server truth back into the
// local session (display name and roles can change between sign-ins).
// An UNAUTHORIZED result clears the session — via the Client's uniform
// hook — and is not reported as an error; a transient failure leaves
// local state untouched and is returned for logging.
func (store *SessionStore) Reconcile(ctx context.Context, client *Client) error {
	if !store.IsAuthenticated() {
		return nil
	}

	status, err := client.AuthStatus(ctx)
	if err != nil {
		if IsAPIError(err, ErrCodeUnauthorized) {
			return nil
		}
		return fmt.Errorf("sandbox: auth reconcile failed: %w", err)
	}

	store.mu.Lock()
	if store.session != nil {
		store.session.Email = status.Email
		store.session.DisplayName = status.DisplayName
		store.session.Roles = append([]string(nil), status.Roles...)
	}
	store.mu.Unlock()
	return nil
}

// snapshotListenersLocked copies the listener set so notification runs
// without holding the lock. Callers must hold store.mu.
func (store *SessionStore) snapshotListenersLocked() []func(bool) {
	listeners := make([]func(bool), 0, len(store.listeners))
	for _, listener := range store.listeners {
		listeners = append(listeners, listener)
	}
	return listeners
}

func notify(listeners []func(bool), authenticated bool) {
	for _, listener := range listeners {
		listener(authenticated)
	}
}
