// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *SessionStore {
	t.Helper()
	return NewSessionStore(filepath.Join(t.TempDir(), "session.json"), testLogger(t))
}

func TestSubscribeFiresImmediatelyWithCurrentValue(t *testing.T) {
	store := testStore(t)

	var observed []bool
	unsubscribe := store.Subscribe(func(authenticated bool) {
		observed = append(observed, authenticated)
	})
	defer unsubscribe()

	if len(observed) != 1 || observed[0] != false {
		t.Fatalf("observed %v after subscribe, want [false]", observed)
	}

	if err := store.SetSession(AuthSession{Token: "tok", Email: "visitor@example.gov"}); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	if len(observed) != 2 || observed[1] != true {
		t.Fatalf("observed %v after sign-in, want [false true]", observed)
	}

	store.Logout()
	if len(observed) != 3 || observed[2] != false {
		t.Fatalf("observed %v after logout, want [false true false]", observed)
	}
}

func TestSubscribeImmediateValueReflectsHeldSession(t *testing.T) {
	store := testStore(t)
	if err := store.SetSession(AuthSession{Token: "tok"}); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	var observed []bool
	unsubscribe := store.Subscribe(func(authenticated bool) {
		observed = append(observed, authenticated)
	})
	defer unsubscribe()

	if len(observed) != 1 || observed[0] != true {
		t.Fatalf("observed %v, want [true]", observed)
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	store := testStore(t)

	calls := 0
	unsubscribe := store.Subscribe(func(bool) { calls++ })
	unsubscribe()
	unsubscribe() // second call is a no-op

	if err := store.SetSession(AuthSession{Token: "tok"}); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	if calls != 1 {
		t.Errorf("listener called %d times, want 1 (the immediate call only)", calls)
	}
}

func TestSessionSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	logger := testLogger(t)

	first := NewSessionStore(path, logger)
	session := AuthSession{
		Token:       "tok",
		Email:       "visitor@example.gov",
		DisplayName: "Visitor",
		Roles:       []string{"User"},
	}
	if err := first.SetSession(session); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("session file not written: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("session file mode = %o, want 600", mode)
	}

	second := NewSessionStore(path, logger)
	if !second.IsAuthenticated() {
		t.Fatal("reloaded store is not authenticated")
	}
	current := second.Current()
	if current.Email != session.Email || current.DisplayName != session.DisplayName {
		t.Errorf("reloaded session = %+v, want %+v", current, session)
	}
}

func TestLogoutRemovesSessionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewSessionStore(path, testLogger(t))
	if err := store.SetSession(AuthSession{Token: "tok"}); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	store.Logout()

	if store.IsAuthenticated() {
		t.Error("store still authenticated after logout")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("session file still present after logout (stat err: %v)", err)
	}
}

func TestCorruptSessionFileMeansSignedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewSessionStore(path, testLogger(t))
	if store.IsAuthenticated() {
		t.Error("corrupt session file treated as authenticated")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt session file should be removed")
	}
}

func TestReconcileClearsRevokedCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"token expired"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	store := testStore(t)
	if err := store.SetSession(AuthSession{Token: "stale"}); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	client, err := NewClient(ClientConfig{
		BaseURL:        server.URL,
		Logger:         testLogger(t),
		TokenSource:    store.Token,
		OnUnauthorized: store.Logout,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	transitions := 0
	unsubscribe := store.Subscribe(func(authenticated bool) {
		if !authenticated {
			transitions++
		}
	})
	defer unsubscribe()
	transitions = 0 // ignore the immediate call

	if err := store.Reconcile(context.Background(), client); err != nil {
		t.Fatalf("Reconcile reported revocation as an error: %v", err)
	}
	if store.IsAuthenticated() {
		t.Error("revoked credential still held after reconcile")
	}
	if transitions != 1 {
		t.Errorf("listener saw %d sign-out transitions, want 1", transitions)
	}
}

func TestReconcileFoldsInServerIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(AuthStatusResponse{
			Email:       "visitor@example.gov",
			DisplayName: "Renamed Visitor",
			Roles:       []string{"User", "Admin"},
		})
	}))
	defer server.Close()

	store := testStore(t)
	if err := store.SetSession(AuthSession{Token: "tok", DisplayName: "Old Name"}); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	client, err := NewClient(ClientConfig{
		BaseURL:     server.URL,
		Logger:      testLogger(t),
		TokenSource: store.Token,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if err := store.Reconcile(context.Background(), client); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	current := store.Current()
	if current.DisplayName != "Renamed Visitor" {
		t.Errorf("DisplayName = %q, want server truth", current.DisplayName)
	}
	if len(current.Roles) != 2 {
		t.Errorf("Roles = %v, want both server roles", current.Roles)
	}
}
