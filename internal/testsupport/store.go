package testsupport

import (
	"context"
	"testing"

	"missive/internal/config"
	"missive/internal/passcode"
	"missive/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// MustCreateNewsletter registers a newsletter with a hashed passcode for tests.
func MustCreateNewsletter(t testing.TB, st *store.Store, title, code, folder string) *store.Newsletter {
	t.Helper()

	hash, err := passcode.Hash(code)
	if err != nil {
		t.Fatalf("passcode.Hash: %v", err)
	}
	n, err := st.CreateNewsletter(context.Background(), title, hash, folder)
	if err != nil {
		t.Fatalf("store.CreateNewsletter: %v", err)
	}
	return n
}
