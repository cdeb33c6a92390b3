// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// Env is a temporary vault with its link index.
type Env struct {
	Root  string
	Store storage.Provider
	DB    *index.DB
}

// NewEnv creates an empty vault and index.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	root, store := TestVault(t)
	return &Env{Root: root, Store: store, DB: TestDB(t)}
}

// WriteNote writes a note into the vault and indexes it, as the watcher
// would after the vault settles.
func (e *Env) WriteNote(t *testing.T, path, content string) {
	t.Helper()
	if err := e.Store.Write(path, []byte(content)); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := index.IndexFile(e.DB, path, []byte(content)); err != nil {
		t.Fatalf("index %s: %v", path, err)
	}
}
