package store

import (
	"path/filepath"
	"testing"
)

// createTestStore creates a new SQLite store in a temp directory.
func createTestStore(t *testing.T, opts ...SQLiteOption) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// backends returns one Model per backend for the same collection name,
// so behavioural tests can run against all of them.
func backends(t *testing.T, collection string) map[string]Model {
	t.Helper()
	return map[string]Model{
		"sqlite": createTestStore(t, WithSQLiteIDs(NewFixedGenerator())).Collection(collection),
		"memory": NewMemory(WithMemoryIDs(NewFixedGenerator())).Collection(collection),
	}
}
