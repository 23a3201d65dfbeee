// Package dbtest opens throwaway SQLite mirror stores for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"granito/internal/database"
)

// New returns a migrated store backed by a file in the test's temp dir.
func New(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New("sqlite://"+filepath.Join(t.TempDir(), "test.db"), false)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}
