package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mindmeet/mindmeet/internal/domain"
	"github.com/mindmeet/mindmeet/internal/repository/sqlite"
)

// Verify that *sqlite.DB implements domain.Store at compile time.
var _ domain.Store = (*sqlite.DB)(nil)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file was not created")
	}

	var fkEnabled int
	if err := db.SqlDB.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		t.Fatalf("check foreign_keys: %v", err)
	}
	if fkEnabled != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fkEnabled)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate (idempotent): %v", err)
	}

	var count int
	if err := db.SqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 migration records, got %d", count)
	}
}

func TestFileStore_SaveGetDelete(t *testing.T) {
	db := newTestDB(t)
	files := db.FileStore()
	ctx := context.Background()

	if err := files.Save(ctx, "recordings/a.mp4", []byte("abc")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := files.Get(ctx, "recordings/a.mp4")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "abc" {
		t.Fatalf("expected abc, got %q", data)
	}

	if err := files.Delete(ctx, "recordings/a.mp4"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := files.Get(ctx, "recordings/a.mp4"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
