package repository

import (
	"path/filepath"
	"testing"

	"lumiere/internal/database"
	"lumiere/migrations"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(migrations.FS); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	return db
}

func TestKVRepositoryRoundTrip(t *testing.T) {
	repo := NewKVRepository(setupTestDB(t))

	if _, ok, err := repo.GetValue("lumiere_user_stats"); err != nil || ok {
		t.Fatalf("GetValue() on empty store = ok %v, err %v", ok, err)
	}

	if err := repo.SetValue("lumiere_user_stats", `{"streak":1}`); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	if err := repo.SetValue("lumiere_user_stats", `{"streak":2}`); err != nil {
		t.Fatalf("SetValue() overwrite error = %v", err)
	}

	got, ok, err := repo.GetValue("lumiere_user_stats")
	if err != nil || !ok {
		t.Fatalf("GetValue() = ok %v, err %v", ok, err)
	}
	if got != `{"streak":2}` {
		t.Errorf("GetValue() = %q, want overwritten value", got)
	}

	if err := repo.DeleteValue("lumiere_user_stats"); err != nil {
		t.Fatalf("DeleteValue() error = %v", err)
	}
	if _, ok, _ := repo.GetValue("lumiere_user_stats"); ok {
		t.Error("value should be gone after DeleteValue()")
	}
	if err := repo.DeleteValue("never_written"); err != nil {
		t.Errorf("DeleteValue() on missing key error = %v", err)
	}
}

func TestKVRepositoryWithTxRollback(t *testing.T) {
	db := setupTestDB(t)
	repo := NewKVRepository(db)

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := repo.WithTx(tx).SetValue("lumiere_chat_history", "[]"); err != nil {
		t.Fatalf("SetValue() in tx error = %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	if _, ok, _ := repo.GetValue("lumiere_chat_history"); ok {
		t.Error("rolled back write should not be visible")
	}
}
