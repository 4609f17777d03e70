package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"lumiere/internal/database"
)

// KVRepository persists whole JSON documents under string keys.
type KVRepository struct {
	db database.DBTX
}

func NewKVRepository(db database.DBTX) *KVRepository {
	return &KVRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *KVRepository) WithTx(tx *database.Tx) *KVRepository {
	return &KVRepository{db: tx}
}

// GetValue retrieves a stored value by key. The bool is false when the key
// has never been written.
func (r *KVRepository) GetValue(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT storage_value FROM kv_store WHERE storage_key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// SetValue replaces the value stored under key
func (r *KVRepository) SetValue(key, value string) error {
	if _, err := r.db.Exec(r.db.GetDialect().UpsertKeyValueQuery(), key, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// DeleteValue removes a key. Deleting a missing key is not an error.
func (r *KVRepository) DeleteValue(key string) error {
	if _, err := r.db.Exec(`DELETE FROM kv_store WHERE storage_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
