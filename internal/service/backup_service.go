package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"lumiere/internal/database"
	"lumiere/internal/repository"
)

const backupVersion = "1.0"

var ErrInvalidBackup = errors.New("invalid backup")

// BackupData is the export file layout. Stats and chat history are kept as
// the raw stored JSON so a backup restores exactly what was saved.
type BackupData struct {
	Version      string          `json:"version"`
	ExportedAt   time.Time       `json:"exported_at"`
	DatabaseType string          `json:"database_type"`
	Stats        json.RawMessage `json:"stats,omitempty"`
	ChatHistory  json.RawMessage `json:"chat_history,omitempty"`
}

// BackupService exports and restores the learner's persisted documents
type BackupService struct {
	db *database.DB
}

func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes a backup to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}

	log.Printf("Database exported successfully to %s", outputPath)
	return nil
}

// ExportToWriter encodes a backup to w
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now(),
		DatabaseType: s.db.Dialect.Name(),
	}

	repo := repository.NewKVRepository(s.db)
	for _, doc := range []struct {
		key string
		dst *json.RawMessage
	}{
		{StatsKey, &backup.Stats},
		{ChatHistoryKey, &backup.ChatHistory},
	} {
		value, found, err := repo.GetValue(doc.key)
		if err != nil {
			return fmt.Errorf("failed to export %s: %w", doc.key, err)
		}
		if found && json.Valid([]byte(value)) {
			*doc.dst = json.RawMessage(value)
		} else if found {
			log.Printf("Skipping unreadable %s during export", doc.key)
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// Import restores a backup file. With clearExisting, documents missing from
// the backup are removed instead of kept.
func (s *BackupService) Import(inputPath string, clearExisting bool) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file, clearExisting)
}

// ImportFromReader restores a backup in a single transaction
func (s *BackupService) ImportFromReader(reader io.Reader, clearExisting bool) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if err := backup.validate(); err != nil {
		return err
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	docs := []struct {
		key   string
		value json.RawMessage
	}{
		{StatsKey, backup.Stats},
		{ChatHistoryKey, backup.ChatHistory},
	}
	err := s.db.InTx(func(tx *database.Tx) error {
		repo := repository.NewKVRepository(tx)
		for _, doc := range docs {
			if absent(doc.value) {
				if clearExisting {
					if err := repo.DeleteValue(doc.key); err != nil {
						return err
					}
				}
				continue
			}
			if err := repo.SetValue(doc.key, string(doc.value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to import backup: %w", err)
	}

	log.Println("Database import completed successfully")
	return nil
}

func (b *BackupData) validate() error {
	if b.Version == "" {
		return fmt.Errorf("%w: missing version", ErrInvalidBackup)
	}
	if !absent(b.Stats) {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(b.Stats, &obj); err != nil {
			return fmt.Errorf("%w: stats is not an object", ErrInvalidBackup)
		}
	}
	if !absent(b.ChatHistory) {
		var arr []json.RawMessage
		if err := json.Unmarshal(b.ChatHistory, &arr); err != nil {
			return fmt.Errorf("%w: chat_history is not an array", ErrInvalidBackup)
		}
	}
	return nil
}

func absent(doc json.RawMessage) bool {
	return len(doc) == 0 || string(doc) == "null"
}
