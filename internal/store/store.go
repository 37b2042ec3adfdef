package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"timerdeck/internal/history"
	"timerdeck/internal/record"

	_ "modernc.org/sqlite"
)

const (
	KeyTimers  = "timers"
	KeyHistory = "history"
)

// Repository is a key-value store of JSON documents backed by SQLite.
type Repository struct {
	db *sql.DB
	// serializes read-modify-write of list documents
	mu sync.Mutex
}

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	repo := &Repository{db: db}
	if err := repo.init(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *Repository) init() error {
	kvQuery := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)
	`
	_, err := r.db.Exec(kvQuery)
	return err
}

// Get decodes the value under key into v. It reports false if the key is absent.
func (r *Repository) Get(key string, v any) (bool, error) {
	var raw string
	err := r.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores v as JSON under key.
func (r *Repository) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = r.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, string(raw),
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (r *Repository) LoadAll() ([]record.Record, error) {
	records := []record.Record{}
	if _, err := r.Get(KeyTimers, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Repository) Save(records []record.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if records == nil {
		records = []record.Record{}
	}
	return r.Set(KeyTimers, records)
}

func (r *Repository) Add(rec record.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.LoadAll()
	if err != nil {
		return err
	}
	records = append(records, rec)
	return r.Set(KeyTimers, records)
}

func (r *Repository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.LoadAll()
	if err != nil {
		return err
	}
	kept := records[:0]
	for _, rec := range records {
		if rec.ID != id {
			kept = append(kept, rec)
		}
	}
	return r.Set(KeyTimers, kept)
}

func (r *Repository) AppendHistory(entry history.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.LoadHistory()
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	return r.Set(KeyHistory, entries)
}

// LoadHistory returns entries in completion order, oldest first.
func (r *Repository) LoadHistory() ([]history.Entry, error) {
	entries := []history.Entry{}
	if _, err := r.Get(KeyHistory, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
