package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ablomer/steam-clip-bot/internal/types"
)

// ClipIndex records one row per produced clip file in SQLite. It indexes
// the files on disk; in-memory job records are never persisted.
type ClipIndex struct {
	db *sql.DB
}

// NewClipIndex opens (and if needed initializes) the clip index database.
func NewClipIndex(dbPath string) (*ClipIndex, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS clips (
		id TEXT PRIMARY KEY,
		source_url TEXT NOT NULL,
		filename TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		requested_by TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_clips_created_at ON clips(created_at);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &ClipIndex{db: db}, nil
}

// Record inserts the produced clip into the index.
func (ci *ClipIndex) Record(clip types.Clip) error {
	query := `
	INSERT INTO clips (id, source_url, filename, size_bytes, requested_by, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := ci.db.Exec(query, clip.ID, clip.SourceURL, clip.Filename,
		clip.SizeBytes, clip.RequestedBy, clip.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record clip: %w", err)
	}
	return nil
}

// Count returns the number of indexed clips.
func (ci *ClipIndex) Count() (int, error) {
	var count int
	if err := ci.db.QueryRow(`SELECT COUNT(*) FROM clips`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count clips: %w", err)
	}
	return count, nil
}

// Recent returns the most recently produced clips, newest first.
func (ci *ClipIndex) Recent(limit int) ([]types.Clip, error) {
	query := `
	SELECT id, source_url, filename, size_bytes, requested_by, created_at
	FROM clips ORDER BY created_at DESC LIMIT ?
	`

	rows, err := ci.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list clips: %w", err)
	}
	defer rows.Close()

	var clips []types.Clip
	for rows.Next() {
		var c types.Clip
		if err := rows.Scan(&c.ID, &c.SourceURL, &c.Filename, &c.SizeBytes,
			&c.RequestedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		clips = append(clips, c)
	}
	return clips, rows.Err()
}

// Close closes the database connection.
func (ci *ClipIndex) Close() error {
	return ci.db.Close()
}
