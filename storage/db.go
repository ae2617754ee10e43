package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type DB struct {
	conn *sql.DB
}

// Open opens the database and initializes the schema
func Open(configDir string) (*DB, error) {
	dbPath := filepath.Join(configDir, "copytrans.db")

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the database schema
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,

		-- Languages
		source_lang TEXT NOT NULL,
		detected_lang TEXT NOT NULL,
		dest_lang TEXT NOT NULL,

		-- Text
		original_text TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		character_count INTEGER NOT NULL,

		-- Outcome
		latency_ms INTEGER NOT NULL,
		refresh BOOLEAN NOT NULL,
		success BOOLEAN NOT NULL,
		error_message TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_translations_timestamp ON translations(timestamp);
	CREATE INDEX IF NOT EXISTS idx_translations_dest ON translations(dest_lang);
	CREATE INDEX IF NOT EXISTS idx_translations_success ON translations(success);
	`

	_, err := db.conn.Exec(schema)
	return err
}
