package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Translation represents a single completed translation attempt
type Translation struct {
	ID             int64
	Timestamp      time.Time
	SourceLang     string
	DetectedLang   string
	DestLang       string
	OriginalText   string
	TranslatedText string
	CharacterCount int
	LatencyMs      int64
	Refresh        bool
	Success        bool
	ErrorMessage   string
}

// SaveTranslation saves a translation to the database
func (db *DB) SaveTranslation(tr *Translation) error {
	query := `
		INSERT INTO translations (
			source_lang, detected_lang, dest_lang,
			original_text, translated_text, character_count,
			latency_ms, refresh, success, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.conn.Exec(query,
		tr.SourceLang, tr.DetectedLang, tr.DestLang,
		tr.OriginalText, tr.TranslatedText, tr.CharacterCount,
		tr.LatencyMs, tr.Refresh, tr.Success, tr.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save translation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	tr.ID = id
	return nil
}

// GetTranslations retrieves translations with pagination, newest first
func (db *DB) GetTranslations(limit, offset int) ([]Translation, error) {
	query := `
		SELECT
			id, timestamp, source_lang, detected_lang, dest_lang,
			original_text, translated_text, character_count,
			latency_ms, refresh, success, error_message
		FROM translations
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := db.conn.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query translations: %w", err)
	}
	defer rows.Close()

	var translations []Translation
	for rows.Next() {
		var tr Translation
		var errorMessage sql.NullString

		err := rows.Scan(
			&tr.ID, &tr.Timestamp, &tr.SourceLang, &tr.DetectedLang, &tr.DestLang,
			&tr.OriginalText, &tr.TranslatedText, &tr.CharacterCount,
			&tr.LatencyMs, &tr.Refresh, &tr.Success, &errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan translation: %w", err)
		}

		if errorMessage.Valid {
			tr.ErrorMessage = errorMessage.String
		}

		translations = append(translations, tr)
	}

	return translations, rows.Err()
}

// DeleteTranslation deletes a translation by ID
func (db *DB) DeleteTranslation(id int64) error {
	result, err := db.conn.Exec(`DELETE FROM translations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete translation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("translation not found")
	}

	return nil
}

// PruneTranslations deletes the oldest rows beyond keep
func (db *DB) PruneTranslations(keep int) error {
	query := `
		DELETE FROM translations WHERE id NOT IN (
			SELECT id FROM translations ORDER BY timestamp DESC, id DESC LIMIT ?
		)
	`
	if _, err := db.conn.Exec(query, keep); err != nil {
		return fmt.Errorf("failed to prune translations: %w", err)
	}
	return nil
}

// GetTranslationCount returns the total number of stored translations
func (db *DB) GetTranslationCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM translations").Scan(&count)
	return count, err
}
