package storage

import (
	"fmt"
)

// DailyStats represents statistics for a single day
type DailyStats struct {
	Date              string
	TotalTranslations int
	TotalCharacters   int
	SuccessCount      int
	FailureCount      int
}

// LanguageStats represents statistics grouped by destination language
type LanguageStats struct {
	DestLang          string
	TotalTranslations int
	TotalCharacters   int
	SuccessCount      int
	FailureCount      int
	AvgLatencyMs      float64
}

// OverallStats represents overall statistics
type OverallStats struct {
	TotalTranslations int
	TotalCharacters   int
	SuccessCount      int
	FailureCount      int
	AvgLatencyMs      float64
}

// GetDailyStats retrieves statistics grouped by date for the last N days
func (db *DB) GetDailyStats(days int) ([]DailyStats, error) {
	query := `
		SELECT
			DATE(timestamp) as date,
			COUNT(*) as total_translations,
			COALESCE(SUM(character_count), 0) as total_characters,
			SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END) as success_count,
			SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END) as failure_count
		FROM translations
		WHERE timestamp >= datetime('now', '-' || ? || ' days')
		GROUP BY DATE(timestamp)
		ORDER BY date DESC
	`

	rows, err := db.conn.Query(query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	var stats []DailyStats
	for rows.Next() {
		var s DailyStats
		err := rows.Scan(&s.Date, &s.TotalTranslations, &s.TotalCharacters, &s.SuccessCount, &s.FailureCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// GetLanguageStats retrieves statistics grouped by destination language for
// the last N days
func (db *DB) GetLanguageStats(days int) ([]LanguageStats, error) {
	query := `
		SELECT
			dest_lang,
			COUNT(*) as total_translations,
			COALESCE(SUM(character_count), 0) as total_characters,
			SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END) as success_count,
			SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END) as failure_count,
			COALESCE(AVG(latency_ms), 0) as avg_latency_ms
		FROM translations
		WHERE timestamp >= datetime('now', '-' || ? || ' days')
		GROUP BY dest_lang
		ORDER BY total_translations DESC
	`

	rows, err := db.conn.Query(query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query language stats: %w", err)
	}
	defer rows.Close()

	var stats []LanguageStats
	for rows.Next() {
		var s LanguageStats
		err := rows.Scan(&s.DestLang, &s.TotalTranslations, &s.TotalCharacters, &s.SuccessCount, &s.FailureCount, &s.AvgLatencyMs)
		if err != nil {
			return nil, fmt.Errorf("failed to scan language stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// GetOverallStats retrieves overall statistics for the last N days
func (db *DB) GetOverallStats(days int) (*OverallStats, error) {
	query := `
		SELECT
			COUNT(*) as total_translations,
			COALESCE(SUM(character_count), 0) as total_characters,
			COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0) as success_count,
			COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0) as failure_count,
			COALESCE(AVG(latency_ms), 0) as avg_latency_ms
		FROM translations
		WHERE timestamp >= datetime('now', '-' || ? || ' days')
	`

	var stats OverallStats
	err := db.conn.QueryRow(query, days).Scan(
		&stats.TotalTranslations,
		&stats.TotalCharacters,
		&stats.SuccessCount,
		&stats.FailureCount,
		&stats.AvgLatencyMs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query overall stats: %w", err)
	}

	return &stats, nil
}
