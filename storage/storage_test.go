package storage

import (
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sample(text string, success bool) *Translation {
	tr := &Translation{
		SourceLang:     "auto",
		DetectedLang:   "en",
		DestLang:       "ja",
		OriginalText:   text,
		TranslatedText: "訳文",
		CharacterCount: len(text),
		LatencyMs:      120,
		Success:        success,
	}
	if !success {
		tr.TranslatedText = ""
		tr.ErrorMessage = "service unavailable"
	}
	return tr
}

func TestSaveAndGetTranslations(t *testing.T) {
	db := openTestDB(t)

	first := sample("hello", true)
	if err := db.SaveTranslation(first); err != nil {
		t.Fatalf("SaveTranslation: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("SaveTranslation should backfill the ID")
	}
	if err := db.SaveTranslation(sample("world", true)); err != nil {
		t.Fatalf("SaveTranslation: %v", err)
	}

	got, err := db.GetTranslations(10, 0)
	if err != nil {
		t.Fatalf("GetTranslations: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// Newest first.
	if got[0].OriginalText != "world" || got[1].OriginalText != "hello" {
		t.Fatalf("order = %q, %q", got[0].OriginalText, got[1].OriginalText)
	}
	if got[1].DestLang != "ja" || got[1].DetectedLang != "en" {
		t.Fatalf("languages = %+v", got[1])
	}
}

func TestGetTranslationsPagination(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 5; i++ {
		if err := db.SaveTranslation(sample("text", true)); err != nil {
			t.Fatalf("SaveTranslation: %v", err)
		}
	}

	page, err := db.GetTranslations(2, 2)
	if err != nil {
		t.Fatalf("GetTranslations: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page len = %d, want 2", len(page))
	}

	count, err := db.GetTranslationCount()
	if err != nil {
		t.Fatalf("GetTranslationCount: %v", err)
	}
	if count != 5 {
		t.Fatalf("count = %d, want 5", count)
	}
}

func TestDeleteTranslation(t *testing.T) {
	db := openTestDB(t)

	tr := sample("doomed", true)
	if err := db.SaveTranslation(tr); err != nil {
		t.Fatalf("SaveTranslation: %v", err)
	}
	if err := db.DeleteTranslation(tr.ID); err != nil {
		t.Fatalf("DeleteTranslation: %v", err)
	}
	if err := db.DeleteTranslation(tr.ID); err == nil {
		t.Fatal("deleting a missing row should fail")
	}
}

func TestPruneTranslationsKeepsNewest(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 6; i++ {
		if err := db.SaveTranslation(sample("text", true)); err != nil {
			t.Fatalf("SaveTranslation: %v", err)
		}
	}
	if err := db.PruneTranslations(4); err != nil {
		t.Fatalf("PruneTranslations: %v", err)
	}
	count, err := db.GetTranslationCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 4 {
		t.Fatalf("count after prune = %d, want 4", count)
	}
}

func TestFailureRowKeepsErrorMessage(t *testing.T) {
	db := openTestDB(t)

	if err := db.SaveTranslation(sample("broken", false)); err != nil {
		t.Fatalf("SaveTranslation: %v", err)
	}

	got, err := db.GetTranslations(1, 0)
	if err != nil {
		t.Fatalf("GetTranslations: %v", err)
	}
	if got[0].Success {
		t.Fatal("row should be marked failed")
	}
	if got[0].ErrorMessage != "service unavailable" {
		t.Fatalf("error message = %q", got[0].ErrorMessage)
	}
}

func TestStats(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 3; i++ {
		if err := db.SaveTranslation(sample("hello", true)); err != nil {
			t.Fatalf("SaveTranslation: %v", err)
		}
	}
	if err := db.SaveTranslation(sample("broken", false)); err != nil {
		t.Fatalf("SaveTranslation: %v", err)
	}

	overall, err := db.GetOverallStats(7)
	if err != nil {
		t.Fatalf("GetOverallStats: %v", err)
	}
	if overall.TotalTranslations != 4 || overall.SuccessCount != 3 || overall.FailureCount != 1 {
		t.Fatalf("overall = %+v", overall)
	}

	daily, err := db.GetDailyStats(7)
	if err != nil {
		t.Fatalf("GetDailyStats: %v", err)
	}
	if len(daily) != 1 || daily[0].TotalTranslations != 4 {
		t.Fatalf("daily = %+v", daily)
	}

	byLang, err := db.GetLanguageStats(7)
	if err != nil {
		t.Fatalf("GetLanguageStats: %v", err)
	}
	if len(byLang) != 1 || byLang[0].DestLang != "ja" || byLang[0].TotalTranslations != 4 {
		t.Fatalf("language stats = %+v", byLang)
	}
}
