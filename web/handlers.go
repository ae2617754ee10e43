package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"copytrans/state"
)

// handleConfig returns a read-only view of the effective configuration
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.controller.Snapshot()
	response := struct {
		CopyHotkey      string   `json:"copyHotkey"`
		StateDumpHotkey string   `json:"stateDumpHotkey"`
		CopyCount       int      `json:"copyCount"`
		WindowMs        int      `json:"windowMs"`
		Source          string   `json:"source"`
		Dest            string   `json:"dest"`
		Rotation        []string `json:"rotation"`
		HistoryEnabled  bool     `json:"historyEnabled"`
	}{
		CopyHotkey:      s.config.Hotkeys.Copy,
		StateDumpHotkey: s.config.Hotkeys.StateDump,
		CopyCount:       s.config.Detection.CopyCount,
		WindowMs:        s.config.Detection.WindowMs,
		Source:          snap.Source,
		Dest:            snap.Dest,
		Rotation:        s.config.Languages.Rotation,
		HistoryEnabled:  s.db != nil,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleLanguages handles GET (current pair) and POST (toggle or set)
func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeLanguages(w, s.controller.Snapshot())
	case http.MethodPost:
		s.handleChangeLanguages(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleChangeLanguages(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string  `json:"action"`
		Source *string `json:"source"`
		Dest   *string `json:"dest"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var snap state.Snapshot
	switch req.Action {
	case "toggle":
		snap = s.controller.ToggleLanguages()
	case "set":
		if req.Source == nil && req.Dest == nil {
			http.Error(w, "Nothing to set", http.StatusBadRequest)
			return
		}
		// Both fields apply as one state change; empty source means
		// auto-detect.
		snap = s.controller.SetLanguages(req.Source, req.Dest)
	default:
		http.Error(w, "Unknown action", http.StatusBadRequest)
		return
	}

	s.BroadcastLanguages(snap)
	s.writeLanguages(w, snap)
}

func (s *Server) writeLanguages(w http.ResponseWriter, snap state.Snapshot) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LanguagesMessage{Source: snap.Source, Dest: snap.Dest})
}

// handleClipboard copies a dashboard-selected text back to the system
// clipboard
func (s *Server) handleClipboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.controller.CopyToClipboard(req.Text); err != nil {
		slog.Error("Failed to copy to clipboard", "error", err)
		http.Error(w, "Failed to copy to clipboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

// handleStats returns statistics for the specified time range
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.db == nil {
		http.Error(w, "History is disabled", http.StatusNotFound)
		return
	}

	days := 7
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 {
			days = d
		}
	}

	overall, err := s.db.GetOverallStats(days)
	if err != nil {
		slog.Error("Failed to get overall stats", "error", err)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	daily, err := s.db.GetDailyStats(days)
	if err != nil {
		slog.Error("Failed to get daily stats", "error", err)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	languages, err := s.db.GetLanguageStats(days)
	if err != nil {
		slog.Error("Failed to get language stats", "error", err)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"overall":   overall,
		"daily":     daily,
		"languages": languages,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleHistory handles GET and DELETE requests for translation history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		http.Error(w, "History is disabled", http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.handleGetHistory(w, r)
	case http.MethodDelete:
		s.handleDeleteHistory(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGetHistory returns paginated translation history
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	translations, err := s.db.GetTranslations(limit, offset)
	if err != nil {
		slog.Error("Failed to get translations", "error", err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}

	total, err := s.db.GetTranslationCount()
	if err != nil {
		slog.Error("Failed to get translation count", "error", err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"translations": translations,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleDeleteHistory deletes a translation by ID
func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	// Extract ID from path (e.g. /api/history/123)
	parts := strings.Split(r.URL.Path, "/")
	idStr := parts[len(parts)-1]
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	if err := s.db.DeleteTranslation(id); err != nil {
		slog.Error("Failed to delete translation", "error", err, "id", id)
		http.Error(w, "Failed to delete translation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}
