package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"caja/internal/core"
)

// parseFecha extracts and validates the fecha query parameter. An empty
// parameter defaults to today's local civil date.
func parseFecha(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("fecha"))
	if raw == "" {
		return core.Today(), nil
	}
	return core.ParseDate(raw)
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("Response encoding failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
