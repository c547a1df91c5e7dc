package httpapi

import (
	"context"
	"net/http"
	"time"
)

// handleHealth 回報服務與資料庫狀態。
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "disabled"
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			dbStatus = "down"
		} else {
			dbStatus = "up"
		}
	}

	status := http.StatusOK
	if dbStatus == "down" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"success": dbStatus != "down",
		"db":      dbStatus,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
