package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	alertApp "fx-alert-bot/internal/application/alert"
	alertDomain "fx-alert-bot/internal/domain/alert"
	marketDomain "fx-alert-bot/internal/domain/marketdata"
)

type alertResponse struct {
	ID          string   `json:"id"`
	UserRef     string   `json:"user_ref"`
	Symbol      string   `json:"symbol"`
	TargetPrice float64  `json:"target_price"`
	Direction   string   `json:"direction"`
	Timeframes  []string `json:"timeframes"`
	Triggered   bool     `json:"triggered"`
	TriggeredAt *string  `json:"triggered_at,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

func toAlertResponse(a alertDomain.Alert) alertResponse {
	out := alertResponse{
		ID:          a.ID,
		UserRef:     a.UserRef,
		Symbol:      a.Symbol,
		TargetPrice: a.TargetPrice,
		Direction:   string(a.Direction),
		Timeframes:  a.TimeframeList(),
		Triggered:   a.Triggered,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
	if a.TriggeredAt != nil {
		ts := a.TriggeredAt.Format(time.RFC3339)
		out.TriggeredAt = &ts
	}
	return out
}

// handleAlerts 處理 /api/alerts：POST 建立、GET 依 user_ref 列出。
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateAlert(w, r)
	case http.MethodGet:
		s.handleListAlerts(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, errCodeBadRequest, "method not allowed")
	}
}

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserRef     string   `json:"user_ref"`
		Symbol      string   `json:"symbol"`
		TargetPrice float64  `json:"target_price"`
		Timeframes  []string `json:"timeframes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return
	}

	res, err := s.alerts.Create(r.Context(), alertApp.CreateInput{
		UserRef:     body.UserRef,
		Symbol:      body.Symbol,
		TargetPrice: body.TargetPrice,
		Timeframes:  body.Timeframes,
	})
	if err != nil {
		switch {
		case errors.Is(err, marketDomain.ErrInvalidTimeframe):
			writeError(w, http.StatusUnprocessableEntity, errCodeInvalidTimeframe, err.Error())
		case errors.Is(err, alertApp.ErrPriceUnavailable):
			writeError(w, http.StatusBadGateway, errCodeUpstream, "current price unavailable, try again later")
		default:
			writeError(w, http.StatusBadRequest, errCodeBadRequest, err.Error())
		}
		return
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]interface{}{
		"success":   true,
		"duplicate": res.Duplicate,
		"alert":     toAlertResponse(res.Alert),
	})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	userRef := r.URL.Query().Get("user_ref")
	if userRef == "" {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, "user_ref is required")
		return
	}

	alerts, err := s.alerts.ListByUser(r.Context(), userRef)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errCodeInternal, "list alerts failed")
		return
	}

	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toAlertResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"alerts":  out,
	})
}

// handleAlertByID 處理 /api/alerts/{id}：DELETE 刪除。
func (s *Server) handleAlertByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, errCodeBadRequest, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/alerts/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, "alert id is required")
		return
	}
	userRef := r.URL.Query().Get("user_ref")
	if userRef == "" {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, "user_ref is required")
		return
	}

	ok, err := s.alerts.Delete(r.Context(), id, userRef)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errCodeInternal, "delete alert failed")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, errCodeNotFound, "alert not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
