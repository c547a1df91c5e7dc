package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	authApp "fx-alert-bot/internal/application/auth"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return
	}

	token, user, err := s.loginUC.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		if !errors.Is(err, authApp.ErrInvalidCredentials) {
			log.Printf("[Auth] login failure for %s: %v", body.Username, err)
		}
		writeError(w, http.StatusUnauthorized, errCodeInvalidCredentials, "invalid username or password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"access_token": token,
		"token_type":   "Bearer",
		"user": map[string]interface{}{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
		},
	})
}
