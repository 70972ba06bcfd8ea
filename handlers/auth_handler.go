package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Dosada05/club-scheduler/middleware"
	"github.com/Dosada05/club-scheduler/services"
)

type AuthHandler struct {
	authService services.AuthService
	jwtSecret   []byte
	tokenTTL    time.Duration
	now         func() time.Time
}

func NewAuthHandler(authService services.AuthService, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
		now:         time.Now,
	}
}

// Token exchanges the organizer password for a bearer token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Password == "" {
		badRequestResponse(w, r, errors.New("password is required"))
		return
	}

	if err := h.authService.Authenticate(r.Context(), input.Password); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	token, expires, err := middleware.IssueOrganizerToken(h.jwtSecret, middleware.RoleOrganizer, h.tokenTTL, h.now())
	if err != nil {
		serverErrorResponse(w, r, fmt.Errorf("failed to issue token: %w", err))
		return
	}

	response := jsonResponse{
		"token":      token,
		"expires_at": expires.UTC(),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
