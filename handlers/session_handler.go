package handlers

import (
	"net/http"

	"github.com/Dosada05/club-scheduler/services"
)

type SessionHandler struct {
	sessionService    services.SessionService
	attendanceService services.AttendanceService
}

func NewSessionHandler(ss services.SessionService, as services.AttendanceService) *SessionHandler {
	return &SessionHandler{
		sessionService:    ss,
		attendanceService: as,
	}
}

// Open returns the session for (date, sport), creating it on first use.
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Date  string `json:"date"`
		Sport string `json:"sport"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	session, created, err := h.sessionService.Open(r.Context(), input.Date, input.Sport)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	if err := writeJSON(w, status, jsonResponse{"session": session, "created": created}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getIDFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	session, err := h.sessionService.GetByID(r.Context(), sessionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"session": session}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := getIntQuery(r, "limit", 20)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	sessions, err := h.sessionService.List(r.Context(), limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"sessions": sessions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getIDFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	present, err := h.attendanceService.List(r.Context(), sessionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"present": present}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SetAttendance replaces the whole present set.
func (h *SessionHandler) SetAttendance(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getIDFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		PlayerIDs []int `json:"player_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	present, err := h.attendanceService.Set(r.Context(), sessionID, input.PlayerIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"present": present}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SessionHandler) AddAttendance(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getIDFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.attendanceService.Add(r.Context(), sessionID, playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) RemoveAttendance(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getIDFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.attendanceService.Remove(r.Context(), sessionID, playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
