package handlers

import (
	"net/http"

	"github.com/Dosada05/club-scheduler/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

func (h *MatchHandler) Score(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input struct {
		ScoreA int `json:"score_a"`
		ScoreB int `json:"score_b"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.matchService.ScoreRoundMatch(r.Context(), matchID, input.ScoreA, input.ScoreB)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"match":           result.Match,
		"record":          result.Record,
		"recorded":        result.Recorded,
		"round_completed": result.RoundCompleted,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Record logs a result played outside the scheduler. A duplicate is not an
// error: it answers 200 with recorded=false.
func (h *MatchHandler) Record(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getIDFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var input services.RecordInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.matchService.RecordIfNew(r.Context(), sessionID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Recorded {
		status = http.StatusCreated
	}
	if err := writeJSON(w, status, jsonResponse{"record": result.Record, "recorded": result.Recorded}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getIDFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	history, err := h.matchService.History(r.Context(), sessionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": history}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
