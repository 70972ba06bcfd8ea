package handlers

import (
	"net/http"

	"github.com/Dosada05/club-scheduler/services"
)

// BoardHandler serves the read-only views shown next to the courts.
type BoardHandler struct {
	boardService    services.BoardService
	fairnessService services.FairnessService
}

func NewBoardHandler(bs services.BoardService, fs services.FairnessService) *BoardHandler {
	return &BoardHandler{boardService: bs, fairnessService: fs}
}

func (h *BoardHandler) Board(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getIDFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	board, err := h.boardService.Board(r.Context(), sessionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"board": board}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BoardHandler) Fairness(w http.ResponseWriter, r *http.Request) {
	sessionID, err := getIDFromURL(r, "sessionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	entries, err := h.fairnessService.Ledger(r.Context(), sessionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"fairness": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
