package handlers

import (
	"net/http"

	"github.com/Dosada05/club-scheduler/services"
)

type SportHandler struct {
	sportService services.SportService
}

func NewSportHandler(ss services.SportService) *SportHandler {
	return &SportHandler{
		sportService: ss,
	}
}

func (h *SportHandler) List(w http.ResponseWriter, r *http.Request) {
	response := jsonResponse{"sports": h.sportService.List()}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
