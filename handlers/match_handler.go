package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/archery-system/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SaveSet stores an in-progress set without confirming it, so the line judge
// can correct arrow entries before the scores become final.
func (h *MatchHandler) SaveSet(w http.ResponseWriter, r *http.Request) {
	input, err := setInputFromRequest(w, r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	set, err := h.matchService.SaveSet(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"set": set}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ConfirmSet(w http.ResponseWriter, r *http.Request) {
	input, err := setInputFromRequest(w, r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.matchService.ConfirmSet(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ResolveShootoff(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.ShootoffInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.MatchID = matchID

	result, err := h.matchService.ResolveShootoff(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func setInputFromRequest(w http.ResponseWriter, r *http.Request) (services.SetInput, error) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		return services.SetInput{}, err
	}
	setNumber, err := getIDFromURL(r, "setNumber")
	if err != nil {
		return services.SetInput{}, err
	}

	var input services.SetInput
	if err := readJSON(w, r, &input); err != nil {
		return services.SetInput{}, err
	}
	if len(input.Slot1Arrows) == 0 && len(input.Slot2Arrows) == 0 {
		return services.SetInput{}, errors.New("slot1_arrows and slot2_arrows are required")
	}

	input.MatchID = matchID
	input.Number = setNumber
	return input, nil
}
