package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/archery-system/models"
	"github.com/Dosada05/archery-system/services"
)

type BracketHandler struct {
	bracketService services.BracketService
	exportService  services.ExportService
}

func NewBracketHandler(bracketService services.BracketService, exportService services.ExportService) *BracketHandler {
	return &BracketHandler{
		bracketService: bracketService,
		exportService:  exportService,
	}
}

// Generate builds (or rebuilds) the elimination brackets of the requested
// groups. An empty or omitted group list means every group with entrants.
func (h *BracketHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Groups []models.GroupKey `json:"groups"`
	}

	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	results, err := h.bracketService.GenerateBrackets(r.Context(), input.Groups)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"results": results,
	}

	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) List(w http.ResponseWriter, r *http.Request) {
	bracketsList, err := h.bracketService.ListBrackets(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"brackets": bracketsList}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) Get(w http.ResponseWriter, r *http.Request) {
	bracketID, err := getIDFromURL(r, "bracketID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.GetBracket(r.Context(), bracketID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) Standings(w http.ResponseWriter, r *http.Request) {
	bracketID, err := getIDFromURL(r, "bracketID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.exportService.BuildStandings(r.Context(), bracketID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) Export(w http.ResponseWriter, r *http.Request) {
	bracketID, err := getIDFromURL(r, "bracketID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.exportService.ExportStandings(r.Context(), bracketID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"export": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.bracketService.ListGroups(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"groups": groups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) ListGroupEntrants(w http.ResponseWriter, r *http.Request) {
	group, err := groupFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entrants, err := h.bracketService.ListGroupEntrants(r.Context(), group)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"entrants": entrants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func groupFromQuery(r *http.Request) (models.GroupKey, error) {
	q := r.URL.Query()

	category := q.Get("category")
	gender := models.Gender(q.Get("gender"))
	distanceStr := q.Get("distance")

	if category == "" || gender == "" || distanceStr == "" {
		return models.GroupKey{}, errors.New("category, distance, and gender query parameters are required")
	}

	distance, err := strconv.Atoi(distanceStr)
	if err != nil || distance < 1 {
		return models.GroupKey{}, errors.New("distance must be a positive integer")
	}

	switch gender {
	case models.GenderMale, models.GenderFemale:
	default:
		return models.GroupKey{}, errors.New("gender must be one of: male, female")
	}

	return models.GroupKey{Category: category, Distance: distance, Gender: gender}, nil
}
