package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Get("/", listPetsHandler(svc))
		pr.Post("/", createPetHandler(svc))
		// id en el body (forma histórica)
		pr.Put("/", updatePetHandler(svc))

		pr.Get("/{petID}", getPetHandler(svc))
		pr.Put("/{petID}", updatePetHandler(svc))
		pr.Delete("/{petID}", deletePetHandler(svc))
	})
}

type petRequest struct {
	ID        string  `json:"id,omitempty"`
	Name      string  `json:"name"`
	Species   string  `json:"species"`
	BirthYear int     `json:"birthYear"`
	Available bool    `json:"available"`
	PhotoURL  *string `json:"photoUrl,omitempty"`
}

// petSummaryResponse es lo que devuelve el listado.
type petSummaryResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Species string `json:"species"`
}

type petDetailsResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Species     string     `json:"species"`
	BirthYear   int        `json:"birthYear"`
	Available   bool       `json:"available"`
	PhotoURL    *string    `json:"photoUrl"`
	DateAdded   time.Time  `json:"dateAdded"`
	DateUpdated *time.Time `json:"dateUpdated,omitempty"`
}

type errorResponse struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// listPetsHandler godoc
// @Summary  List pets
// @Tags     pets
// @Produce  json
// @Success  200 {array} petSummaryResponse
// @Failure  500 {object} errorResponse
// @Router   /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to retrieve pets")
			return
		}

		out := make([]petSummaryResponse, 0, len(items))
		for _, p := range items {
			out = append(out, petSummaryResponse{ID: p.ID, Name: p.Name, Species: p.Species})
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// getPetHandler godoc
// @Summary  Get a pet
// @Tags     pets
// @Produce  json
// @Param    petID path string true "Pet ID (uuid)"
// @Success  200 {object} petDetailsResponse
// @Failure  400 {object} errorResponse
// @Failure  404 {object} errorResponse
// @Router   /pets/{petID} [get]
func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := parseID(w, chi.URLParam(r, "petID"))
		if !ok {
			return
		}

		p, err := svc.Get(r.Context(), petID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPetDetails(p))
	}
}

// createPetHandler godoc
// @Summary  Create a pet
// @Tags     pets
// @Accept   json
// @Produce  json
// @Param    pet body petRequest true "Pet"
// @Success  201 {object} petDetailsResponse
// @Failure  400 {object} errorResponse
// @Router   /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req petRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		p, err := svc.Create(r.Context(), req.toPet())
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPetDetails(p))
	}
}

// updatePetHandler godoc
// @Summary  Replace a pet
// @Description id va en el path o, si no, en el body.
// @Tags     pets
// @Accept   json
// @Produce  json
// @Param    petID path string true "Pet ID (uuid)"
// @Param    pet body petRequest true "Pet"
// @Success  200 {object} petDetailsResponse
// @Failure  400 {object} errorResponse
// @Failure  404 {object} errorResponse
// @Router   /pets/{petID} [put]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req petRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		raw := chi.URLParam(r, "petID")
		if strings.TrimSpace(raw) == "" {
			raw = req.ID
		}
		petID, ok := parseID(w, raw)
		if !ok {
			return
		}

		p, err := svc.Update(r.Context(), petID, req.toPet())
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPetDetails(p))
	}
}

// deletePetHandler godoc
// @Summary  Delete a pet
// @Tags     pets
// @Param    petID path string true "Pet ID (uuid)"
// @Success  204
// @Failure  400 {object} errorResponse
// @Failure  404 {object} errorResponse
// @Router   /pets/{petID} [delete]
func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		petID, ok := parseID(w, chi.URLParam(r, "petID"))
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), petID); err != nil {
			writeServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (req petRequest) toPet() Pet {
	return Pet{
		Name:      req.Name,
		Species:   req.Species,
		BirthYear: req.BirthYear,
		Available: req.Available,
		PhotoURL:  req.PhotoURL,
	}
}

func toPetDetails(p Pet) petDetailsResponse {
	return petDetailsResponse{
		ID:          p.ID,
		Name:        p.Name,
		Species:     p.Species,
		BirthYear:   p.BirthYear,
		Available:   p.Available,
		PhotoURL:    p.PhotoURL,
		DateAdded:   p.DateAdded,
		DateUpdated: p.DateUpdated,
	}
}

// parseID exige uuid; si no lo es responde 400.
func parseID(w http.ResponseWriter, raw string) (string, bool) {
	u, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id has invalid value")
		return "", false
	}
	return u.String(), true
}

func writeServiceError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Validation failed!", Errors: verr.Fields})
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "pet not found")
	case errors.Is(err, ErrDuplicateID):
		writeError(w, http.StatusConflict, "pet id already exists")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
