package handlers

import (
	"net/http"

	"attendtrack/internal/repository"
)

// ReferenceHandler serves grade and subject lookups
type ReferenceHandler struct {
	referenceRepo *repository.ReferenceRepository
}

// NewReferenceHandler creates a new reference data handler
func NewReferenceHandler(referenceRepo *repository.ReferenceRepository) *ReferenceHandler {
	return &ReferenceHandler{referenceRepo: referenceRepo}
}

// ListGrades returns all grades
func (h *ReferenceHandler) ListGrades(w http.ResponseWriter, r *http.Request) {
	grades, err := h.referenceRepo.ListGrades()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load grades", "", err)
		return
	}
	writeJSON(w, http.StatusOK, grades)
}

// ListSubjects returns all subjects
func (h *ReferenceHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.referenceRepo.ListSubjects()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load subjects", "", err)
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}
