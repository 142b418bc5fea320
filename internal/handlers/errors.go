package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"attendtrack/internal/validation"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

// respondWithError writes {"error": userMsg}. The cause is logged, never sent.
func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	writeJSON(w, status, map[string]string{"error": userMsg})
}

// respondWithValidation reports validation failures as 400 and anything else as a 500
func respondWithValidation(w http.ResponseWriter, userMsg string, err error) {
	var vErr validation.ValidationError
	if errors.As(err, &vErr) {
		respondWithError(w, http.StatusBadRequest, vErr.Error(), "", nil)
		return
	}
	respondWithError(w, http.StatusInternalServerError, userMsg, "", err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return false
	}
	return true
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// urlID parses a positive integer path parameter, writing a 400 when it is malformed
func urlID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := parseID(chi.URLParam(r, name))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidID, "", nil)
		return 0, false
	}
	return id, true
}

// queryID parses an optional integer query parameter; absent means zero
func queryID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	id, err := parseID(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid "+name, "", nil)
		return 0, false
	}
	return id, true
}
