package httpapi

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/hlog"

	"github.com/skillcompass/skillcompass-go/internal/graphstore"
	"github.com/skillcompass/skillcompass-go/internal/recommend"
)

// errorBody is the uniform error envelope of the API.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorBody{Error: msg})
}

// writeEngineError maps pipeline errors to status codes.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, recommend.ErrInvalidRequest):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, recommend.ErrNotReady):
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, recommend.ErrStoreUnavailable):
		hlog.FromRequest(r).Error().Err(err).Msg("taxonomy store unavailable")
		writeError(w, r, http.StatusServiceUnavailable, "taxonomy store unavailable")
	case errors.Is(err, graphstore.ErrOccupationNotFound), errors.Is(err, graphstore.ErrNoteNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
