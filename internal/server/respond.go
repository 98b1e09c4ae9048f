package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"dota-draft-helper/internal/api"
	"dota-draft-helper/internal/repository"
	"dota-draft-helper/internal/service"

	"github.com/rs/zerolog"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	// headers are already out, nothing useful to do on failure
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	var (
		verr     *service.ValidationError
		notFound *service.PlayerNotFoundError
		cfgErr   *api.ConfigurationError
		httpErr  *api.HTTPError
		parseErr *api.ParseError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound), errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSyncInProgress):
		return http.StatusConflict
	case errors.As(err, &cfgErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &httpErr), errors.As(err, &parseErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: http.StatusText(status), Message: err.Error()}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}

	log := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, resp)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return &service.ValidationError{Fields: map[string]string{"body": "invalid JSON: " + err.Error()}}
	}
	return nil
}
