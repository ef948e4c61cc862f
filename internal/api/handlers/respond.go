package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/markdave123-py/chatterbox/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as {"error": message}. Only the client-safe message of a
// *services.Error is exposed; the cause is logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := services.KindOf(err)
	status := statusFor(kind)

	msg := http.StatusText(http.StatusInternalServerError)
	var se *services.Error
	if errors.As(err, &se) && se.Message != "" {
		msg = se.Message
	}

	log := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("kind", kind.String()).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("kind", kind.String()).Msg("request rejected")
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation, services.KindUnsupportedMediaType, services.KindTooLarge:
		return http.StatusBadRequest
	case services.KindUnauthenticated:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
