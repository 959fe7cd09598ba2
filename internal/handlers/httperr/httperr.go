// Package httperr maps domain errors onto HTTP responses.
package httperr

import (
	"errors"
	"net/http"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/pkg/evidence"
	"github.com/GlebRadaev/bountyhub/pkg/utils"
	"go.uber.org/zap"
)

// Status returns the response code for err. Order matters: ErrNotFound is a
// validation kind and ErrBusy is a conflict kind.
func Status(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrResourceExhausted):
		return http.StatusGone
	case errors.Is(err, domain.ErrBusy):
		return http.StatusLocked
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrTransient):
		return http.StatusServiceUnavailable
	case errors.Is(err, evidence.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, evidence.ErrEmpty):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func Respond(w http.ResponseWriter, err error) {
	code := Status(err)
	switch code {
	case http.StatusInternalServerError:
		zap.L().Error("request failed", zap.Error(err))
		utils.RespondWithError(w, code, "Internal server error")
		return
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", "1")
	}
	utils.RespondWithError(w, code, err.Error())
}
