package backend

import (
	"errors"
	"net/http"

	apperrors "github.com/rentpro/portal/pkg/errors"
)

// ToAppError maps a backend client error to the error sent to the browser
func ToAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return apperrors.ErrUnauthorized
	case errors.Is(err, ErrForbidden):
		return apperrors.ErrForbidden
	case errors.Is(err, ErrNotFound):
		return apperrors.ErrNotFound
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusBadRequest {
		return apperrors.NewAppError(apperrors.ErrCodeValidationFailed, statusErr.Body, http.StatusBadRequest)
	}

	return apperrors.ErrBackendUnavailable
}
