package http

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	apperrors "infrapulse/internal/errors"
	"infrapulse/internal/operations"
)

// apiError maps run errors onto API errors; other errors pass through to
// the error handler's own mapping
func apiError(err error) error {
	var opErr *operations.OperationError
	if !errors.As(err, &opErr) {
		return err
	}
	switch opErr.Type {
	case operations.ErrorTypeValidation:
		if fields := validationDetails(err); len(fields) > 0 {
			return apperrors.NewValidationErrors(fields)
		}
		return apperrors.InvalidRequestWithError(err)
	case operations.ErrorTypeNotFound:
		return apperrors.NewWithDetails(http.StatusNotFound, "NOT_FOUND", opErr.Message, nil)
	case operations.ErrorTypeCancellation:
		return err
	}
	return apperrors.RunFailedError(err)
}

func validationDetails(err error) []apperrors.ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]apperrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, apperrors.ValidationError{
			Field:   fe.Namespace(),
			Message: "failed on '" + fe.Tag() + "'",
		})
	}
	return out
}
