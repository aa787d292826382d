package rpc

import (
	"errors"

	"github.com/crimpz/clic/internal/domain"
	apperrors "github.com/crimpz/clic/internal/platform/errors"
)

// ToError maps a domain or infrastructure error to its client-facing form.
// Anything unrecognized becomes an opaque SERVICE_ERROR.
func ToError(err error) *apperrors.Error {
	if err == nil {
		return nil
	}

	var structured *apperrors.Error
	if errors.As(err, &structured) {
		return structured
	}

	var pe *paramsError
	if errors.As(err, &pe) {
		if pe.missing {
			return apperrors.ValidationError(apperrors.CodeMissingParams, "params missing")
		}
		return apperrors.ValidationError(apperrors.CodeInvalidParams, "params invalid").
			WithContext("reason", pe.reason)
	}

	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return apperrors.NotFoundError(nf.Entity, nf.ID)
	}

	var invalid *domain.InvalidInputError
	if errors.As(err, &invalid) {
		return apperrors.ValidationError(apperrors.CodeInvalidRequest, "invalid request").
			WithContext("reason", invalid.Reason)
	}

	switch {
	case errors.Is(err, domain.ErrSystemIdentity), errors.Is(err, domain.ErrNoIdentity):
		return apperrors.AuthError(apperrors.CodeNoAuth, "authentication required")
	case errors.Is(err, domain.ErrPermissionDenied):
		return apperrors.AuthError(apperrors.CodePermissionDenied, "permission denied")
	case errors.Is(err, domain.ErrLoginFailed):
		return apperrors.AuthError(apperrors.CodeLoginFail, "login failed")
	case errors.Is(err, domain.ErrUsernameTaken):
		return apperrors.ConflictError("username already taken")
	}

	return apperrors.InternalError("internal server error", err)
}
