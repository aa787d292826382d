package rpc

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/crimpz/clic/internal/domain"
	"github.com/crimpz/clic/internal/platform/correlation"
	apperrors "github.com/crimpz/clic/internal/platform/errors"
)

// Outcome labels for Observer.
const (
	OutcomeOK            = "ok"
	OutcomeClientError   = "client_error"
	OutcomeInternalError = "internal_error"
)

// unknownMethod is the observed method label for unregistered names.
const unknownMethod = "unknown"

// Observer is told about every dispatched command.
type Observer interface {
	ObserveCommand(method, outcome string, duration time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveCommand(string, string, time.Duration) {}

type Router struct {
	registry *Registry
	observer Observer
}

// NewRouter builds a router. observer may be nil.
func NewRouter(registry *Registry, observer Observer) *Router {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Router{registry: registry, observer: observer}
}

// Dispatch runs one command envelope and returns the HTTP status together with
// either a Response or an apperrors.ErrorResponse.
func (r *Router) Dispatch(ctx context.Context, identity domain.Identity, body []byte) (int, any) {
	start := time.Now()

	req, err := decodeRequest(body)
	if err != nil {
		parseErr := apperrors.ValidationError(apperrors.CodeParseError, "parse error").
			WithContext("reason", err.Error())
		return r.fail(ctx, unknownMethod, start, parseErr)
	}

	handler, ok := r.registry.Lookup(req.Method)
	if !ok {
		unknown := apperrors.ValidationError(apperrors.CodeMethodUnknown, "unknown method").
			WithContext("method", req.Method)
		return r.fail(ctx, unknownMethod, start, unknown)
	}

	result, err := handler(ctx, identity, req.Params)
	if err != nil {
		structured := ToError(err)
		if structured.Code == apperrors.CodeMissingParams || structured.Code == apperrors.CodeInvalidParams {
			structured.WithContext("method", req.Method)
		}
		return r.fail(ctx, req.Method, start, structured)
	}

	r.observer.ObserveCommand(req.Method, OutcomeOK, time.Since(start))
	return http.StatusOK, Response{ID: req.ID, Result: result}
}

func (r *Router) fail(ctx context.Context, method string, start time.Time, err *apperrors.Error) (int, any) {
	outcome := OutcomeClientError
	if err.Type == apperrors.TypeInternal {
		outcome = OutcomeInternalError
		slog.ErrorContext(ctx, "Command failed", "method", method, "code", err.Code, "cause", err.Cause)
	} else {
		slog.InfoContext(ctx, "Command rejected", "method", method, "code", err.Code)
	}
	r.observer.ObserveCommand(method, outcome, time.Since(start))

	requestID, _ := correlation.ID(ctx)
	return err.HTTPStatus(), err.ToResponse(requestID)
}
