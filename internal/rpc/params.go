package rpc

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/crimpz/clic/internal/domain"
)

// paramsError marks a decoding failure before the handler body runs.
type paramsError struct {
	missing bool
	reason  string
}

func (e *paramsError) Error() string {
	if e.missing {
		return "params missing"
	}
	return "params invalid: " + e.reason
}

type validator interface {
	Validate() error
}

// withParams decodes the params object into P, runs P.Validate when defined and
// only then calls fn.
func withParams[P any](fn func(ctx context.Context, identity domain.Identity, params P) (any, error)) Handler {
	return func(ctx context.Context, identity domain.Identity, raw json.RawMessage) (any, error) {
		if absent(raw) {
			return nil, &paramsError{missing: true}
		}

		var params P
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, &paramsError{reason: err.Error()}
		}
		if v, ok := any(&params).(validator); ok {
			if err := v.Validate(); err != nil {
				return nil, &paramsError{reason: err.Error()}
			}
		}
		return fn(ctx, identity, params)
	}
}

// withoutParams ignores any params sent.
func withoutParams(fn func(ctx context.Context, identity domain.Identity) (any, error)) Handler {
	return func(ctx context.Context, identity domain.Identity, _ json.RawMessage) (any, error) {
		return fn(ctx, identity)
	}
}

func absent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
