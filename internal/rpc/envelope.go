package rpc

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Request is an inbound command envelope. ID is echoed back untouched.
type Request struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is the success envelope. A nil Result encodes as null.
type Response struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Result any             `json:"result"`
}

func decodeRequest(body []byte) (Request, error) {
	trimmed := strings.TrimSpace(string(body))
	if !strings.HasPrefix(trimmed, "{") {
		return Request{}, fmt.Errorf("body is not a JSON object")
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return Request{}, fmt.Errorf("malformed JSON: %w", err)
	}
	if req.Method == "" {
		return Request{}, fmt.Errorf("method is required")
	}
	return req, nil
}
