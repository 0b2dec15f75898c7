package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// APIError is any non-2xx response. Fields holds the backend's field-level
// validation messages when the body follows the
// `{"username": ["taken"], ...}` shape; otherwise it is empty and Message
// carries whatever single error string the body had.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// FieldError returns the first validation message for a field, if any.
func (e *APIError) FieldError(field string) (string, bool) {
	msgs, ok := e.Fields[field]
	if !ok || len(msgs) == 0 {
		return "", false
	}
	return msgs[0], true
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return apiErr
	}

	for key, val := range raw {
		var msgs []string
		if err := json.Unmarshal(val, &msgs); err == nil {
			if apiErr.Fields == nil {
				apiErr.Fields = make(map[string][]string)
			}
			apiErr.Fields[key] = msgs
			continue
		}
		var msg string
		if err := json.Unmarshal(val, &msg); err == nil && (key == "error" || key == "detail") {
			apiErr.Message = msg
		}
	}

	return apiErr
}

// AsAPIError unwraps err down to an *APIError, if one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
