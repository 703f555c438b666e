package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// ErrUnauthorized matches any *APIError with status 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden matches any *APIError with status 403.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound matches any *APIError with status 404.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx upstream response.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// HTTPStatus returns the upstream status code.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// UserMessage returns the server supplied message, if any.
func (e *APIError) UserMessage() string { return e.Message }

// Is lets errors.Is match the status sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	default:
		return false
	}
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// ValidateExpression reports whether expr compiles as JMESPath.
func ValidateExpression(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := jmespath.Compile(expr)
	return err
}

// extractMessage evaluates expr against a JSON body and returns the result when it is a string.
func extractMessage(expr string, body []byte) string {
	v, ok := searchJSON(expr, body)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func searchJSON(expr string, body []byte) (any, bool) {
	if strings.TrimSpace(expr) == "" || len(body) == 0 {
		return nil, false
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, false
	}
	v, err := jmespath.Search(expr, data)
	if err != nil || v == nil {
		return nil, false
	}
	return v, true
}
