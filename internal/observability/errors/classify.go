// Package errors classifies failures for metric labels.
package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/siamkarim/2mro-admin/internal/errors"
)

type statusCarrier interface {
	HTTPStatus() int
}

// Classify returns a low-cardinality label for err.
// Application errors report their code, upstream responses their status class
// ("http_4xx", "http_5xx"), and anything else the innermost concrete type in snake_case.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}

	var sc statusCarrier
	if goerrors.As(err, &sc) {
		switch status := sc.HTTPStatus(); {
		case status >= 500:
			return "http_5xx"
		case status >= 400:
			return "http_4xx"
		}
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
