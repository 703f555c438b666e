package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/siamkarim/2mro-admin/internal/errors"
)

// maxJSONBody bounds request bodies; the console only accepts small forms.
const maxJSONBody = 64 << 10

var (
	errInvalidJSON   = errors.New("request body must be a single JSON object")
	errInternalError = errors.New("internal error")
)

// DecodeJSON decodes a single JSON object from the request body into dst.
// On failure a 400 has already been written and false is returned.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil || dec.More() {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: errInvalidJSON})
		return false
	}
	return true
}

// WriteJSON writes v with the given status code. Encoding happens before the
// header is sent so a failure still yields a clean 500.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

// ErrorParams describes a JSON error body: {"error": ErrCode, "message": Err}.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response. A nil Err falls back to the status text.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	msg := http.StatusText(p.Code)
	if p.Err != nil {
		msg = p.Err.Error()
	}
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": msg})
}

// WriteAppError maps err onto an HTTP status and writes it as a JSON error.
// Upstream failures are translated first so the body carries a user-safe message.
func WriteAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(apperrors.MapUpstreamError(err), &appErr) {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: string(apperrors.ErrCodeInternal), Err: errInternalError})
		return
	}
	WriteError(w, ErrorParams{
		Code:    apperrors.HTTPStatus(appErr.Code),
		ErrCode: string(appErr.Code),
		Err:     errors.New(appErr.Message),
	})
}
