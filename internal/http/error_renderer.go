package httpx

import (
	"errors"
	"net/http"

	apperrors "github.com/siamkarim/2mro-admin/internal/errors"
)

const errMsgFixBelow = "Please fix the errors below."

var (
	errNotFound               = errors.New("not found")
	errInvalidTransactionType = errors.New("type must be deposit or withdrawal")
)

// ErrorRenderer is a function that renders an error template with the given data.
// This allows the error renderer to work with different rendering strategies.
type ErrorRenderer func(w http.ResponseWriter, r *http.Request, data map[string]any)

// ErrorOpts contains all options needed to render an error response.
type ErrorOpts struct {
	W http.ResponseWriter
	R *http.Request
	// Err is the error that occurred (optional, can be nil if only field errors)
	Err error
	// FieldErrors contains field-level validation errors (field name → error message)
	FieldErrors map[string]string
	// Renderer is the function to render the error template
	Renderer ErrorRenderer
	// Data is the template data to extend, usually from pageData
	Data *TemplateDataBuilder
	// ShowToast triggers a toast notification with the error message (optional)
	ShowToast bool
}

// RenderError renders a form or page again with its errors filled in.
// AppErrors carrying a field are shown next to that field.
func RenderError(opts ErrorOpts) {
	if opts.Renderer == nil || opts.Data == nil {
		http.Error(opts.W, "misconfigured error renderer", http.StatusInternalServerError)
		return
	}
	if opts.FieldErrors == nil {
		opts.FieldErrors = map[string]string{}
	}

	generalError := processError(opts.Err, opts.FieldErrors)
	opts.Data.WithFieldErrors(opts.FieldErrors)
	if generalError != "" {
		opts.Data.WithError(generalError)
	} else if len(opts.FieldErrors) > 0 {
		opts.Data.WithError(errMsgFixBelow)
	}

	if opts.ShowToast && generalError != "" {
		triggerToast(opts.W, generalError, "error")
	}
	opts.Renderer(opts.W, opts.R, opts.Data.Build())
}

// processError turns err into a general message, moving field errors into fields.
func processError(err error, fields map[string]string) string {
	if err == nil {
		return ""
	}
	mapped := apperrors.MapUpstreamError(err)
	var appErr *apperrors.AppError
	if !errors.As(mapped, &appErr) {
		return "Something went wrong. Please try again."
	}
	if appErr.Field != "" {
		fields[appErr.Field] = appErr.Message
		return ""
	}
	return appErr.Message
}

// failure classifies an upstream error and reports the outcome.
// It returns false when the error already produced a response.
func (h *UIHandlers) failure(w http.ResponseWriter, r *http.Request, err error) (*apperrors.AppError, bool) {
	if h.Upstream != nil {
		h.Upstream.ObserveUpstreamError(err)
	}
	var appErr *apperrors.AppError
	if !errors.As(apperrors.MapUpstreamError(err), &appErr) {
		appErr = apperrors.Internal("internal error")
	}
	switch appErr.Code {
	case apperrors.ErrCodeUnauthenticated:
		// the refresh failed and the store is already cleared
		unauthenticated(w, r, "/")
		return nil, false
	case apperrors.ErrCodeCanceled:
		h.logger().DebugContext(r.Context(), "request canceled by client", "path", r.URL.Path)
		return nil, false
	}
	h.logger().WarnContext(r.Context(), "upstream call failed",
		"path", r.URL.Path,
		"code", string(appErr.Code),
		"error", err,
	)
	return appErr, true
}

// pageFailure renders the error page for a page whose primary data could not load.
func (h *UIHandlers) pageFailure(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := h.failure(w, r, err)
	if !ok {
		return
	}
	if !IsBrowserRequest(r) {
		WriteAppError(w, appErr)
		return
	}
	h.renderErrorPage(w, r, appErr)
}

func (h *UIHandlers) renderErrorPage(w http.ResponseWriter, r *http.Request, appErr *apperrors.AppError) {
	status := apperrors.HTTPStatus(appErr.Code)
	data := h.pageData(r, PageMeta{Title: "errors.title", CurrentPage: PageError}).
		WithError(appErr.Message).
		With("StatusCode", status).
		Build()
	if h.IsDev && appErr.Cause != nil {
		data["Detail"] = appErr.Cause.Error()
	}
	h.renderPage(w, r, status, data)
}

// actionFailure answers a failed state-changing request.
// htmx callers get a toast with the mapped status; JSON callers an error body.
func (h *UIHandlers) actionFailure(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := h.failure(w, r, err)
	if !ok {
		return
	}
	h.rejectAction(w, r, appErr)
}

// rejectAction answers a state-changing request refused before or by the remote API.
func (h *UIHandlers) rejectAction(w http.ResponseWriter, r *http.Request, appErr *apperrors.AppError) {
	if IsHTMX(r) {
		triggerToast(w, appErr.Message, "error")
		w.WriteHeader(apperrors.HTTPStatus(appErr.Code))
		return
	}
	if !IsBrowserRequest(r) {
		WriteAppError(w, appErr)
		return
	}
	h.renderErrorPage(w, r, appErr)
}

// panelError returns the inline message for a page section that failed to load.
func (h *UIHandlers) panelError(r *http.Request, err error) string {
	if h.Upstream != nil {
		h.Upstream.ObserveUpstreamError(err)
	}
	h.logger().WarnContext(r.Context(), "panel failed to load", "path", r.URL.Path, "error", err)
	var appErr *apperrors.AppError
	if errors.As(apperrors.MapUpstreamError(err), &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return h.t(r, "messages.panelError")
}
