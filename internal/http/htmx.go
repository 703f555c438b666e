package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// IsHTMX reports whether the request was initiated by htmx (Hx-Request: true).
func IsHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-Request"), "true")
}

// WantsPartial returns true when the handler should return only the main fragment (not full layout).
// Rule: partial for all HTMX requests except boosted navigations, which swap the whole body.
func WantsPartial(r *http.Request) bool {
	return IsHTMX(r) && !strings.EqualFold(r.Header.Get("Hx-Boosted"), "true")
}

// SetHXRedirect instructs htmx to redirect the browser to the given URL.
func SetHXRedirect(w http.ResponseWriter, url string) { w.Header().Set("Hx-Redirect", url) }

// SetHXTrigger triggers a client-side event after swap with optional payload.
// It sets the Hx-Trigger response header as a JSON object: {"<event>": <payload>}.
// If payload is nil, the value true is used for the event.
func SetHXTrigger(w http.ResponseWriter, event string, payload any) {
	var value any = true
	if payload != nil {
		value = payload
	}
	SetHXTriggers(w, map[string]any{event: value})
}

// SetHXTriggers fires several client-side events from one response.
func SetHXTriggers(w http.ResponseWriter, events map[string]any) {
	b, err := json.Marshal(events)
	if err != nil {
		return
	}
	w.Header().Set("Hx-Trigger", string(b))
}

// redirect sends the browser to url: htmx requests get Hx-Redirect with 200,
// everything else a 303 See Other.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if IsHTMX(r) {
		SetHXRedirect(w, url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// triggerToast asks the client to show a toast notification.
func triggerToast(w http.ResponseWriter, message, kind string) {
	SetHXTrigger(w, "showToast", map[string]string{"message": message, "type": kind})
}
