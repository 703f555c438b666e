package httpx

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/siamkarim/2mro-admin/internal/domain/model"
	"github.com/siamkarim/2mro-admin/internal/http/validation"
)

// Users tabs.
const (
	usersTabTraders       = "traders"
	usersTabVerifications = "verifications"
)

// Users serves GET /users: the trader accounts table or the verification queue.
func (h *UIHandlers) Users(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	skip, limit := pageParams(q)
	accountType := model.ParseAccountType(q.Get("account_type"))
	tab := q.Get("tab")
	if tab != usersTabVerifications {
		tab = usersTabTraders
	}

	store := h.store(w, r)
	b := h.pageData(r, PageMeta{Title: "users.title", CurrentPage: PageUsers}).
		With("Tab", tab).
		With("AccountType", string(accountType))

	switch tab {
	case usersTabVerifications:
		items, err := h.API.UserVerifications(r.Context(), store, skip, limit, accountType)
		if err != nil {
			h.pageFailure(w, r, err)
			return
		}
		b.With("Verifications", items).WithPagination(PaginationData{
			Skip:     skip,
			Limit:    limit,
			Count:    len(items),
			HasNext:  len(items) == limit,
			BasePath: "/users",
		})
	default:
		page, err := h.API.Traders(r.Context(), store, skip, limit, accountType)
		if err != nil {
			h.pageFailure(w, r, err)
			return
		}
		b.With("Traders", page.Items).WithPagination(PaginationData{
			Skip:     skip,
			Limit:    limit,
			Count:    len(page.Items),
			Total:    page.Total,
			HasNext:  page.HasNext(),
			BasePath: "/users",
		})
	}
	h.renderPage(w, r, http.StatusOK, b.Build())
}

// TraderPositions serves GET /users/{id}/positions as a fragment.
func (h *UIHandlers) TraderPositions(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "id")
	if !ok {
		h.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	status := model.PositionStatus(q.Get("status"))
	switch status {
	case model.PositionOpen, model.PositionPending, model.PositionClosed:
	default:
		status = model.PositionOpen
	}
	accountID, _ := strconv.ParseInt(q.Get("account_id"), 10, 64)

	positions, err := h.API.TraderPositions(r.Context(), h.store(w, r), userID, status, accountID)
	if err != nil {
		h.actionFailure(w, r, err)
		return
	}
	data := h.pageData(r, PageMeta{CurrentPage: PageUsers}).
		With("UserID", userID).
		With("AccountID", accountID).
		With("Status", string(status)).
		With("Positions", positions).
		Build()
	h.renderFragment(w, "positions", data)
}

// TraderTransactions serves GET /users/{id}/transactions as a fragment.
func (h *UIHandlers) TraderTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "id")
	if !ok {
		h.NotFound(w, r)
		return
	}
	typ := model.TransactionType(r.URL.Query().Get("type"))
	if !typ.Valid() {
		typ = model.TransactionDeposit
	}
	txs, err := h.API.UserTransactions(r.Context(), h.store(w, r), userID, typ)
	if err != nil {
		h.actionFailure(w, r, err)
		return
	}
	data := h.pageData(r, PageMeta{CurrentPage: PageUsers}).
		With("UserID", userID).
		With("Type", string(typ)).
		With("Transactions", txs).
		Build()
	h.renderFragment(w, "transactions", data)
}

// UpdatePosition serves POST /users/{id}/positions/{positionID}.
func (h *UIHandlers) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	userID, okUser := pathID(r, "id")
	positionID, okPos := pathID(r, "positionID")
	if !okUser || !okPos {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	fv := validation.New().
		Validate("stop_loss", r.PostFormValue("stop_loss"), validation.PositiveNumber("Stop loss")).
		Validate("take_profit", r.PostFormValue("take_profit"), validation.PositiveNumber("Take profit")).
		Validate("volume", r.PostFormValue("volume"),
			validation.Required("Volume", 32), validation.PositiveNumber("Volume"))
	form := map[string]string{
		"stop_loss":   r.PostFormValue("stop_loss"),
		"take_profit": r.PostFormValue("take_profit"),
		"volume":      r.PostFormValue("volume"),
	}
	renderForm := func(w http.ResponseWriter, _ *http.Request, data map[string]any) {
		h.renderFragment(w, "position-form", data)
	}
	formData := func() *TemplateDataBuilder {
		return h.pageData(r, PageMeta{CurrentPage: PageUsers}).
			With("UserID", userID).
			With("PositionID", positionID).
			With("Form", form)
	}
	if !fv.Valid() {
		RenderError(ErrorOpts{W: w, R: r, FieldErrors: fv.Errors(), Renderer: renderForm, Data: formData()})
		return
	}

	upd := model.PositionUpdate{
		StopLoss:   parseAmount(form["stop_loss"]),
		TakeProfit: parseAmount(form["take_profit"]),
		Volume:     parseAmount(form["volume"]),
	}
	if err := h.API.UpdatePosition(r.Context(), h.store(w, r), userID, positionID, upd); err != nil {
		h.actionFailure(w, r, err)
		return
	}
	h.actionDone(w, r, "positions-updated")
}

// parseAmount parses a validated decimal field; blank is zero.
func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// actionDone answers a successful state-changing request: htmx callers get a
// toast plus refresh event, JSON callers 204, plain forms a redirect back.
func (h *UIHandlers) actionDone(w http.ResponseWriter, r *http.Request, event string) {
	switch {
	case IsHTMX(r):
		SetHXTriggers(w, map[string]any{
			event:       true,
			"showToast": map[string]string{"message": h.t(r, "messages.saved"), "type": "success"},
		})
		w.WriteHeader(http.StatusNoContent)
	case !IsBrowserRequest(r):
		w.WriteHeader(http.StatusNoContent)
	default:
		back := safeRedirectFromURL(r.Header.Get("Referer"))
		if back == "" {
			back = "/"
		}
		http.Redirect(w, r, back, http.StatusSeeOther)
	}
}
