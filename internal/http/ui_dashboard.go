package httpx

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/siamkarim/2mro-admin/internal/domain/model"
	apperrors "github.com/siamkarim/2mro-admin/internal/errors"
)

// dashboardData is everything the dashboard shows; each panel loads independently.
type dashboardData struct {
	Summary     panel[model.Summary]
	MarginCalls panel[[]model.MarginCall]
	OnlineUsers panel[[]model.ActiveUser]
}

// Dashboard serves GET /dashboard.
func (h *UIHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.loadDashboard(w, r)
	if err != nil {
		h.pageFailure(w, r, err)
		return
	}
	data := h.pageData(r, PageMeta{Title: "dashboard.title", CurrentPage: PageDashboard}).
		With("Summary", dash.Summary).
		With("MarginCalls", dash.MarginCalls).
		With("OnlineUsers", dash.OnlineUsers).
		Build()
	h.renderPage(w, r, http.StatusOK, data)
}

// loadDashboard fetches the panels concurrently. A failing panel carries an inline
// message; only a lost session aborts the whole page.
func (h *UIHandlers) loadDashboard(w http.ResponseWriter, r *http.Request) (dashboardData, error) {
	store := h.store(w, r)
	var out dashboardData
	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error {
		s, err := h.API.Summary(ctx, store)
		out.Summary = panel[model.Summary]{Data: s}
		return h.panelOutcome(r, err, &out.Summary.Error)
	})
	g.Go(func() error {
		calls, err := h.API.MarginCalls(ctx, store)
		out.MarginCalls = panel[[]model.MarginCall]{Data: calls}
		return h.panelOutcome(r, err, &out.MarginCalls.Error)
	})
	g.Go(func() error {
		users, err := h.API.OnlineUsers(ctx, store, OnlineUsersLimit)
		out.OnlineUsers = panel[[]model.ActiveUser]{Data: users}
		return h.panelOutcome(r, err, &out.OnlineUsers.Error)
	})

	if err := g.Wait(); err != nil {
		return dashboardData{}, err
	}
	return out, nil
}

// panelOutcome records a panel failure in msg and returns only errors that must
// abort the page: a lost session or a client that went away.
func (h *UIHandlers) panelOutcome(r *http.Request, err error, msg *string) error {
	if err == nil {
		return nil
	}
	mapped := apperrors.MapUpstreamError(err)
	if apperrors.IsUnauthenticated(mapped) || r.Context().Err() != nil {
		return err
	}
	*msg = h.panelError(r, err)
	return nil
}
