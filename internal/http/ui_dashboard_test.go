package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/siamkarim/2mro-admin/internal/apiclient"
	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
	"github.com/siamkarim/2mro-admin/internal/domain/model"
)

func TestDashboard_RendersEveryPanel(t *testing.T) {
	api := &fakeConsoleAPI{
		summary:     model.Summary{TotalUsers: 12, OnlineUsers: 3},
		marginCalls: []model.MarginCall{{UserID: 41, UserName: "margin-trader", MarginLevel: 42.5, Margin: 900}},
		online:      []model.ActiveUser{{UserID: 52, FirstName: "Ada", UserName: "online-trader", LastActivity: "2026-10-14T08:00:00Z"}},
	}
	h := newTestUI(t, api)

	rec := httptest.NewRecorder()
	h.Dashboard(rec, withRole(httptest.NewRequest(http.MethodGet, "/dashboard", nil), domainauth.RoleRetention))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, ContainsAll(body, []string{"margin-trader", "42.5%", "online-trader", "2026-10-14T08:00:00Z"}))
	assert.Contains(t, body, "<html", "full page for a plain navigation")
}

func TestDashboard_PanelFailureStaysInline(t *testing.T) {
	api := &fakeConsoleAPI{
		summary:   model.Summary{TotalUsers: 5},
		marginErr: &apiclient.APIError{StatusCode: http.StatusServiceUnavailable, Message: "margin service is down"},
		online:    []model.ActiveUser{{UserID: 52, UserName: "still-here"}},
	}
	obs := &countingObserver{}
	h := newTestUI(t, api)
	h.Upstream = obs

	rec := httptest.NewRecorder()
	h.Dashboard(rec, withRole(htmxRequest(http.MethodGet, "/dashboard", ""), domainauth.RoleManager))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "margin service is down")
	assert.Contains(t, body, "still-here", "other panels still render")
	assert.NotContains(t, body, "<html", "htmx gets only the content area")
	assert.Len(t, obs.errs, 1)
}

func TestDashboard_LostSessionRedirects(t *testing.T) {
	api := &fakeConsoleAPI{
		summaryErr: &apiclient.APIError{StatusCode: http.StatusUnauthorized},
	}
	h := newTestUI(t, api)

	rec := httptest.NewRecorder()
	h.Dashboard(rec, withRole(httptest.NewRequest(http.MethodGet, "/dashboard", nil), domainauth.RoleManager))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}
