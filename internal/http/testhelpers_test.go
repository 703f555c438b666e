package httpx

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siamkarim/2mro-admin/internal/adapters/cookiestore"
	"github.com/siamkarim/2mro-admin/internal/authctx"
	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
	"github.com/siamkarim/2mro-admin/internal/domain/model"
	"github.com/siamkarim/2mro-admin/internal/domain/rbac"
	"github.com/siamkarim/2mro-admin/internal/i18n"
	"github.com/siamkarim/2mro-admin/internal/ports"
	"github.com/siamkarim/2mro-admin/internal/service"
)

// RequireTemplateRenderer creates a TemplateRenderer over the on-disk templates,
// skipping the test when they are not available.
func RequireTemplateRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS: os.DirFS(TemplatePathFromTest),
		Translator: i18n.MustLoad(),
	})
	if err != nil {
		t.Skipf("Templates not available, skipping: %v", err)
		return nil
	}
	return tr
}

// ContainsAll checks if a string contains all the given substrings.
func ContainsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// newTestUI returns UIHandlers backed by the real templates and catalog.
func newTestUI(t *testing.T, api ConsoleAPI) *UIHandlers {
	t.Helper()
	catalog := i18n.MustLoad()
	return &UIHandlers{
		T:        RequireTemplateRenderer(t),
		API:      api,
		Registry: rbac.Default(),
		Locales:  catalog,
		Messages: catalog,
	}
}

// withRole roots an Auth/Role Context for role on r, as RequireSession would.
func withRole(r *http.Request, role domainauth.Role) *http.Request {
	return r.WithContext(withProviderFor(r, domainauth.Session{Identity: identityFor(role)}))
}

func withProviderFor(r *http.Request, sess domainauth.Session) context.Context {
	ctx := authctx.WithProvider(r.Context(), authctx.NewProvider(sess))
	return SetSessionInContext(ctx, &sess)
}

func htmxRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Hx-Request", "true")
	return req
}

func jsonRequest(method, target string, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Accept", "application/json")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func withAccessCookie(r *http.Request) *http.Request {
	r.AddCookie(&http.Cookie{Name: cookiestore.AccessCookie, Value: "access-token"})
	r.AddCookie(&http.Cookie{Name: cookiestore.RefreshCookie, Value: "refresh-token"})
	return r
}

// fakeConsoleAPI is a ConsoleAPI returning canned data and recording writes.
type fakeConsoleAPI struct {
	mu sync.Mutex

	summary       model.Summary
	summaryErr    error
	marginCalls   []model.MarginCall
	marginErr     error
	online        []model.ActiveUser
	onlineErr     error
	traders       model.TraderPage
	tradersErr    error
	verifications []model.UserVerification
	positions     []model.Position
	transactions  []model.Transaction
	pending       map[model.TransactionType][]model.PendingTransaction
	pendingErr    error
	bank          model.BankSettings
	bankErr       error
	wallets       []model.CryptoWallet
	admins        []model.AdminUser
	adminsErr     error
	// writeErr fails every state-changing call.
	writeErr error

	calls []string
}

func (f *fakeConsoleAPI) record(format string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return f.writeErr
}

func (f *fakeConsoleAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeConsoleAPI) Summary(context.Context, ports.TokenStore) (model.Summary, error) {
	return f.summary, f.summaryErr
}

func (f *fakeConsoleAPI) MarginCalls(context.Context, ports.TokenStore) ([]model.MarginCall, error) {
	return f.marginCalls, f.marginErr
}

func (f *fakeConsoleAPI) OnlineUsers(context.Context, ports.TokenStore, int) ([]model.ActiveUser, error) {
	return f.online, f.onlineErr
}

func (f *fakeConsoleAPI) Traders(_ context.Context, _ ports.TokenStore, skip, limit int, accountType model.AccountType) (model.TraderPage, error) {
	_ = f.record("Traders %d %d %s", skip, limit, accountType)
	page := f.traders
	page.Skip, page.Limit = skip, limit
	return page, f.tradersErr
}

func (f *fakeConsoleAPI) UserVerifications(_ context.Context, _ ports.TokenStore, skip, limit int, accountType model.AccountType) ([]model.UserVerification, error) {
	_ = f.record("UserVerifications %d %d %s", skip, limit, accountType)
	return f.verifications, nil
}

func (f *fakeConsoleAPI) TraderPositions(_ context.Context, _ ports.TokenStore, userID int64, status model.PositionStatus, accountID int64) ([]model.Position, error) {
	_ = f.record("TraderPositions %d %s %d", userID, status, accountID)
	return f.positions, nil
}

func (f *fakeConsoleAPI) UpdatePosition(_ context.Context, _ ports.TokenStore, userID, positionID int64, upd model.PositionUpdate) error {
	return f.record("UpdatePosition %d %d %v %v %v", userID, positionID, upd.StopLoss, upd.TakeProfit, upd.Volume)
}

func (f *fakeConsoleAPI) UserTransactions(_ context.Context, _ ports.TokenStore, userID int64, typ model.TransactionType) ([]model.Transaction, error) {
	_ = f.record("UserTransactions %d %s", userID, typ)
	return f.transactions, nil
}

func (f *fakeConsoleAPI) PendingTransactions(_ context.Context, _ ports.TokenStore, typ model.TransactionType) ([]model.PendingTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending[typ], f.pendingErr
}

func (f *fakeConsoleAPI) ApproveTransaction(_ context.Context, _ ports.TokenStore, id int64) error {
	return f.record("ApproveTransaction %d", id)
}

func (f *fakeConsoleAPI) RejectTransaction(_ context.Context, _ ports.TokenStore, id int64, reason string) error {
	return f.record("RejectTransaction %d %s", id, reason)
}

func (f *fakeConsoleAPI) GlobalBank(context.Context, ports.TokenStore) (model.BankSettings, error) {
	return f.bank, f.bankErr
}

func (f *fakeConsoleAPI) UpdateGlobalBank(_ context.Context, _ ports.TokenStore, bank model.BankSettings) error {
	return f.record("UpdateGlobalBank %s %s", bank.BankName, bank.BankIBAN)
}

func (f *fakeConsoleAPI) CryptoWallets(context.Context, ports.TokenStore) ([]model.CryptoWallet, error) {
	return f.wallets, nil
}

func (f *fakeConsoleAPI) AddCryptoWallet(_ context.Context, _ ports.TokenStore, w model.CryptoWallet) error {
	return f.record("AddCryptoWallet %s %s %s", w.Symbol, w.Network, w.Address)
}

func (f *fakeConsoleAPI) UpdateCryptoWallet(_ context.Context, _ ports.TokenStore, w model.CryptoWallet) error {
	return f.record("UpdateCryptoWallet %d %s", w.ID, w.Symbol)
}

func (f *fakeConsoleAPI) DeleteCryptoWallet(_ context.Context, _ ports.TokenStore, id int64) error {
	return f.record("DeleteCryptoWallet %d", id)
}

func (f *fakeConsoleAPI) AdminUsers(context.Context, ports.TokenStore) ([]model.AdminUser, error) {
	return f.admins, f.adminsErr
}

func (f *fakeConsoleAPI) CreateAdminUser(_ context.Context, _ ports.TokenStore, in model.AdminUserInput) error {
	return f.record("CreateAdminUser %s %s %s %t", in.Name, in.Email, in.Role, in.Password != "")
}

func (f *fakeConsoleAPI) UpdateAdminUser(_ context.Context, _ ports.TokenStore, id int64, in model.AdminUserInput) error {
	return f.record("UpdateAdminUser %d %s %s %t", id, in.Email, in.Role, in.Password != "")
}

func (f *fakeConsoleAPI) DeleteAdminUser(_ context.Context, _ ports.TokenStore, id int64) error {
	return f.record("DeleteAdminUser %d", id)
}

func (f *fakeConsoleAPI) AssignTraders(_ context.Context, _ ports.TokenStore, id int64, traderIDs []int64) error {
	return f.record("AssignTraders %d %v", id, traderIDs)
}

// fakeSessions is a SessionManager over the request's token store.
type fakeSessions struct {
	identity    domainauth.Identity
	identifyErr error
	loginErr    error
	logoutErr   error

	mu      sync.Mutex
	logins  []string
	logouts int
}

func (f *fakeSessions) Login(_ context.Context, store ports.TokenStore, email, _ string) (*service.LoginResult, error) {
	f.mu.Lock()
	f.logins = append(f.logins, email)
	f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	store.Set(domainauth.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, 0, 0)
	return &service.LoginResult{Identity: f.identity, RedirectTo: "/dashboard"}, nil
}

func (f *fakeSessions) Logout(_ context.Context, store ports.TokenStore) error {
	f.mu.Lock()
	f.logouts++
	f.mu.Unlock()
	store.Clear()
	return f.logoutErr
}

func (f *fakeSessions) Identify(_ context.Context, store ports.TokenStore) (domainauth.Identity, error) {
	if store.Get(domainauth.TokenAccess) == "" {
		return domainauth.Identity{}, service.ErrNotAuthenticated
	}
	if f.identifyErr != nil {
		return domainauth.Identity{}, f.identifyErr
	}
	return f.identity, nil
}

func (f *fakeSessions) HomePath() string { return "/dashboard" }

// newTestRouter builds the full router over the on-disk templates.
func newTestRouter(t *testing.T, sessions *fakeSessions, api *fakeConsoleAPI) http.Handler {
	t.Helper()
	if _, err := os.Stat(TemplatePathFromTest); err != nil {
		t.Skip("Templates not available, skipping router test")
	}
	h, err := NewRouter(RouterServices{
		Sessions:   sessions,
		API:        api,
		Catalog:    i18n.MustLoad(),
		Guard:      GuardConfig{RedirectAuthenticatedEntry: true},
		TemplateFS: os.DirFS(TemplatePathFromTest),
		StaticFS:   os.DirFS("../../web/static"),
	})
	require.NoError(t, err)
	return h
}

func identityFor(role domainauth.Role) domainauth.Identity {
	return domainauth.Identity{UserID: "7", Email: "ops@example.com", Name: "Ops", Role: role}
}
