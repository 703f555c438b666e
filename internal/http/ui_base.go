package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/siamkarim/2mro-admin/internal/adapters/cookiestore"
	"github.com/siamkarim/2mro-admin/internal/apiclient"
	"github.com/siamkarim/2mro-admin/internal/domain/model"
	"github.com/siamkarim/2mro-admin/internal/domain/rbac"
	"github.com/siamkarim/2mro-admin/internal/ports"
)

// ConsoleAPI is the set of brokerage API calls the console pages make.
type ConsoleAPI interface {
	Summary(ctx context.Context, store ports.TokenStore) (model.Summary, error)
	MarginCalls(ctx context.Context, store ports.TokenStore) ([]model.MarginCall, error)
	OnlineUsers(ctx context.Context, store ports.TokenStore, limit int) ([]model.ActiveUser, error)

	Traders(ctx context.Context, store ports.TokenStore, skip, limit int, accountType model.AccountType) (model.TraderPage, error)
	UserVerifications(ctx context.Context, store ports.TokenStore, skip, limit int, accountType model.AccountType) ([]model.UserVerification, error)
	TraderPositions(ctx context.Context, store ports.TokenStore, userID int64, status model.PositionStatus, accountID int64) ([]model.Position, error)
	UpdatePosition(ctx context.Context, store ports.TokenStore, userID, positionID int64, upd model.PositionUpdate) error
	UserTransactions(ctx context.Context, store ports.TokenStore, userID int64, typ model.TransactionType) ([]model.Transaction, error)

	PendingTransactions(ctx context.Context, store ports.TokenStore, typ model.TransactionType) ([]model.PendingTransaction, error)
	ApproveTransaction(ctx context.Context, store ports.TokenStore, id int64) error
	RejectTransaction(ctx context.Context, store ports.TokenStore, id int64, reason string) error
	GlobalBank(ctx context.Context, store ports.TokenStore) (model.BankSettings, error)
	UpdateGlobalBank(ctx context.Context, store ports.TokenStore, bank model.BankSettings) error
	CryptoWallets(ctx context.Context, store ports.TokenStore) ([]model.CryptoWallet, error)
	AddCryptoWallet(ctx context.Context, store ports.TokenStore, w model.CryptoWallet) error
	UpdateCryptoWallet(ctx context.Context, store ports.TokenStore, w model.CryptoWallet) error
	DeleteCryptoWallet(ctx context.Context, store ports.TokenStore, id int64) error

	AdminUsers(ctx context.Context, store ports.TokenStore) ([]model.AdminUser, error)
	CreateAdminUser(ctx context.Context, store ports.TokenStore, in model.AdminUserInput) error
	UpdateAdminUser(ctx context.Context, store ports.TokenStore, id int64, in model.AdminUserInput) error
	DeleteAdminUser(ctx context.Context, store ports.TokenStore, id int64) error
	AssignTraders(ctx context.Context, store ports.TokenStore, id int64, traderIDs []int64) error
}

// Compile-time interface assertion to ensure the gateway client satisfies the UI interface.
var _ ConsoleAPI = (*apiclient.Client)(nil)

// UpstreamErrorObserver classifies failed API calls; *metrics.Metrics satisfies it.
type UpstreamErrorObserver interface {
	ObserveUpstreamError(err error)
}

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T        *TemplateRenderer
	API      ConsoleAPI
	Registry *rbac.Registry
	Locales  LocaleResolver
	Messages Translator
	Cookies  cookiestore.Options
	Upstream UpstreamErrorObserver
	IsDev    bool // Development mode flag for enhanced error reporting
	Logger   *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *UIHandlers) registry() *rbac.Registry {
	if h.Registry != nil {
		return h.Registry
	}
	return rbac.Default()
}

func (h *UIHandlers) layout() layoutDeps {
	return layoutDeps{registry: h.registry(), locales: h.Locales}
}

// store returns the token store for this exchange.
func (h *UIHandlers) store(w http.ResponseWriter, r *http.Request) ports.TokenStore {
	return tokenStoreFor(w, r, h.Cookies)
}

// pageData starts the template data for a page.
func (h *UIHandlers) pageData(r *http.Request, meta PageMeta) *TemplateDataBuilder {
	return newTemplateData(r, meta, h.layout())
}

// t translates key for the request's locale.
func (h *UIHandlers) t(r *http.Request, key string, args ...any) string {
	if h.Messages == nil {
		return key
	}
	locale := "en"
	if h.Locales != nil {
		locale = h.Locales.FromRequest(r)
	}
	return h.Messages.T(locale, key, args...)
}

// renderPage renders data as a full page, or only the content area for htmx swaps.
func (h *UIHandlers) renderPage(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	tmpl := "layout"
	if WantsPartial(r) {
		tmpl = "content"
	}
	if err := h.T.Render(w, RenderOpts{Template: tmpl, Status: status, Data: data}); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// renderFragment renders one named partial.
func (h *UIHandlers) renderFragment(w http.ResponseWriter, name string, data map[string]any) {
	if err := h.T.Render(w, RenderOpts{Template: name, Data: data}); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// NoAccess renders the fixed fallback shown when the active role may not reach a page.
func (h *UIHandlers) NoAccess(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(r, PageMeta{Title: "messages.noAccessTitle", CurrentPage: PageNoAccess}).Build()
	h.renderPage(w, r, http.StatusForbidden, data)
}

// NotFound renders the not-found page for unmatched browser routes.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBrowserRequest(r) {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errNotFound})
		return
	}
	data := h.pageData(r, PageMeta{Title: "errors.notFound", CurrentPage: PageNotFound}).Build()
	h.renderPage(w, r, http.StatusNotFound, data)
}

// pageParams parses skip/limit with sane defaults and bounds.
func pageParams(q url.Values) (int, int) {
	skip, limit := 0, DefaultPageSize
	if s := q.Get("skip"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			skip = n
		}
	}
	if s := q.Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = min(n, MaxPageSize)
		}
	}
	return skip, limit
}

// pathID parses a numeric path value.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// panel is one independently loaded section of a page.
type panel[T any] struct {
	Data  T
	Error string
}
