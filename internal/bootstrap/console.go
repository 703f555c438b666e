package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/siamkarim/2mro-admin/config"
	"github.com/siamkarim/2mro-admin/internal/adapters/cookiestore"
	"github.com/siamkarim/2mro-admin/internal/adapters/jwtclaims"
	"github.com/siamkarim/2mro-admin/internal/adapters/lrucache"
	redisadapter "github.com/siamkarim/2mro-admin/internal/adapters/redis"
	"github.com/siamkarim/2mro-admin/internal/apiclient"
	httpx "github.com/siamkarim/2mro-admin/internal/http"
	"github.com/siamkarim/2mro-admin/internal/i18n"
	"github.com/siamkarim/2mro-admin/internal/observability/metrics"
	"github.com/siamkarim/2mro-admin/internal/ports"
	"github.com/siamkarim/2mro-admin/internal/service"
)

// ConsoleDeps contains what BuildConsole needs beyond configuration.
type ConsoleDeps struct {
	Config *config.AppConfig
	// Redis is optional. When set, identities are cached in Redis instead of in-process.
	Redis redis.UniversalClient
	// HTTPClient overrides the client used for remote API calls.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Console is the assembled application.
type Console struct {
	Handler  http.Handler
	Sessions *service.SessionService
	API      *apiclient.Client
	// Metrics is nil when metrics exposition is disabled.
	Metrics *metrics.Metrics
}

// BuildConsole wires the remote API client, identity resolution, sessions and
// the HTTP router from cfg.
func BuildConsole(deps ConsoleDeps) (*Console, error) {
	if deps.Config == nil {
		return nil, errors.New("console config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var m *metrics.Metrics
	metricsPath := ""
	if cfg.Observability.Metrics.IsEnabled() {
		m = metrics.New(prometheus.NewRegistry())
		metricsPath = cfg.Observability.Metrics.Path
	}

	api, err := buildAPIClient(cfg, deps.HTTPClient, m, logger)
	if err != nil {
		return nil, err
	}

	resolver, healthChecks, err := buildIdentityResolver(identityDeps{
		cfg:     cfg,
		api:     api,
		redis:   deps.Redis,
		metrics: m,
		logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	sessions := service.NewSessionService(service.SessionServiceOptions{
		API:        api,
		Identity:   resolver,
		Forgetter:  resolver,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
		HomePath:   cfg.Auth.HomePath,
		Logger:     logger,
		Observer:   m,
	})

	catalog, err := i18n.Load()
	if err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}

	handler, err := httpx.NewRouter(httpx.RouterServices{
		Sessions:    sessions,
		API:         api,
		Catalog:     catalog,
		Metrics:     m,
		MetricsPath: metricsPath,
		Cookies:     cookiestore.Options{Domain: cfg.HTTP.CookieDomain},
		Guard: httpx.GuardConfig{
			EntryPath:                  cfg.Auth.EntryPath,
			HomePath:                   cfg.Auth.HomePath,
			RedirectAuthenticatedEntry: cfg.Auth.RedirectAuthenticatedEntry,
		},
		HealthChecks:   healthChecks,
		CurrencySymbol: cfg.HTTP.CurrencySymbol,
		Compression: httpx.CompressionConfig{
			Level:   cfg.HTTP.CompressionLevel,
			MinSize: cfg.HTTP.CompressionMinSize,
		},
		IsDev:  cfg.IsDev,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	return &Console{Handler: handler, Sessions: sessions, API: api, Metrics: m}, nil
}

func buildAPIClient(cfg *config.AppConfig, hc *http.Client, m *metrics.Metrics, logger *slog.Logger) (*apiclient.Client, error) {
	paths := map[string]string{
		"API_ERROR_MESSAGE_PATH":    cfg.API.ErrorMessagePath,
		"API_IDENTITY_USER_ID_PATH": cfg.API.IdentityUserIDPath,
		"API_IDENTITY_EMAIL_PATH":   cfg.API.IdentityEmailPath,
		"API_IDENTITY_NAME_PATH":    cfg.API.IdentityNamePath,
		"API_IDENTITY_ROLE_PATH":    cfg.API.IdentityRolePath,
	}
	for name, expr := range paths {
		if err := apiclient.ValidateExpression(expr); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	client, err := apiclient.New(apiclient.Config{
		BaseURL:          cfg.API.BaseURL,
		HTTPClient:       hc,
		Timeout:          cfg.API.Timeout,
		ErrorMessagePath: cfg.API.ErrorMessagePath,
		IdentityPaths: apiclient.IdentityPaths{
			UserID: cfg.API.IdentityUserIDPath,
			Email:  cfg.API.IdentityEmailPath,
			Name:   cfg.API.IdentityNamePath,
			Role:   cfg.API.IdentityRolePath,
		},
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
		Logger:     logger,
		Observer:   m,
	})
	if err != nil {
		return nil, fmt.Errorf("api client: %w", err)
	}
	return client, nil
}

type identityDeps struct {
	cfg     *config.AppConfig
	api     *apiclient.Client
	redis   redis.UniversalClient
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func buildIdentityResolver(deps identityDeps) (*service.IdentityResolver, map[string]httpx.HealthCheck, error) {
	auth := deps.cfg.Auth
	strategy, err := service.ParseIdentityStrategy(string(auth.IdentityStrategy))
	if err != nil {
		return nil, nil, err
	}

	var (
		cache  ports.IdentityCache
		checks map[string]httpx.HealthCheck
	)
	if deps.redis != nil {
		rc := redisadapter.NewIdentityCacheWithPrefix(deps.redis, deps.cfg.Redis.KeyPrefix)
		cache = rc
		checks = map[string]httpx.HealthCheck{"redis": rc.Health}
		deps.logger.Info("identity cache backed by redis", "prefix", deps.cfg.Redis.KeyPrefix)
	} else {
		cache = lrucache.New(auth.IdentityCacheSize, auth.IdentityCacheTTL)
		deps.logger.Info("identity cache in-process", "size", auth.IdentityCacheSize)
	}

	var claims service.ClaimsParser
	if strategy != service.StrategyRemote {
		claims = jwtclaims.NewParser(jwtclaims.Config{
			Secret:    auth.TokenSecret,
			RoleClaim: auth.RoleClaim,
			Leeway:    auth.TokenLeeway,
		})
	}

	resolver, err := service.NewIdentityResolver(service.IdentityResolverOptions{
		Strategy: strategy,
		Claims:   claims,
		Remote:   deps.api,
		Cache:    cache,
		CacheTTL: auth.IdentityCacheTTL,
		Logger:   deps.logger,
		Observer: deps.metrics,

		Refresher: deps.api,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("identity resolver: %w", err)
	}
	return resolver, checks, nil
}
