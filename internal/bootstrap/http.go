package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/siamkarim/2mro-admin/config"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	HTTP    config.HTTPConfig
	Handler http.Handler
	Logger  *slog.Logger
	// Listener overrides binding HTTP.Addr (tests use an ephemeral port).
	Listener net.Listener
}

// StartHTTPServer creates and starts the HTTP server in the background.
// Returns the server instance for graceful shutdown and a channel that
// receives the serve error, if any.
func StartHTTPServer(cfg HTTPServerConfig) (*http.Server, <-chan error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	addr := cfg.HTTP.Addr
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           cfg.Handler,
		ReadTimeout:       fallback(cfg.HTTP.ReadTimeout, 30*time.Second),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      fallback(cfg.HTTP.WriteTimeout, 30*time.Second),
		IdleTimeout:       fallback(cfg.HTTP.IdleTimeout, 120*time.Second),
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.Listener != nil {
			logger.Info("starting HTTP server", "addr", cfg.Listener.Addr().String())
			err = server.Serve(cfg.Listener)
		} else {
			logger.Info("starting HTTP server", "addr", server.Addr)
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			errCh <- err
		}
		close(errCh)
	}()

	return server, errCh
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Timeout time.Duration
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, fallback(cfg.Timeout, 10*time.Second))
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}

// ServeConfig contains what Serve needs to run until shutdown.
type ServeConfig struct {
	HTTP    config.HTTPConfig
	Handler http.Handler
	Logger  *slog.Logger
}

// Serve runs the HTTP server until ctx is canceled, SIGINT or SIGTERM arrives,
// or the server fails, then shuts it down gracefully.
func Serve(ctx context.Context, cfg ServeConfig) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, errCh := StartHTTPServer(HTTPServerConfig{HTTP: cfg.HTTP, Handler: cfg.Handler, Logger: logger})

	select {
	case <-ctx.Done():
		logger.Info("shutting down services...")
		// the parent context is already done; shutdown gets a fresh deadline
		return ShutdownHTTPServer(ShutdownConfig{
			Context: context.WithoutCancel(ctx),
			Server:  server,
			Timeout: cfg.HTTP.ShutdownTimeout,
			Logger:  logger,
		})
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return err
	}
}

func fallback(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
