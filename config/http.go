package config

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// CurrencySymbol prefixes amounts rendered by the currency template func.
	CurrencySymbol string `env:"APP_CURRENCY_SYMBOL" envDefault:"$"`

	// CompressionLevel is the gzip level for HTML, JSON and static text (1-9).
	CompressionLevel int `env:"HTTP_COMPRESSION_LEVEL" envDefault:"6"`
	// CompressionMinSize is the smallest body gzipped, in bytes.
	CompressionMinSize int `env:"HTTP_COMPRESSION_MIN_SIZE" envDefault:"1024"`

	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.Addr = strings.TrimSpace(h.Addr)
	if h.Addr == "" {
		h.Addr = ":8080"
	}
	// a leading dot is legacy cookie syntax; browsers ignore it
	h.CookieDomain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h.CookieDomain)), ".")

	if h.CompressionLevel < 1 || h.CompressionLevel > 9 {
		h.CompressionLevel = 6
	}
	if h.CompressionMinSize < 0 {
		h.CompressionMinSize = 1024
	}

	if h.ReadTimeout <= 0 {
		h.ReadTimeout = 30 * time.Second
	}
	if h.WriteTimeout <= 0 {
		h.WriteTimeout = 30 * time.Second
	}
	if h.IdleTimeout <= 0 {
		h.IdleTimeout = 120 * time.Second
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 10 * time.Second
	}
}

// Validate rejects a cookie domain browsers would refuse, such as a bare
// public suffix ("com", "co.uk") or an address with a port.
func (h *HTTPConfig) Validate() error {
	return ValidateCookieDomain(h.CookieDomain)
}

// ValidateCookieDomain checks domain against the public suffix list. Empty is valid.
func ValidateCookieDomain(domain string) error {
	if domain == "" || domain == "localhost" {
		return nil
	}
	if strings.ContainsAny(domain, ":/ ") {
		return fmt.Errorf("cookie domain %q must be a bare host name", domain)
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(domain); err != nil {
		return fmt.Errorf("cookie domain %q: %w", domain, err)
	}
	return nil
}
