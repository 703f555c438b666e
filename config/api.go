package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// APIConfig points the console at the remote brokerage API.
type APIConfig struct {
	// BaseURL prefixes every remote call, e.g. "https://api.example.com/api/v1".
	BaseURL string        `env:"API_BASE_URL" envDefault:"http://localhost:8000"`
	Timeout time.Duration `env:"API_TIMEOUT"  envDefault:"15s"`

	// ErrorMessagePath is a JMESPath expression locating the message in error bodies.
	ErrorMessagePath string `env:"API_ERROR_MESSAGE_PATH" envDefault:"message || detail || error"`

	// JMESPath expressions locating identity fields in the /auth/me response.
	IdentityUserIDPath string `env:"API_IDENTITY_USER_ID_PATH" envDefault:"id || user_id || sub"`
	IdentityEmailPath  string `env:"API_IDENTITY_EMAIL_PATH"   envDefault:"email"`
	IdentityNamePath   string `env:"API_IDENTITY_NAME_PATH"    envDefault:"name || full_name || first_name"`
	IdentityRolePath   string `env:"API_IDENTITY_ROLE_PATH"    envDefault:"role || user.role || roles[0]"`
}

// Sanitize trims values and restores defaults for cleared durations.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.Timeout <= 0 {
		a.Timeout = 15 * time.Second
	}
	a.ErrorMessagePath = strings.TrimSpace(a.ErrorMessagePath)
	a.IdentityUserIDPath = strings.TrimSpace(a.IdentityUserIDPath)
	a.IdentityEmailPath = strings.TrimSpace(a.IdentityEmailPath)
	a.IdentityNamePath = strings.TrimSpace(a.IdentityNamePath)
	a.IdentityRolePath = strings.TrimSpace(a.IdentityRolePath)
}

// Validate requires an absolute http(s) base URL.
func (a *APIConfig) Validate() error {
	if a.BaseURL == "" {
		return errors.New("API_BASE_URL is required")
	}
	u, err := url.Parse(a.BaseURL)
	if err != nil {
		return fmt.Errorf("API_BASE_URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", a.BaseURL)
	}
	return nil
}
