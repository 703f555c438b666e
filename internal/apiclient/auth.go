package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
	"github.com/siamkarim/2mro-admin/internal/ports"
)

var _ ports.AuthAPI = (*Client)(nil)

// IdentityPaths are JMESPath expressions locating identity fields in the /auth/me body.
type IdentityPaths struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

func (p IdentityPaths) withDefaults() IdentityPaths {
	p.UserID = fallbackString(p.UserID, "id || user_id || sub")
	p.Email = fallbackString(p.Email, "email")
	p.Name = fallbackString(p.Name, "name || full_name || first_name")
	p.Role = fallbackString(p.Role, "role || user.role || roles[0]")
	return p
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshBody struct {
	RefreshToken string `json:"refresh_token"`
}

// Login exchanges credentials for a token pair. It never touches a TokenStore.
func (c *Client) Login(ctx context.Context, email, password string) (domainauth.TokenPair, error) {
	return c.tokenCall(ctx, PathLogin, credentials{Email: email, Password: password})
}

// Refresh exchanges a refresh token for a new pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (domainauth.TokenPair, error) {
	if refreshToken == "" {
		return domainauth.TokenPair{}, errors.New("refresh token is required")
	}
	return c.tokenCall(ctx, PathRefresh, refreshBody{RefreshToken: refreshToken})
}

func (c *Client) tokenCall(ctx context.Context, path string, payload any) (domainauth.TokenPair, error) {
	body, err := encodeBody(payload)
	if err != nil {
		return domainauth.TokenPair{}, err
	}
	resp, err := c.send(ctx, Request{Method: http.MethodPost, Path: path}, body, "")
	if err != nil {
		return domainauth.TokenPair{}, err
	}
	resp, err = c.result(resp)
	if err != nil {
		return domainauth.TokenPair{}, err
	}

	var pair domainauth.TokenPair
	if err := resp.Decode(&pair); err != nil {
		return domainauth.TokenPair{}, err
	}
	if pair.AccessToken == "" {
		return domainauth.TokenPair{}, fmt.Errorf("%s: response carried no access token", path)
	}
	return pair, nil
}

// Logout revokes the session upstream. Callers clear local state themselves.
func (c *Client) Logout(ctx context.Context, store ports.TokenStore) error {
	_, err := c.Do(ctx, store, Request{Method: http.MethodPost, Path: PathLogout})
	return err
}

// Me fetches the profile behind the current access token. The returned Role is
// empty when the body carries no recognizable role.
func (c *Client) Me(ctx context.Context, store ports.TokenStore) (domainauth.Identity, error) {
	resp, err := c.Do(ctx, store, Request{Method: http.MethodGet, Path: PathMe})
	if err != nil {
		return domainauth.Identity{}, err
	}

	id := domainauth.Identity{
		UserID: lookupString(c.idPaths.UserID, resp.Body),
		Email:  lookupString(c.idPaths.Email, resp.Body),
		Name:   lookupString(c.idPaths.Name, resp.Body),
	}
	if role, err := domainauth.ParseRole(lookupString(c.idPaths.Role, resp.Body)); err == nil {
		id.Role = role
	}
	return id, nil
}

func lookupString(expr string, body []byte) string {
	v, ok := searchJSON(expr, body)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
