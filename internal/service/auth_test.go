package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/siamkarim/2mro-admin/internal/apiclient"
	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
	"github.com/siamkarim/2mro-admin/internal/mocks"
	mockauth "github.com/siamkarim/2mro-admin/internal/mocks/auth"
	"github.com/siamkarim/2mro-admin/internal/ports"
)

type recordingLoginObserver struct{ results []string }

func (o *recordingLoginObserver) ObserveLogin(result string) { o.results = append(o.results, result) }

type stubForgetter struct {
	calls int
	err   error
}

func (f *stubForgetter) Forget(context.Context, ports.TokenStore) error {
	f.calls++
	return f.err
}

func newSessionService(t *testing.T) (*mocks.MockAuthAPI, *mocks.MockIdentityResolver, *recordingLoginObserver, *SessionService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	api := mocks.NewMockAuthAPI(ctrl)
	resolver := mocks.NewMockIdentityResolver(ctrl)
	obs := &recordingLoginObserver{}

	svc := NewSessionService(SessionServiceOptions{
		API:      api,
		Identity: resolver,
		Observer: obs,
	})
	return api, resolver, obs, svc
}

func TestNewSessionService_Defaults(t *testing.T) {
	svc := NewSessionService(SessionServiceOptions{API: mockauth.NewMockAuthAPI()})

	assert.Equal(t, 24*time.Hour, svc.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, svc.refreshTTL)
	assert.Equal(t, "/dashboard", svc.HomePath())
}

func TestSessionService_Login_Success(t *testing.T) {
	t.Parallel()
	api, resolver, obs, svc := newSessionService(t)

	ctx := context.Background()
	store := mockauth.NewMemoryTokenStore()
	pair := domainauth.TokenPair{AccessToken: "at-1", RefreshToken: "rt-1"}
	want := domainauth.Identity{UserID: "u1", Email: "ops@example.com", Role: domainauth.RoleManager}

	api.EXPECT().Login(ctx, "ops@example.com", "s3cret").Return(pair, nil).Times(1)
	resolver.EXPECT().Resolve(ctx, store).Return(want, nil).Times(1)

	res, err := svc.Login(ctx, store, " ops@example.com ", "s3cret")

	require.NoError(t, err)
	assert.Equal(t, "/dashboard", res.RedirectTo)
	assert.Equal(t, want, res.Identity)
	assert.Equal(t, "at-1", store.Get(domainauth.TokenAccess))
	assert.Equal(t, "rt-1", store.Get(domainauth.TokenRefresh))
	assert.Equal(t, []string{LoginSuccess}, obs.results)
}

func TestSessionService_Login_AppliesTokenLifetimes(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mocks.NewMockAuthAPI(ctrl)
	api.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domainauth.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store := mockauth.NewMemoryTokenStore()
	store.Now = func() time.Time { return now }

	svc := NewSessionService(SessionServiceOptions{API: api, AccessTTL: time.Hour, RefreshTTL: 2 * time.Hour})
	_, err := svc.Login(context.Background(), store, "a@b.c", "pw")
	require.NoError(t, err)

	now = now.Add(90 * time.Minute)
	assert.Empty(t, store.Get(domainauth.TokenAccess), "access token outlived its TTL")
	assert.Equal(t, "r", store.Get(domainauth.TokenRefresh))
}

func TestSessionService_Login_MissingCredentials(t *testing.T) {
	t.Parallel()
	_, _, obs, svc := newSessionService(t)
	store := mockauth.NewMemoryTokenStore()

	for _, tc := range []struct{ email, password string }{{"", "pw"}, {"   ", "pw"}, {"a@b.c", ""}} {
		res, err := svc.Login(context.Background(), store, tc.email, tc.password)
		require.ErrorIs(t, err, ErrMissingCredentials)
		assert.Nil(t, res)
	}
	assert.Equal(t, 0, store.SetCalls)
	assert.Equal(t, []string{LoginInvalid, LoginInvalid, LoginInvalid}, obs.results)
}

func TestSessionService_Login_Failure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "server message is shown verbatim",
			err:     &apiclient.APIError{StatusCode: http.StatusUnauthorized, Message: "Account is locked"},
			wantMsg: "Account is locked",
		},
		{
			name:    "no server message falls back",
			err:     &apiclient.APIError{StatusCode: http.StatusUnauthorized},
			wantMsg: DefaultLoginFailureMessage,
		},
		{
			name:    "transport failure falls back",
			err:     errors.New("dial tcp: connection refused"),
			wantMsg: DefaultLoginFailureMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, _, obs, svc := newSessionService(t)
			store := mockauth.NewMemoryTokenStoreWith(domainauth.TokenPair{AccessToken: "old", RefreshToken: "old-r"})

			api.EXPECT().Login(gomock.Any(), "a@b.c", "bad").Return(domainauth.TokenPair{}, tt.err)

			res, err := svc.Login(context.Background(), store, "a@b.c", "bad")
			require.Error(t, err)
			assert.Nil(t, res)

			var loginErr *LoginError
			require.ErrorAs(t, err, &loginErr)
			assert.Equal(t, tt.wantMsg, loginErr.Message)
			assert.ErrorIs(t, err, tt.err)

			// store untouched
			assert.Equal(t, 0, store.SetCalls)
			assert.Equal(t, "old", store.Get(domainauth.TokenAccess))
			assert.Equal(t, []string{LoginRejected}, obs.results)
		})
	}
}

func TestSessionService_Login_IdentityFailureStillLogsIn(t *testing.T) {
	api, resolver, _, svc := newSessionService(t)
	store := mockauth.NewMemoryTokenStore()

	api.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domainauth.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil)
	resolver.EXPECT().Resolve(gomock.Any(), store).Return(domainauth.Identity{}, errors.New("me unavailable"))

	res, err := svc.Login(context.Background(), store, "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", res.RedirectTo)
	assert.Equal(t, domainauth.Identity{}, res.Identity)
	assert.Equal(t, "a", store.Get(domainauth.TokenAccess))
}

func TestSessionService_Logout_ClearsOnSuccess(t *testing.T) {
	api, _, _, svc := newSessionService(t)
	store := mockauth.NewMemoryTokenStoreWith(domainauth.TokenPair{AccessToken: "a", RefreshToken: "r"})

	api.EXPECT().Logout(gomock.Any(), store).Return(nil).Times(1)

	require.NoError(t, svc.Logout(context.Background(), store))
	assert.Empty(t, store.Get(domainauth.TokenAccess))
	assert.Empty(t, store.Get(domainauth.TokenRefresh))
}

func TestSessionService_Logout_ClearsEvenWhenRemoteFails(t *testing.T) {
	api, _, _, svc := newSessionService(t)
	store := mockauth.NewMemoryTokenStoreWith(domainauth.TokenPair{AccessToken: "a", RefreshToken: "r"})
	remoteErr := errors.New("bad gateway")

	api.EXPECT().Logout(gomock.Any(), store).Return(remoteErr)

	err := svc.Logout(context.Background(), store)
	require.ErrorIs(t, err, remoteErr)
	assert.Empty(t, store.Get(domainauth.TokenAccess))
	assert.Empty(t, store.Get(domainauth.TokenRefresh))
}

func TestSessionService_Logout_EmptyStoreSkipsRemote(t *testing.T) {
	_, _, _, svc := newSessionService(t)
	// no Logout expectation: gomock fails the test on an unexpected call
	require.NoError(t, svc.Logout(context.Background(), mockauth.NewMemoryTokenStore()))
}

func TestSessionService_Logout_ForgetsIdentity(t *testing.T) {
	api := mockauth.NewMockAuthAPI()
	forgetter := &stubForgetter{err: errors.New("redis down")}
	svc := NewSessionService(SessionServiceOptions{API: api, Forgetter: forgetter})
	store := mockauth.NewMemoryTokenStoreWith(domainauth.TokenPair{AccessToken: "a", RefreshToken: "r"})

	err := svc.Logout(context.Background(), store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
	assert.Equal(t, 1, forgetter.calls)
	assert.Empty(t, store.Get(domainauth.TokenAccess))
}

func TestSessionService_Identify(t *testing.T) {
	_, resolver, _, svc := newSessionService(t)

	_, err := svc.Identify(context.Background(), mockauth.NewMemoryTokenStore())
	require.ErrorIs(t, err, ErrNotAuthenticated)

	store := mockauth.NewMemoryTokenStoreWith(domainauth.TokenPair{AccessToken: "a"})
	want := domainauth.Identity{UserID: "u", Role: domainauth.RoleRetention}
	resolver.EXPECT().Resolve(gomock.Any(), store).Return(want, nil)

	got, err := svc.Identify(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
