// Package mocks provides mock implementations for testing the admin console.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	api := mocks.NewMockAuthAPI(ctrl)
//	api.EXPECT().Login(gomock.Any(), "ops@example.com", "secret").Return(pair, nil)
package mocks

// Generate mock for AuthAPI interface from internal/ports package.
// This creates MockAuthAPI with methods for all AuthAPI interface methods:
// Login, Refresh, Logout, Me
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_api_mock.go github.com/siamkarim/2mro-admin/internal/ports AuthAPI

// Generate mock for IdentityResolver interface from internal/ports package.
// This creates MockIdentityResolver with methods for all IdentityResolver interface methods:
// Resolve
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_resolver_mock.go github.com/siamkarim/2mro-admin/internal/ports IdentityResolver
