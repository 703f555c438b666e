//go:build tools
// +build tools

// Package tools lists the development tools used on the admin console.
// They are installed with `go install` and stay out of go.mod.
package tools

// Air - rebuilds and restarts cmd/admin-console when Go files or web/templates change.
//   Install: go install github.com/air-verse/air@v1.63.0
//   Run:     DEV=true air --build.cmd "go build -o ./tmp/admin-console ./cmd/admin-console" --build.bin ./tmp/admin-console --build.include_ext "go,html,json"
//   Docs:    https://github.com/air-verse/air
//
// mockgen - regenerates internal/mocks from the ports interfaces.
//   Run: go generate ./internal/mocks
