// Package admin embeds the console's templates and static files for production builds.
package admin

import "embed"

// In dev mode (IsDev=true) templates and static files are read from disk instead.

//go:embed all:web/static
var StaticFS embed.FS

//go:embed all:web/templates
var TemplateFS embed.FS
