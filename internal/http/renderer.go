package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	corefuncs "github.com/siamkarim/2mro-admin/internal/http/templates/core"
)

// Translator resolves catalog keys; *i18n.Catalog satisfies it.
type Translator interface {
	T(locale, key string, args ...any) string
}

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	t      *template.Template
	logger *slog.Logger // For logging template errors
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS     fs.FS      // Filesystem containing templates (required)
	Translator     Translator // Message catalog (optional; keys render verbatim without it)
	CurrencySymbol string
	Logger         *slog.Logger // Logger for template errors (optional)
}

// NewTemplateRenderer constructs a renderer by parsing templates from the provided config.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}

	renderer := &TemplateRenderer{logger: cfg.Logger}

	var t *template.Template
	deps := corefuncs.Deps{
		Template:           &t,
		ContentTemplateFor: ContentTemplateFor,
		CurrencySymbol:     cfg.CurrencySymbol,
	}
	if cfg.Translator != nil {
		deps.Translate = cfg.Translator.T
	}

	var err error
	t, err = template.New("root").Funcs(corefuncs.Funcs(deps)).ParseFS(cfg.TemplateFS,
		"*.tmpl",
		"pages/*.tmpl",
		"partials/*.tmpl",
	)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Error("template parsing failed",
				slog.Any("error", err),
				slog.String("phase", "initialization"),
			)
		}
		return nil, err
	}
	renderer.t = t
	return renderer, nil
}

// RenderFull renders the full page (layout + page content). Keep ≤3 params.
func (r *TemplateRenderer) RenderFull(w http.ResponseWriter, _ *http.Request, data any) error {
	return r.renderTemplate(w, "layout", data)
}

// RenderPartial renders only the main content area.
func (r *TemplateRenderer) RenderPartial(w http.ResponseWriter, _ *http.Request, data any) error {
	return r.renderTemplate(w, "content", data)
}

// RenderError renders an error page using the error template.
func (r *TemplateRenderer) RenderError(w http.ResponseWriter, _ *http.Request, data any) error {
	return r.renderTemplate(w, "error-layout", data)
}

// RenderOpts selects a template and the status written with it.
type RenderOpts struct {
	Template string
	Status   int // 0 means 200
	Data     any
}

// Render renders one named template with an explicit status.
// The status is only written once the template executed cleanly.
func (r *TemplateRenderer) Render(w http.ResponseWriter, opts RenderOpts) error {
	return r.execute(w, opts.Template, opts.Status, opts.Data)
}

func (r *TemplateRenderer) renderTemplate(w http.ResponseWriter, templateName string, data any) error {
	return r.execute(w, templateName, 0, data)
}

func (r *TemplateRenderer) execute(w http.ResponseWriter, templateName string, status int, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, templateName, data); err != nil {
		r.logTemplateError(templateName, err)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != 0 {
		w.WriteHeader(status)
	}
	if _, err := buf.WriteTo(w); err != nil {
		if r.logger != nil {
			r.logger.Error("failed to write rendered template",
				slog.String("template", templateName),
				slog.Any("error", err),
			)
		}
		return err
	}

	return nil
}

// logTemplateError logs a template execution error with context.
func (r *TemplateRenderer) logTemplateError(templateName string, err error) {
	if r.logger == nil || err == nil {
		return
	}
	r.logger.Error("template execution failed",
		slog.String("template", templateName),
		slog.Any("error", err),
	)
}
