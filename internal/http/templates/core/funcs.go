// Package core holds the template helpers shared by every console page.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"github.com/siamkarim/2mro-admin/internal/domain/account"
	domainauth "github.com/siamkarim/2mro-admin/internal/domain/auth"
	"github.com/siamkarim/2mro-admin/internal/domain/rbac"
)

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
	// Translate resolves a catalog key for a locale. Keys are echoed when nil.
	Translate func(locale, key string, args ...any) string
	// CurrencySymbol prefixes money amounts; "$" when empty. Digit grouping
	// follows the locale passed to the currency func.
	CurrencySymbol string
}

// Funcs returns a template.FuncMap containing helpers that are broadly useful across templates.
func Funcs(deps Deps) template.FuncMap {
	funcs := template.FuncMap{
		"sectionTmpl":  deps.ContentTemplateFor,
		"t":            translateFunc(deps.Translate),
		"can":          Can,
		"roleLabel":    RoleLabelKey,
		"marginLevel":  MarginLevel,
		"currency":     currencyFunc(deps.CurrencySymbol),
		"formatNumber": formatNumberTemplate,
		"deref":        deref,
		"add":          func(a, b int) int { return a + b },
		"sub":          func(a, b int) int { return a - b },
		"dict":         dict,
		"truncateText": TruncateText,
	}

	addRenderFuncs(funcs, deps)
	return funcs
}

func addRenderFuncs(funcs template.FuncMap, deps Deps) {
	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - The HTML here is rendered by our own trusted templates (html/template),
		// and is embedded back into the same template set. User-provided values were already
		// auto-escaped during ExecuteTemplate above.
		return template.HTML(buf.String()), nil
	}

	funcs["toJSON"] = func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func translateFunc(tr func(locale, key string, args ...any) string) func(string, string, ...any) string {
	if tr == nil {
		return func(_ string, key string, _ ...any) string { return key }
	}
	return tr
}

// Can exposes the action table to templates so hidden buttons match the server-side gate.
func Can(role domainauth.Role, action string) bool {
	return rbac.CanPerform(role, rbac.Action(action))
}

// RoleLabelKey returns the catalog key holding a role's display name.
func RoleLabelKey(role domainauth.Role) string {
	return "ui.role_" + strings.ToLower(string(role)) + "_titlecase"
}

// MarginLevel renders equity ÷ margin as a percentage with one decimal.
func MarginLevel(equity, margin float64) string {
	return account.FormatMarginLevel(account.MarginSnapshot{Equity: equity, Margin: margin})
}

// currencyFunc formats amounts for the request locale; one printer is kept per locale.
func currencyFunc(symbol string) func(locale string, v float64) string {
	var printers sync.Map
	return func(locale string, v float64) string {
		if f, ok := printers.Load(locale); ok {
			return f.(func(float64, string) string)(v, symbol)
		}
		f, _ := printers.LoadOrStore(locale, account.CurrencyPrinter(language.Make(locale)))
		return f.(func(float64, string) string)(v, symbol)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// dict builds a map from alternating key/value arguments, for passing several values to a partial.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict requires an even number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %d is %T, not string", i, kv[i])
		}
		m[key] = kv[i+1]
	}
	return m, nil
}

// formatNumberTemplate formats any integer type with comma separators for thousands.
func formatNumberTemplate(v any) string {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int64:
		n = x
	case int32:
		n = int64(x)
	default:
		return fmt.Sprint(v)
	}

	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	if len(s) > 3 {
		s = withCommas(s)
	}
	if neg {
		return "-" + s
	}
	return s
}

func withCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s) + (len(s)-1)/3)

	prefix := len(s) % 3
	if prefix == 0 {
		prefix = 3
	}

	b.WriteString(s[:prefix])
	for i := prefix; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// TruncateText truncates a string to a maximum number of runes (not bytes).
// Adds an ellipsis (…) when truncated for visual clarity.
func TruncateText(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen > 1 {
		return string(runes[:maxLen-1]) + "…"
	}
	return string(runes[:1])
}
