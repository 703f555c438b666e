// Package i18n holds the console's translated strings.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// LangCookie stores an explicit language choice.
const LangCookie = "lang"

// Catalog maps locale → key → message.
type Catalog struct {
	fallback language.Tag
	tags     []language.Tag
	matcher  language.Matcher
	messages map[language.Tag]map[string]string
}

// Load reads the embedded locale files. English is the fallback.
func Load() (*Catalog, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}

	c := &Catalog{fallback: language.English, messages: make(map[language.Tag]map[string]string)}
	// the fallback must come first for the matcher
	c.tags = []language.Tag{language.English}
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("locale file %s: %w", e.Name(), err)
		}
		raw, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, err
		}
		msgs := map[string]string{}
		if err := json.Unmarshal(raw, &msgs); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		c.messages[tag] = msgs
		if tag != language.English {
			c.tags = append(c.tags, tag)
		}
	}
	if _, ok := c.messages[c.fallback]; !ok {
		return nil, fmt.Errorf("missing fallback locale %s", c.fallback)
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// MustLoad is Load for program start-up.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Locales lists the available locales, fallback first.
func (c *Catalog) Locales() []string {
	out := make([]string, len(c.tags))
	for i, t := range c.tags {
		out[i] = t.String()
	}
	return out
}

// Match picks the best supported locale for a comma separated preference list
// such as an Accept-Language header.
func (c *Catalog) Match(prefs ...string) string {
	var want []language.Tag
	for _, p := range prefs {
		tags, _, err := language.ParseAcceptLanguage(p)
		if err == nil {
			want = append(want, tags...)
		}
	}
	_, idx, _ := c.matcher.Match(want...)
	return c.tags[idx].String()
}

// FromRequest chooses the locale from the lang query parameter, the lang cookie,
// then Accept-Language.
func (c *Catalog) FromRequest(r *http.Request) string {
	var prefs []string
	if q := r.URL.Query().Get(LangCookie); q != "" {
		prefs = append(prefs, q)
	}
	if ck, err := r.Cookie(LangCookie); err == nil && ck.Value != "" {
		prefs = append(prefs, ck.Value)
	}
	prefs = append(prefs, r.Header.Get("Accept-Language"))
	return c.Match(prefs...)
}

// T returns the message for key in locale, falling back to English and then to key itself.
// Args, when present, are applied with fmt.Sprintf.
func (c *Catalog) T(locale, key string, args ...any) string {
	msg, ok := c.lookup(locale, key)
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// Has reports whether key exists in the fallback locale.
func (c *Catalog) Has(key string) bool {
	_, ok := c.messages[c.fallback][key]
	return ok
}

func (c *Catalog) lookup(locale, key string) (string, bool) {
	if tag, err := language.Parse(locale); err == nil {
		if msg, ok := c.messages[tag][key]; ok {
			return msg, true
		}
		base, _ := tag.Base()
		if msg, ok := c.messages[language.Make(base.String())][key]; ok {
			return msg, true
		}
	}
	msg, ok := c.messages[c.fallback][key]
	return msg, ok
}
