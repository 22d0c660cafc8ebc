// Package view renders the HTML templates under templates/ with a shared
// layout, partials and function map.
package view

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/go-quotes/auth"
	"github.com/diewo77/go-quotes/i18n"
	"github.com/diewo77/go-quotes/validation"
)

const layoutFile = "layout.html"

var searchDirs = []string{"templates", "../templates", "../../templates", "../../../templates"}

var (
	mu      sync.RWMutex
	root    string // directory holding layout.html
	devMode bool
	sets    = map[string]*template.Template{}
	assets  = map[string]string{}
)

// SetDevMode re-parses templates and re-hashes assets on every render.
func SetDevMode(dev bool) {
	mu.Lock()
	devMode = dev
	mu.Unlock()
}

// SetBaseDir points the renderer at a templates directory and drops cached sets.
func SetBaseDir(path string) {
	mu.Lock()
	defer mu.Unlock()
	root = filepath.Clean(path)
	sets = map[string]*template.Template{}
	assets = map[string]string{}
}

// ResetForTests clears caches and forces the templates directory to be looked up again.
func ResetForTests() { SetBaseDir("") }

func templatesDir() (string, error) {
	if root != "" && root != "." {
		return root, nil
	}
	for _, d := range searchDirs {
		if fi, err := os.Stat(filepath.Join(d, layoutFile)); err == nil && !fi.IsDir() {
			root = filepath.Clean(d)
			return root, nil
		}
	}
	return "", errors.New("templates directory not found")
}

// Funcs returns the func map bound to the request language.
func Funcs(r *http.Request) template.FuncMap {
	lang := i18n.DefaultLang
	if r != nil {
		lang = i18n.LangFromContext(r.Context())
	}
	return template.FuncMap{
		"t":    func(code string) string { return i18n.T(lang, code) },
		"lang": func() string { return lang },
		// fieldError translates the violation recorded for field, or "".
		// Pages without errors leave .Errors unset, so errs may be nil.
		"fieldError": func(errs any, field string) string {
			var m map[string]string
			switch e := errs.(type) {
			case validation.Violations:
				m = e
			case map[string]string:
				m = e
			default:
				return ""
			}
			if code, ok := m[field]; ok {
				return i18n.T(lang, code)
			}
			return ""
		},
		"statusClass": StatusClass,
		"year":        func() int { return time.Now().Year() },
		"asset":       asset,
		"metres":      func(v float64) string { return fmt.Sprintf("%.3f", v) },
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(time.DateOnly)
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		// dict builds a map for passing several values to a partial.
		// Usage: {{ template "partial" (dict "Key1" val1 "Key2" val2) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				if key, ok := values[i].(string); ok {
					m[key] = values[i+1]
				}
			}
			return m
		},
	}
}

// StatusClass maps a quote status to its badge CSS class.
func StatusClass(status any) string {
	switch strings.ToLower(fmt.Sprint(status)) {
	case "sent":
		return "badge badge-sent"
	case "approved":
		return "badge badge-approved"
	case "rejected":
		return "badge badge-rejected"
	default:
		return "badge badge-draft"
	}
}

// asset returns /static/<rel>?v=<hash> so browsers refetch changed files.
// The static directory sits next to the templates directory.
func asset(rel string) string {
	mu.RLock()
	u, ok := assets[rel]
	dev := devMode
	dir := root
	mu.RUnlock()
	if ok && !dev {
		return u
	}

	u = "/static/" + rel
	if b, err := os.ReadFile(filepath.Join(filepath.Dir(dir), "static", rel)); err == nil {
		h := sha1.Sum(b)
		u += fmt.Sprintf("?v=%x", h[:8])
	}
	mu.Lock()
	assets[rel] = u
	mu.Unlock()
	return u
}

// lookup returns a fresh copy of the template set for name, parsing it on
// first use (or on every use in dev mode).
func lookup(name string) (*template.Template, error) {
	mu.RLock()
	t, ok := sets[name]
	dev := devMode
	mu.RUnlock()
	if ok && !dev {
		return t.Clone()
	}

	mu.Lock()
	defer mu.Unlock()
	dir, err := templatesDir()
	if err != nil {
		return nil, err
	}
	page := filepath.Join(dir, filepath.FromSlash(name))
	content, err := os.ReadFile(page)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}

	// Full documents render on their own; everything else goes in the layout.
	files := []string{page}
	rootName := filepath.Base(page)
	if !bytes.Contains(bytes.ToLower(content), []byte("<!doctype")) {
		files = []string{filepath.Join(dir, layoutFile), page}
		rootName = layoutFile
	}
	partials, err := filepath.Glob(filepath.Join(dir, "partials", "*.html"))
	if err != nil {
		return nil, err
	}
	files = append(files, partials...)

	t, err = template.New(rootName).Funcs(Funcs(nil)).ParseFiles(files...)
	if err != nil {
		return nil, err
	}
	sets[name] = t
	return t.Clone()
}

// Render executes the named template (e.g. "quotes/view.html") with status 200.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus executes the named template into a buffer and writes it with
// status. Nothing is written if execution fails.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	if _, exists := data["IsLoggedIn"]; !exists {
		s, loggedIn := auth.SessionFromContext(r.Context())
		data["IsLoggedIn"] = loggedIn
		data["UserEmail"] = s.Email
	}

	t, err := lookup(name)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.Funcs(Funcs(r)).Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}
