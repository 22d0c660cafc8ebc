package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/i18n"
	"github.com/diewo77/go-quotes/validation"
	"github.com/diewo77/go-quotes/view"
)

// render writes an HTML page and logs template failures.
func render(w http.ResponseWriter, r *http.Request, log *slog.Logger, status int, name string, data map[string]any) {
	if err := view.RenderStatus(w, r, status, name, data); err != nil {
		log.ErrorContext(r.Context(), "render failed", "template", name, "err", err)
		http.Error(w, "Failed to render template: "+err.Error(), http.StatusInternalServerError)
	}
}

// pathID parses a positive numeric path parameter.
func pathID(r *http.Request, name string) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// summary is the one-line message shown above a rejected form.
func summary(lang string, v validation.Violations) string {
	for _, code := range v {
		if code == "required" {
			return i18n.T(lang, "all_fields")
		}
	}
	for _, code := range v {
		if code == "must_be_number" {
			return i18n.T(lang, "numbers_invalid")
		}
	}
	for _, code := range v {
		return i18n.T(lang, code)
	}
	return ""
}

// validationJSON is the 422 body for JSON clients.
func validationJSON(w http.ResponseWriter, v validation.Violations) {
	httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v)
}
