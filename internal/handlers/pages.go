package handlers

import (
	"log/slog"
	"net/http"

	"github.com/diewo77/go-quotes/auth"
	"github.com/diewo77/go-quotes/i18n"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/internal/services"
)

// PageHandler serves the landing page and the dashboard summary.
type PageHandler struct {
	svc *services.QuoteService
	log *slog.Logger
}

func NewPageHandler(svc *services.QuoteService, log *slog.Logger) *PageHandler {
	return &PageHandler{svc: svc, log: log}
}

func (h *PageHandler) Landing(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	if r.URL.Query().Get("error") == "unauthorized" {
		data["Error"] = i18n.T(i18n.LangFromContext(r.Context()), "unauthorized")
	}
	render(w, r, h.log, http.StatusOK, "index.html", data)
}

const recentQuotes = 5

func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	s, _ := auth.SessionFromContext(r.Context())
	data := map[string]any{"Email": s.Email, "Statuses": models.QuoteStatuses}

	counts, err := h.svc.CountByStatus(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "count quotes", "err", err)
		data["Error"] = err.Error()
	} else {
		var total int64
		for _, n := range counts {
			total += n
		}
		data["Counts"] = counts
		data["Total"] = total
	}

	quotes, err := h.svc.ListQuotes(r.Context(), "")
	if err != nil {
		data["Error"] = err.Error()
	} else {
		if len(quotes) > recentQuotes {
			quotes = quotes[:recentQuotes]
		}
		data["Recent"] = quotes
	}
	render(w, r, h.log, http.StatusOK, "dashboard.html", data)
}
