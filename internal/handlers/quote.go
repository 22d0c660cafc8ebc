package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/i18n"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/internal/services"
)

type QuoteHandler struct {
	svc *services.QuoteService
	log *slog.Logger
}

func NewQuoteHandler(svc *services.QuoteService, log *slog.Logger) *QuoteHandler {
	return &QuoteHandler{svc: svc, log: log}
}

func readQuoteInput(r *http.Request) (services.QuoteInput, error) {
	var in services.QuoteInput
	if httpx.IsJSONBody(r) {
		err := httpx.DecodeJSON(r, &in)
		return in, err
	}
	return services.QuoteInput{
		CustomerName:    r.FormValue("customer_name"),
		ProjectName:     r.FormValue("project_name"),
		DistributorName: r.FormValue("distributor_name"),
		QuoteDate:       r.FormValue("quote_date"),
		Notes:           r.FormValue("notes"),
	}, nil
}

// listData loads the quote list. A store failure is returned as the page's
// error message rather than failing the page.
func (h *QuoteHandler) listData(r *http.Request) map[string]any {
	status := r.URL.Query().Get("status")
	data := map[string]any{
		"Status":   status,
		"Statuses": models.QuoteStatuses,
	}
	quotes, err := h.svc.ListQuotes(r.Context(), status)
	if err != nil {
		h.log.ErrorContext(r.Context(), "list quotes", "err", err)
		data["Error"] = err.Error()
		return data
	}
	data["Quotes"] = quotes
	return data
}

// List shows every quote, newest first, with the create form.
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		quotes, err := h.svc.ListQuotes(r.Context(), r.URL.Query().Get("status"))
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": quotes, "total": len(quotes)})
		return
	}
	render(w, r, h.log, http.StatusOK, "quotes/index.html", h.listData(r))
}

// Create inserts a quote from the list page form and returns to the list.
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, "quotes/index.html", "/dashboard/quotes")
}

// NewQuote shows the standalone create page.
func (h *QuoteHandler) NewQuote(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.log, http.StatusOK, "quotes/new.html", map[string]any{})
}

// CreateFromPage handles the standalone page, which returns to the dashboard.
func (h *QuoteHandler) CreateFromPage(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, "quotes/new.html", "/dashboard")
}

func (h *QuoteHandler) create(w http.ResponseWriter, r *http.Request, page, next string) {
	lang := i18n.LangFromContext(r.Context())
	in, err := readQuoteInput(r)
	if err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		data := map[string]any{}
		if page == "quotes/index.html" {
			data = h.listData(r)
		}
		data["FormError"] = i18n.T(lang, "invalid_form")
		render(w, r, h.log, http.StatusBadRequest, page, data)
		return
	}

	q, err := h.svc.CreateQuote(r.Context(), in)
	if err != nil {
		var verr *services.ValidationError
		status := http.StatusInternalServerError
		if errors.As(err, &verr) {
			status = http.StatusUnprocessableEntity
		} else {
			h.log.ErrorContext(r.Context(), "create quote", "err", err)
		}
		if httpx.WantsJSON(r) {
			if verr != nil {
				validationJSON(w, verr.Fields)
				return
			}
			httpx.JSONError(w, status, err.Error(), nil)
			return
		}
		data := map[string]any{}
		if page == "quotes/index.html" {
			data = h.listData(r)
		}
		data["Form"] = in
		if verr != nil {
			data["Errors"] = verr.Fields
			data["FormError"] = summary(lang, verr.Fields)
		} else {
			data["FormError"] = err.Error()
		}
		render(w, r, h.log, status, page, data)
		return
	}

	h.log.InfoContext(r.Context(), "quote created", "quote_id", q.ID)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, q)
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// View shows a quote header with its items. Header and items fail independently.
func (h *QuoteHandler) View(w http.ResponseWriter, r *http.Request) {
	lang := i18n.LangFromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, i18n.T(lang, "quote_id_missing"), nil)
			return
		}
		render(w, r, h.log, http.StatusBadRequest, "quotes/view.html", map[string]any{
			"QuoteError": i18n.T(lang, "quote_id_missing"),
		})
		return
	}

	data := map[string]any{"QuoteID": id, "Statuses": models.QuoteStatuses}
	status := http.StatusOK
	q, err := h.svc.GetQuote(r.Context(), id)
	switch {
	case errors.Is(err, services.ErrQuoteNotFound):
		status = http.StatusNotFound
		data["QuoteError"] = i18n.T(lang, "quote_not_found")
	case err != nil:
		h.log.ErrorContext(r.Context(), "get quote", "quote_id", id, "err", err)
		status = http.StatusInternalServerError
		data["QuoteError"] = err.Error()
	default:
		data["Quote"] = q
	}

	if q != nil {
		items, err := h.svc.ListItems(r.Context(), id)
		if err != nil {
			h.log.ErrorContext(r.Context(), "list items", "quote_id", id, "err", err)
			data["ItemsError"] = err.Error()
		} else {
			data["Items"] = items
			q.Items = items
		}
	}

	if httpx.WantsJSON(r) {
		if q == nil {
			httpx.JSONError(w, status, fmt.Sprint(data["QuoteError"]), nil)
			return
		}
		httpx.JSON(w, status, q)
		return
	}
	render(w, r, h.log, status, "quotes/view.html", data)
}

// Delete removes the quote (and its items) and returns to the list.
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	lang := i18n.LangFromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, i18n.T(lang, "quote_id_missing"), http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteQuote(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrQuoteNotFound) {
			if httpx.WantsJSON(r) {
				httpx.JSONError(w, http.StatusNotFound, i18n.T(lang, "quote_not_found"), nil)
				return
			}
			http.Error(w, i18n.T(lang, "quote_not_found"), http.StatusNotFound)
			return
		}
		h.log.ErrorContext(r.Context(), "delete quote", "quote_id", id, "err", err)
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.log.InfoContext(r.Context(), "quote deleted", "quote_id", id)
	if httpx.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/dashboard/quotes", http.StatusSeeOther)
}

// SetStatus moves the quote to any of the known statuses.
func (h *QuoteHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	lang := i18n.LangFromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, i18n.T(lang, "quote_id_missing"), http.StatusBadRequest)
		return
	}
	status := r.FormValue("status")
	if httpx.IsJSONBody(r) {
		var body struct {
			Status string `json:"status"`
		}
		if err := httpx.DecodeJSON(r, &body); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		status = body.Status
	}

	q, err := h.svc.SetStatus(r.Context(), id, models.QuoteStatus(status))
	if err != nil {
		code := http.StatusInternalServerError
		msg := err.Error()
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			code, msg = http.StatusUnprocessableEntity, i18n.T(lang, "invalid_choice")
		case errors.Is(err, services.ErrQuoteNotFound):
			code, msg = http.StatusNotFound, i18n.T(lang, "quote_not_found")
		default:
			h.log.ErrorContext(r.Context(), "set quote status", "quote_id", id, "err", err)
		}
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, code, msg, nil)
			return
		}
		http.Error(w, msg, code)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, q)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/dashboard/quotes/%d", id), http.StatusSeeOther)
}
