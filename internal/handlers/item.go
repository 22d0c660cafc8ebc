package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/i18n"
	"github.com/diewo77/go-quotes/internal/catalog"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/internal/services"
	"github.com/diewo77/go-quotes/validation"
)

// ItemHandler serves the item entry form and its create/update/delete actions.
type ItemHandler struct {
	svc     *services.QuoteService
	catalog *catalog.Service
	log     *slog.Logger
}

func NewItemHandler(svc *services.QuoteService, cat *catalog.Service, log *slog.Logger) *ItemHandler {
	return &ItemHandler{svc: svc, catalog: cat, log: log}
}

// itemValues reads the item fields from a query string or a posted form.
func itemValues(v url.Values) services.ItemInput {
	return services.ItemInput{
		Area:        v.Get("area"),
		WindowID:    v.Get("window_id"),
		ProductID:   v.Get("product_id"),
		FabricID:    v.Get("fabric_id"),
		SystemType:  v.Get("system_type"),
		Collection:  v.Get("collection"),
		FabricColor: v.Get("fabric_color"),
		FabricCode:  v.Get("fabric_code"),
		Width:       v.Get("width"),
		Height:      v.Get("height"),
		Quantity:    v.Get("quantity"),
		Notes:       v.Get("notes"),
	}
}

func readItemInput(r *http.Request) (services.ItemInput, error) {
	if httpx.IsJSONBody(r) {
		var in services.ItemInput
		err := httpx.DecodeJSON(r, &in)
		return in, err
	}
	if err := r.ParseForm(); err != nil {
		return services.ItemInput{}, err
	}
	return itemValues(r.PostForm), nil
}

func parseID(s string) uint {
	n, _ := strconv.ParseUint(s, 10, 64)
	return uint(n)
}

// applySelection replays the catalog selection carried by the form and
// overwrites the denormalized fields with what the catalog offers, so a
// stale or tampered combination ends up blank and fails validation.
// prev_product_id is the system the form was last rendered with.
func (h *ItemHandler) applySelection(r *http.Request, in *services.ItemInput, changed string) catalog.State {
	st := catalog.Replay(r.Context(), h.catalog, catalog.Request{
		ProductID:         parseID(in.ProductID),
		Collection:        in.Collection,
		FabricID:          parseID(in.FabricID),
		Changed:           changed,
		PreviousProductID: parseID(r.FormValue("prev_product_id")),
	})
	if st.ProductID == 0 {
		return st
	}
	in.SystemType = st.SystemType
	in.Collection = st.Collection
	in.FabricColor = st.FabricColor
	in.FabricCode = st.FabricCode
	in.FabricID = ""
	if st.FabricID != 0 {
		in.FabricID = strconv.FormatUint(uint64(st.FabricID), 10)
	}
	return st
}

func (h *ItemHandler) formData(r *http.Request, q *models.Quote, itemID uint, in services.ItemInput, st catalog.State) map[string]any {
	data := map[string]any{
		"Quote":     q,
		"Item":      in,
		"ItemID":    itemID,
		"Selection": st,
		"MinMM":     services.MinMillimetres,
		"MaxMM":     services.MaxMillimetres,
	}
	if itemID == 0 {
		data["Action"] = fmt.Sprintf("/dashboard/quotes/%d/items", q.ID)
		data["RefreshURL"] = fmt.Sprintf("/dashboard/quotes/%d/items/new", q.ID)
	} else {
		data["Action"] = fmt.Sprintf("/dashboard/quotes/%d/items/%d", q.ID, itemID)
		data["RefreshURL"] = fmt.Sprintf("/dashboard/quotes/%d/items/%d/edit", q.ID, itemID)
	}
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "load products", "err", err)
		data["ProductsError"] = err.Error()
	}
	data["Products"] = products
	return data
}

// loadQuote resolves the {id} path value, writing the error page itself when
// the quote cannot be shown.
func (h *ItemHandler) loadQuote(w http.ResponseWriter, r *http.Request) (*models.Quote, bool) {
	lang := i18n.LangFromContext(r.Context())
	id, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, http.StatusBadRequest, i18n.T(lang, "quote_id_missing"))
		return nil, false
	}
	q, err := h.svc.GetQuote(r.Context(), id)
	if errors.Is(err, services.ErrQuoteNotFound) {
		h.fail(w, r, http.StatusNotFound, i18n.T(lang, "quote_not_found"))
		return nil, false
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "get quote", "quote_id", id, "err", err)
		h.fail(w, r, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return q, true
}

func (h *ItemHandler) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, status, msg, nil)
		return
	}
	render(w, r, h.log, status, "quotes/view.html", map[string]any{"QuoteError": msg})
}

// New shows the empty form, or replays a partly filled one after a
// selection change (?changed=system|collection|color).
func (h *ItemHandler) New(w http.ResponseWriter, r *http.Request) {
	q, ok := h.loadQuote(w, r)
	if !ok {
		return
	}
	in := services.ItemInput{Quantity: "1"}
	if r.URL.Query().Has("changed") {
		in = itemValues(r.URL.Query())
		in.Width = services.SanitizeMillimetres(in.Width)
		in.Height = services.SanitizeMillimetres(in.Height)
	}
	st := h.applySelection(r, &in, r.URL.Query().Get("changed"))
	render(w, r, h.log, http.StatusOK, "quotes/item_form.html", h.formData(r, q, 0, in, st))
}

// Edit shows the form filled from the stored item.
func (h *ItemHandler) Edit(w http.ResponseWriter, r *http.Request) {
	q, ok := h.loadQuote(w, r)
	if !ok {
		return
	}
	lang := i18n.LangFromContext(r.Context())
	itemID, ok := pathID(r, "item_id")
	if !ok {
		h.fail(w, r, http.StatusNotFound, i18n.T(lang, "item_not_found"))
		return
	}
	item, err := h.svc.GetItem(r.Context(), q.ID, itemID)
	if err != nil {
		status, msg := http.StatusInternalServerError, err.Error()
		if errors.Is(err, services.ErrItemNotFound) {
			status, msg = http.StatusNotFound, i18n.T(lang, "item_not_found")
		}
		h.fail(w, r, status, msg)
		return
	}

	in := services.ItemInputFrom(*item)
	if r.URL.Query().Has("changed") {
		in = itemValues(r.URL.Query())
		in.Width = services.SanitizeMillimetres(in.Width)
		in.Height = services.SanitizeMillimetres(in.Height)
	}
	st := h.applySelection(r, &in, r.URL.Query().Get("changed"))
	if st.ProductID == 0 {
		// Items saved without catalog ids keep their stored strings.
		in.SystemType, in.Collection = item.SystemType, item.Collection
		in.FabricColor, in.FabricCode = item.FabricColor, item.FabricCode
	}
	render(w, r, h.log, http.StatusOK, "quotes/item_form.html", h.formData(r, q, item.ID, in, st))
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, 0)
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	lang := i18n.LangFromContext(r.Context())
	itemID, ok := pathID(r, "item_id")
	if !ok {
		h.fail(w, r, http.StatusNotFound, i18n.T(lang, "item_not_found"))
		return
	}
	h.save(w, r, itemID)
}

// save validates the form before any store call; on failure the form is
// shown again with the submitted values and inline messages.
func (h *ItemHandler) save(w http.ResponseWriter, r *http.Request, itemID uint) {
	q, ok := h.loadQuote(w, r)
	if !ok {
		return
	}
	lang := i18n.LangFromContext(r.Context())
	in, err := readItemInput(r)
	if err != nil {
		h.log.WarnContext(r.Context(), "read item form", "quote_id", q.ID, "err", err)
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_body", nil)
			return
		}
		data := h.formData(r, q, itemID, services.ItemInput{Quantity: "1"}, catalog.State{})
		data["FormError"] = i18n.T(lang, "invalid_form")
		render(w, r, h.log, http.StatusBadRequest, "quotes/item_form.html", data)
		return
	}
	st := h.applySelection(r, &in, "")

	var item *models.QuoteItem
	if itemID == 0 {
		item, err = h.svc.CreateItem(r.Context(), q.ID, in)
	} else {
		item, err = h.svc.UpdateItem(r.Context(), q.ID, itemID, in)
	}
	if err != nil {
		var verr *services.ValidationError
		status, formError := http.StatusInternalServerError, err.Error()
		var fields validation.Violations
		switch {
		case errors.As(err, &verr):
			status, fields = http.StatusUnprocessableEntity, verr.Fields
			formError = summary(lang, fields)
		case errors.Is(err, services.ErrItemNotFound):
			status, formError = http.StatusNotFound, i18n.T(lang, "item_not_found")
		default:
			h.log.ErrorContext(r.Context(), "save item", "quote_id", q.ID, "item_id", itemID, "err", err)
		}
		if httpx.WantsJSON(r) {
			if fields != nil {
				validationJSON(w, fields)
				return
			}
			httpx.JSONError(w, status, formError, nil)
			return
		}
		data := h.formData(r, q, itemID, in, st)
		data["Errors"] = fields
		data["FormError"] = formError
		render(w, r, h.log, status, "quotes/item_form.html", data)
		return
	}

	if httpx.WantsJSON(r) {
		code := http.StatusOK
		if itemID == 0 {
			code = http.StatusCreated
		}
		httpx.JSON(w, code, item)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/dashboard/quotes/%d", q.ID), http.StatusSeeOther)
}

// Delete removes one item of the quote and returns to the quote.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	lang := i18n.LangFromContext(r.Context())
	quoteID, ok := pathID(r, "id")
	if !ok {
		h.fail(w, r, http.StatusBadRequest, i18n.T(lang, "quote_id_missing"))
		return
	}
	itemID, ok := pathID(r, "item_id")
	if !ok {
		h.fail(w, r, http.StatusNotFound, i18n.T(lang, "item_not_found"))
		return
	}
	if err := h.svc.DeleteItem(r.Context(), quoteID, itemID); err != nil {
		status, msg := http.StatusInternalServerError, err.Error()
		if errors.Is(err, services.ErrItemNotFound) {
			status, msg = http.StatusNotFound, i18n.T(lang, "item_not_found")
		} else {
			h.log.ErrorContext(r.Context(), "delete item", "quote_id", quoteID, "item_id", itemID, "err", err)
		}
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, status, msg, nil)
			return
		}
		http.Error(w, msg, status)
		return
	}
	if httpx.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/dashboard/quotes/%d", quoteID), http.StatusSeeOther)
}
