package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/internal/catalog"
	"github.com/diewo77/go-quotes/internal/models"
)

// CatalogHandler is the JSON side of the selector chain. Every response
// echoes the caller's token so the browser can drop responses to requests
// it has since superseded.
type CatalogHandler struct {
	catalog *catalog.Service
	log     *slog.Logger
}

func NewCatalogHandler(cat *catalog.Service, log *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: cat, log: log}
}

type collectionsResponse struct {
	Token       uint64   `json:"token"`
	ProductID   uint     `json:"product_id"`
	Collections []string `json:"collections"`
	Error       string   `json:"error,omitempty"`
}

type colorOption struct {
	ID         uint   `json:"id"`
	ColorName  string `json:"color_name"`
	Code       string `json:"code"`
	Collection string `json:"collection"`
}

type colorsResponse struct {
	Token      uint64        `json:"token"`
	ProductID  uint          `json:"product_id"`
	Collection string        `json:"collection"`
	Colors     []colorOption `json:"colors"`
	Error      string        `json:"error,omitempty"`
}

func token(r *http.Request) uint64 {
	n, _ := strconv.ParseUint(r.URL.Query().Get("token"), 10, 64)
	return n
}

func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "load products", "err", err)
		httpx.JSONError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *CatalogHandler) Collections(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	resp := collectionsResponse{Token: token(r), ProductID: id, Collections: []string{}}
	if !ok {
		resp.Error = "invalid product id"
		httpx.JSON(w, http.StatusBadRequest, resp)
		return
	}
	cols, err := h.catalog.Collections(r.Context(), id)
	if err != nil {
		h.log.ErrorContext(r.Context(), "load collections", "product_id", id, "err", err)
		resp.Error = err.Error()
		httpx.JSON(w, http.StatusInternalServerError, resp)
		return
	}
	if cols != nil {
		resp.Collections = cols
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *CatalogHandler) Colors(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	collection := r.URL.Query().Get("collection")
	resp := colorsResponse{Token: token(r), ProductID: id, Collection: collection, Colors: []colorOption{}}
	if !ok {
		resp.Error = "invalid product id"
		httpx.JSON(w, http.StatusBadRequest, resp)
		return
	}
	fabrics, err := h.catalog.Colors(r.Context(), id, collection)
	if err != nil {
		h.log.ErrorContext(r.Context(), "load colors", "product_id", id, "collection", collection, "err", err)
		resp.Error = err.Error()
		httpx.JSON(w, http.StatusInternalServerError, resp)
		return
	}
	for _, f := range fabrics {
		resp.Colors = append(resp.Colors, colorOption{ID: f.ID, ColorName: f.ColorName, Code: f.Code, Collection: f.Collection})
	}
	httpx.JSON(w, http.StatusOK, resp)
}
