package main

import (
	"log/slog"
	"net/http"

	"github.com/diewo77/go-quotes/gate"
	"github.com/diewo77/go-quotes/internal/middleware"
	"github.com/diewo77/go-quotes/internal/policy"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	routerCfg *policy.RouterConfig
	metrics   *middleware.Metrics
	log       *slog.Logger
	handler   http.Handler
}

// NewApp creates a new application with all routes configured.
func NewApp(db *gorm.DB, routerCfg *policy.RouterConfig, log *slog.Logger) *App {
	app := &App{
		mux:       http.NewServeMux(),
		db:        db,
		routerCfg: routerCfg,
		metrics:   middleware.NewMetrics(),
		log:       log,
	}
	app.setupRoutes()

	// Outermost first: recover, log, parse the session, pick the language,
	// then count by route pattern right around the mux.
	var h http.Handler = app.metrics.Wrap(app.mux)
	h = middleware.Prefs(h)
	h = routerCfg.Sessions.Middleware(h)
	h = middleware.Logging(log)(h)
	h = middleware.Recover(log)(h)
	app.handler = h
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Public routes (no auth required)
	// ─────────────────────────────────────────────────────────────────────────
	ah := a.routerCfg.AuthHandler
	pg := a.routerCfg.PageHandler

	a.mux.HandleFunc("GET /{$}", pg.Landing)
	a.mux.HandleFunc("GET /login", ah.Login)
	a.mux.HandleFunc("POST /login", ah.Login)
	a.mux.HandleFunc("GET /signup", ah.Signup)
	a.mux.HandleFunc("POST /signup", ah.Signup)
	a.mux.HandleFunc("GET /signup-success", ah.SignupSuccess)
	a.mux.HandleFunc("POST /logout", ah.Logout)

	a.mux.HandleFunc("GET /healthz", a.healthz)
	a.mux.Handle("GET /metrics", a.metrics.Handler())

	// ─────────────────────────────────────────────────────────────────────────
	// Dashboard (session + allow-list on every request)
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /dashboard",
		a.guard(policy.ResourceDashboard, gate.ActionView, pg.Dashboard))

	// Quotes
	qh := a.routerCfg.QuoteHandler
	a.mux.Handle("GET /dashboard/quotes",
		a.guard(policy.ResourceQuote, gate.ActionList, qh.List))
	a.mux.Handle("POST /dashboard/quotes",
		a.guard(policy.ResourceQuote, gate.ActionCreate, qh.Create))
	a.mux.Handle("GET /dashboard/new-quote",
		a.guard(policy.ResourceQuote, gate.ActionCreate, qh.NewQuote))
	a.mux.Handle("POST /dashboard/new-quote",
		a.guard(policy.ResourceQuote, gate.ActionCreate, qh.CreateFromPage))
	a.mux.Handle("GET /dashboard/quotes/{id}",
		a.guard(policy.ResourceQuote, gate.ActionView, qh.View))
	a.mux.Handle("POST /dashboard/quotes/{id}/delete",
		a.guard(policy.ResourceQuote, gate.ActionDelete, qh.Delete))
	a.mux.Handle("POST /dashboard/quotes/{id}/status",
		a.guard(policy.ResourceQuote, gate.ActionUpdate, qh.SetStatus))

	// Quote items
	ih := a.routerCfg.ItemHandler
	a.mux.Handle("GET /dashboard/quotes/{id}/items/new",
		a.guard(policy.ResourceQuoteItem, gate.ActionCreate, ih.New))
	a.mux.Handle("POST /dashboard/quotes/{id}/items",
		a.guard(policy.ResourceQuoteItem, gate.ActionCreate, ih.Create))
	a.mux.Handle("GET /dashboard/quotes/{id}/items/{item_id}/edit",
		a.guard(policy.ResourceQuoteItem, gate.ActionUpdate, ih.Edit))
	a.mux.Handle("POST /dashboard/quotes/{id}/items/{item_id}",
		a.guard(policy.ResourceQuoteItem, gate.ActionUpdate, ih.Update))
	a.mux.Handle("POST /dashboard/quotes/{id}/items/{item_id}/delete",
		a.guard(policy.ResourceQuoteItem, gate.ActionDelete, ih.Delete))

	// ─────────────────────────────────────────────────────────────────────────
	// Catalog lookups for the selector chain (read-only)
	// ─────────────────────────────────────────────────────────────────────────
	ch := a.routerCfg.CatalogHandler
	a.mux.Handle("GET /api/catalog/products",
		a.guard(policy.ResourceCatalog, gate.ActionList, ch.Products))
	a.mux.Handle("GET /api/catalog/products/{id}/collections",
		a.guard(policy.ResourceCatalog, gate.ActionView, ch.Collections))
	a.mux.Handle("GET /api/catalog/products/{id}/colors",
		a.guard(policy.ResourceCatalog, gate.ActionView, ch.Colors))

	// ─────────────────────────────────────────────────────────────────────────
	// Static files
	// ─────────────────────────────────────────────────────────────────────────
	a.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
}

// guard wraps a handler with the session guard for resourceType/action.
func (a *App) guard(resourceType string, action gate.Action, h http.HandlerFunc) http.Handler {
	return a.routerCfg.AuthGate.Guard(resourceType, action)(h)
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		a.log.WarnContext(r.Context(), "health check failed", "err", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
