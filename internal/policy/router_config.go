package policy

import (
	"log/slog"
	"time"

	"github.com/diewo77/go-quotes/auth"
	"github.com/diewo77/go-quotes/internal/catalog"
	"github.com/diewo77/go-quotes/internal/handlers"
	"github.com/diewo77/go-quotes/internal/services"
	"gorm.io/gorm"
)

// RouterConfig holds configured handlers and middleware for the application.
type RouterConfig struct {
	Sessions *auth.Manager

	// AuthGate provides the allow-list guard for every dashboard route
	AuthGate  *AuthGate
	AllowList *DBAllowList

	AuthHandler    *handlers.AuthHandler
	PageHandler    *handlers.PageHandler
	QuoteHandler   *handlers.QuoteHandler
	ItemHandler    *handlers.ItemHandler
	CatalogHandler *handlers.CatalogHandler

	QuoteService   *services.QuoteService
	CatalogService *catalog.Service
}

// NewRouterConfig wires the gate, services and handlers around one store.
//
//	cfg := policy.NewRouterConfig(db, auth.NewManager(secret, false), 5*time.Minute, log)
//	mux.Handle("GET /dashboard/quotes",
//		cfg.AuthGate.Guard(policy.ResourceQuote, gate.ActionList)(http.HandlerFunc(cfg.QuoteHandler.List)))
func NewRouterConfig(db *gorm.DB, sessions *auth.Manager, catalogTTL time.Duration, log *slog.Logger) *RouterConfig {
	allowList := NewDBAllowList(db)
	authGate := NewAuthGate(allowList, sessions, log)

	quoteService := services.NewQuoteService(db)
	catalogService := catalog.NewService(catalog.NewGormStore(db), catalogTTL)

	return &RouterConfig{
		Sessions:       sessions,
		AuthGate:       authGate,
		AllowList:      allowList,
		AuthHandler:    handlers.NewAuthHandler(db, sessions, log),
		PageHandler:    handlers.NewPageHandler(quoteService, log),
		QuoteHandler:   handlers.NewQuoteHandler(quoteService, log),
		ItemHandler:    handlers.NewItemHandler(quoteService, catalogService, log),
		CatalogHandler: handlers.NewCatalogHandler(catalogService, log),
		QuoteService:   quoteService,
		CatalogService: catalogService,
	}
}
