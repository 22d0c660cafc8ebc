package policy

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/diewo77/go-quotes/auth"
	"github.com/diewo77/go-quotes/gate"
	"github.com/diewo77/go-quotes/httpx"
)

// Resource types known to the gate.
const (
	ResourceDashboard = "dashboard"
	ResourceQuote     = "quote"
	ResourceQuoteItem = "quote_item"
	ResourceCatalog   = "catalog"
)

// allowListPolicy grants every action to allow-listed emails. The list is
// consulted on every call; any lookup error denies.
type allowListPolicy struct {
	list AllowList
	log  *slog.Logger
}

func (p *allowListPolicy) Can(ctx context.Context, email string, action gate.Action, _ any) bool {
	ok, err := p.list.Contains(ctx, email)
	if err != nil {
		p.log.WarnContext(ctx, "allow-list check failed", "email", email, "action", action, "err", err)
		return false
	}
	return ok
}

// AuthGate binds the session to the gate. The subject is the session email.
type AuthGate struct {
	Gate     *gate.Gate[string]
	sessions *auth.Manager
	log      *slog.Logger
}

// NewAuthGate registers the allow-list policy for every resource. The
// catalog is reference data and only readable.
func NewAuthGate(list AllowList, sessions *auth.Manager, log *slog.Logger) *AuthGate {
	p := &allowListPolicy{list: list, log: log}
	g := gate.NewGate[string]()
	g.Fallback(p)
	g.Register(ResourceCatalog, gate.ReadOnly[string](p))
	return &AuthGate{Gate: g, sessions: sessions, log: log}
}

// Authorize checks the current session against the gate.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error {
	s, ok := auth.SessionFromContext(ctx)
	if !ok {
		return gate.ErrUnauthorized
	}
	return ag.Gate.Authorize(ctx, s.Email, action, resourceType, resource)
}

// Can is a convenience method that returns bool instead of error.
func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resourceType string) bool {
	return ag.Authorize(ctx, action, resourceType, nil) == nil
}

// Guard protects a route. Without a session the browser goes back to the
// landing page. With a session that the gate refuses, the session is ended
// and the browser lands on /?error=unauthorized. JSON clients get 401.
func (ag *AuthGate) Guard(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := auth.SessionFromContext(r.Context())
			if !ok {
				if httpx.WantsJSON(r) {
					httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
					return
				}
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			if err := ag.Gate.Authorize(r.Context(), s.Email, action, resourceType, nil); err != nil {
				ag.log.InfoContext(r.Context(), "access denied",
					"email", s.Email, "resource", resourceType, "action", action, "err", err)
				ag.sessions.ClearSession(w)
				if httpx.WantsJSON(r) {
					httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
					return
				}
				http.Redirect(w, r, "/?error=unauthorized", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
