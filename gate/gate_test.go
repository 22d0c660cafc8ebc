package gate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/diewo77/go-quotes/gate"
)

// mockPolicy is a simple policy for testing with string (email) subjects.
type mockPolicy struct {
	allowAll bool
}

func (p *mockPolicy) Can(_ context.Context, _ string, _ gate.Action, _ any) bool {
	return p.allowAll
}

func TestGate_Authorize_NoUser(t *testing.T) {
	g := gate.NewGate[string]()
	g.Register("quote", &mockPolicy{allowAll: true})

	err := g.Authorize(context.Background(), "", gate.ActionView, "quote", nil)
	if !errors.Is(err, gate.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestGate_Authorize_NoPolicy(t *testing.T) {
	g := gate.NewGate[string]()

	err := g.Authorize(context.Background(), "ana@example.com", gate.ActionView, "unknown", nil)
	if !errors.Is(err, gate.ErrNoPolicyDefined) {
		t.Errorf("expected ErrNoPolicyDefined, got %v", err)
	}
}

func TestGate_Authorize_Fallback(t *testing.T) {
	g := gate.NewGate[string]()
	g.Fallback(&mockPolicy{allowAll: true})

	if err := g.Authorize(context.Background(), "ana@example.com", gate.ActionView, "dashboard", nil); err != nil {
		t.Errorf("expected fallback to allow, got %v", err)
	}
}

func TestGate_Authorize_AllowedAndDenied(t *testing.T) {
	g := gate.NewGate[string]()
	g.Register("quote", &mockPolicy{allowAll: true})
	g.Register("catalog", &mockPolicy{allowAll: false})

	if err := g.Authorize(context.Background(), "ana@example.com", gate.ActionCreate, "quote", nil); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if g.Can(context.Background(), "ana@example.com", gate.ActionView, "catalog", nil) {
		t.Error("expected Can to return false")
	}
}

func TestPolicyFunc(t *testing.T) {
	var seen gate.Action
	p := gate.PolicyFunc[string](func(_ context.Context, user string, action gate.Action, _ any) bool {
		seen = action
		return user == "ana@example.com"
	})
	g := gate.NewGate[string]()
	g.Register("quote", p)

	if !g.Can(context.Background(), "ana@example.com", gate.ActionDelete, "quote", nil) {
		t.Error("expected allowed")
	}
	if seen != gate.ActionDelete {
		t.Errorf("expected action delete, got %q", seen)
	}
	if g.Can(context.Background(), "bo@example.com", gate.ActionDelete, "quote", nil) {
		t.Error("expected denied")
	}
}

func TestReadOnly(t *testing.T) {
	g := gate.NewGate[string]()
	g.Register("catalog", gate.ReadOnly[string](&mockPolicy{allowAll: true}))

	tests := []struct {
		action gate.Action
		want   bool
	}{
		{gate.ActionView, true},
		{gate.ActionList, true},
		{gate.ActionCreate, false},
		{gate.ActionUpdate, false},
		{gate.ActionDelete, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			if got := g.Can(context.Background(), "ana@example.com", tt.action, "catalog", nil); got != tt.want {
				t.Errorf("Can(%s) = %v, want %v", tt.action, got, tt.want)
			}
		})
	}
}
