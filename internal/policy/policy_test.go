package policy_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diewo77/go-quotes/auth"
	"github.com/diewo77/go-quotes/gate"
	"github.com/diewo77/go-quotes/internal/db"
	"github.com/diewo77/go-quotes/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	return conn
}

type staticList map[string]bool

func (l staticList) Contains(_ context.Context, email string) (bool, error) {
	return l[email], nil
}

type failingList struct{}

func (failingList) Contains(context.Context, string) (bool, error) {
	return false, errors.New("connection refused")
}

func TestDBAllowList(t *testing.T) {
	list := policy.NewDBAllowList(setupTestDB(t))
	ctx := context.Background()

	ok, err := list.Contains(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = list.Add(ctx, " ana@example.com ")
	require.NoError(t, err)
	ok, err = list.Contains(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = list.Contains(ctx, "ANA@example.com")
	assert.False(t, ok, "match is exact")

	_, err = list.Add(ctx, "ana@example.com")
	assert.ErrorIs(t, err, policy.ErrAlreadyAllowed)

	entries, err := list.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, list.Remove(ctx, "ana@example.com"))
	assert.ErrorIs(t, list.Remove(ctx, "ana@example.com"), policy.ErrNotAllowed)
}

func guarded(ag *policy.AuthGate, s *auth.Session) (*httptest.ResponseRecorder, *http.Request, *bool) {
	reached := false
	h := ag.Guard(policy.ResourceDashboard, gate.ActionView)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if s != nil {
		req = req.WithContext(auth.WithSession(req.Context(), *s))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, req, &reached
}

func TestGuardNoSessionRedirectsHome(t *testing.T) {
	ag := policy.NewAuthGate(staticList{}, auth.NewManager("", false), discard)
	rec, _, reached := guarded(ag, nil)
	assert.False(t, *reached)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestGuardAllowListed(t *testing.T) {
	ag := policy.NewAuthGate(staticList{"ana@example.com": true}, auth.NewManager("", false), discard)
	rec, _, reached := guarded(ag, &auth.Session{UserID: 1, Email: "ana@example.com"})
	assert.True(t, *reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardNotListedSignsOut(t *testing.T) {
	ag := policy.NewAuthGate(staticList{}, auth.NewManager("", false), discard)
	rec, _, reached := guarded(ag, &auth.Session{UserID: 1, Email: "eve@example.com"})
	assert.False(t, *reached)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?error=unauthorized", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].MaxAge < 0, "session cookie cleared")
}

func TestGuardLookupErrorDenies(t *testing.T) {
	ag := policy.NewAuthGate(failingList{}, auth.NewManager("", false), discard)
	rec, _, reached := guarded(ag, &auth.Session{UserID: 1, Email: "ana@example.com"})
	assert.False(t, *reached)
	assert.Equal(t, "/?error=unauthorized", rec.Header().Get("Location"))
}

func TestGuardJSONClientsGet401(t *testing.T) {
	ag := policy.NewAuthGate(staticList{}, auth.NewManager("", false), discard)
	h := ag.Guard(policy.ResourceQuote, gate.ActionList)(http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodGet, "/dashboard/quotes", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
}

func TestCatalogIsReadOnly(t *testing.T) {
	ag := policy.NewAuthGate(staticList{"ana@example.com": true}, auth.NewManager("", false), discard)
	ctx := auth.WithSession(context.Background(), auth.Session{UserID: 1, Email: "ana@example.com"})

	assert.True(t, ag.Can(ctx, gate.ActionList, policy.ResourceCatalog))
	assert.False(t, ag.Can(ctx, gate.ActionUpdate, policy.ResourceCatalog))
	assert.True(t, ag.Can(ctx, gate.ActionDelete, policy.ResourceQuote))
	assert.False(t, ag.Can(context.Background(), gate.ActionView, policy.ResourceQuote))
}

func TestGuardRechecksEveryRequest(t *testing.T) {
	conn := setupTestDB(t)
	list := policy.NewDBAllowList(conn)
	ag := policy.NewAuthGate(list, auth.NewManager("", false), discard)
	s := &auth.Session{UserID: 1, Email: "ana@example.com"}

	_, err := list.Add(context.Background(), "ana@example.com")
	require.NoError(t, err)
	_, _, reached := guarded(ag, s)
	assert.True(t, *reached)

	require.NoError(t, list.Remove(context.Background(), "ana@example.com"))
	rec, _, reached := guarded(ag, s)
	assert.False(t, *reached)
	assert.Equal(t, "/?error=unauthorized", rec.Header().Get("Location"))
}
