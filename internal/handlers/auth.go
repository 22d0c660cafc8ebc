package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/diewo77/go-quotes/auth"
	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/i18n"
	"github.com/diewo77/go-quotes/internal/db"
	"github.com/diewo77/go-quotes/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db       *gorm.DB
	sessions *auth.Manager
	log      *slog.Logger
}

func NewAuthHandler(db *gorm.DB, sessions *auth.Manager, log *slog.Logger) *AuthHandler {
	return &AuthHandler{db: db, sessions: sessions, log: log}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func readCredentials(r *http.Request) (credentials, error) {
	var c credentials
	if httpx.IsJSONBody(r) {
		if err := httpx.DecodeJSON(r, &c); err != nil {
			return c, err
		}
	} else {
		c = credentials{
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
			Name:     r.FormValue("name"),
		}
	}
	c.Email = strings.TrimSpace(c.Email)
	c.Name = strings.TrimSpace(c.Name)
	return c, nil
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		render(w, r, h.log, http.StatusOK, "login.html", nil)
		return
	}
	lang := i18n.LangFromContext(r.Context())

	c, err := readCredentials(r)
	if err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		render(w, r, h.log, http.StatusBadRequest, "login.html", map[string]any{"Error": i18n.T(lang, "invalid_form")})
		return
	}

	var user models.User
	if err := h.db.WithContext(r.Context()).Where("email = ?", c.Email).First(&user).Error; err != nil {
		h.loginFailed(w, r, c.Email, i18n.T(lang, "invalid_login"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(c.Password)); err != nil {
		h.loginFailed(w, r, c.Email, i18n.T(lang, "invalid_login"))
		return
	}

	h.sessions.CreateSession(w, auth.Session{UserID: user.ID, Email: user.Email})
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"id": user.ID, "email": user.Email})
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, email, msg string) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusUnauthorized, msg, nil)
		return
	}
	render(w, r, h.log, http.StatusUnauthorized, "login.html", map[string]any{"Error": msg, "Email": email})
}

// Signup creates the account only. Whether it may use the app is decided by
// the allow-list, so the user is sent to a confirmation page, not the dashboard.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		render(w, r, h.log, http.StatusOK, "signup.html", nil)
		return
	}
	lang := i18n.LangFromContext(r.Context())

	c, err := readCredentials(r)
	if err != nil {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		render(w, r, h.log, http.StatusBadRequest, "signup.html", map[string]any{"Error": i18n.T(lang, "invalid_form")})
		return
	}
	if c.Email == "" || c.Password == "" {
		h.signupFailed(w, r, c, http.StatusUnprocessableEntity, i18n.T(lang, "email_password_req"))
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		h.log.ErrorContext(r.Context(), "hash password", "err", err)
		h.signupFailed(w, r, c, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := models.User{
		Email:    c.Email,
		Password: string(hashedPassword),
		Name:     c.Name,
	}
	if err := h.db.WithContext(r.Context()).Create(&user).Error; err != nil {
		if db.IsUniqueViolation(err) {
			h.signupFailed(w, r, c, http.StatusConflict, i18n.T(lang, "email_taken"))
			return
		}
		h.signupFailed(w, r, c, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.InfoContext(r.Context(), "user signed up", "user_id", user.ID, "email", user.Email)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, user)
		return
	}
	http.Redirect(w, r, "/signup-success", http.StatusSeeOther)
}

func (h *AuthHandler) signupFailed(w http.ResponseWriter, r *http.Request, c credentials, status int, msg string) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, status, msg, nil)
		return
	}
	render(w, r, h.log, status, "signup.html", map[string]any{"Error": msg, "Email": c.Email, "Name": c.Name})
}

func (h *AuthHandler) SignupSuccess(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.log, http.StatusOK, "signup_success.html", nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearSession(w)
	if httpx.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
