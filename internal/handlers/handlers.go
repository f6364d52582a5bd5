package handlers

import (
	"context"
	"errors"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/forms"
	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
	// SessionDuration is how long a plain session lasts (12 hours).
	SessionDuration = 12 * time.Hour
	// RememberDuration is how long a "remember me" session lasts (30 days).
	RememberDuration = 30 * 24 * time.Hour
)

// genericFailureNotice is shown when persistence fails for reasons the user
// cannot fix.
const genericFailureNotice = "An error occurred. Please try again."

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db           *storage.DB
	templateDir  string
	secureCookie bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, templateDir string, secureCookie bool) *Handlers {
	return &Handlers{db: db, templateDir: templateDir, secureCookie: secureCookie}
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware wraps handlers to require authentication. Anonymous
// requests are redirected to the login page with the originally requested
// target preserved in the "next" query parameter.
//
// It also implements rolling sessions: if a session is past the halfway
// point of its lifetime, it is automatically renewed for another full
// duration of its kind.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			h.redirectToLogin(w, r)
			return
		}

		sessionInfo, err := h.db.ValidateSessionWithInfo(cookie.Value)
		if err != nil {
			// Invalid or expired session, clear the cookie
			h.clearSessionCookie(w)
			h.redirectToLogin(w, r)
			return
		}

		// Rolling session: renew if past halfway point. This keeps active
		// users logged in while still expiring inactive sessions.
		duration := sessionDuration(sessionInfo.Remember)
		now := time.Now()
		if sessionInfo.ExpiresAt.Sub(now) < duration/2 {
			newExpiresAt := now.Add(duration)
			if err := h.db.RenewSession(cookie.Value, newExpiresAt); err == nil {
				h.setSessionCookie(w, cookie.Value, sessionInfo.Remember)
			}
			// If renewal fails, just continue with the current session
		}

		ctx := context.WithValue(r.Context(), UserContextKey, sessionInfo.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handlers) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := "/login"
	if r.URL.Path != "" && r.URL.Path != "/" {
		target += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func sessionDuration(remember bool) time.Duration {
	if remember {
		return RememberDuration
	}
	return SessionDuration
}

// sanitizeNext restricts post-login redirect targets to same-site paths.
func sanitizeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}

// currentSessionUser resolves the session cookie outside AuthMiddleware,
// for routes that redirect already-authenticated users away.
func (h *Handlers) currentSessionUser(r *http.Request) *models.User {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	user, err := h.db.ValidateSession(cookie.Value)
	if err != nil {
		return nil
	}
	return user
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string, remember bool) {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		// Without MaxAge the cookie is dropped when the browser closes.
		cookie.MaxAge = int(RememberDuration.Seconds())
	}
	http.SetCookie(w, cookie)
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// FormViewModel holds data for form pages: field errors, the submitted
// values for re-rendering, and a page-level notice.
type FormViewModel struct {
	Errors map[string]string
	Values map[string]string
	Notice string
	Next   string
}

func viewModelFrom(res forms.Result) FormViewModel {
	return FormViewModel{Errors: res.Errors, Values: res.Values}
}

// RegisterForm renders the registration page.
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if h.currentSessionUser(r) != nil {
		http.Redirect(w, r, "/home", http.StatusFound)
		return
	}
	h.render(w, "register.html", FormViewModel{})
}

// Register handles the registration form submission.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if h.currentSessionUser(r) != nil {
		http.Redirect(w, r, "/home", http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.render(w, "register.html", FormViewModel{Notice: "Invalid form submission"})
		return
	}

	res := forms.Registration.Validate(r.PostForm)
	if !res.OK {
		h.render(w, "register.html", viewModelFrom(res))
		return
	}

	hash, err := auth.HashPassword(res.Values["password"])
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		h.render(w, "register.html", FormViewModel{Values: res.Values, Notice: genericFailureNotice})
		return
	}

	if _, err := h.db.CreateUser(res.Values["username"], res.Values["email"], hash); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			res.Errors["email"] = "Email is already registered"
			h.render(w, "register.html", viewModelFrom(res))
			return
		}
		log.Printf("Failed to create user: %v", err)
		h.render(w, "register.html", FormViewModel{Values: res.Values, Notice: genericFailureNotice})
		return
	}

	http.Redirect(w, r, "/login?registered=1", http.StatusFound)
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.currentSessionUser(r) != nil {
		http.Redirect(w, r, "/home", http.StatusFound)
		return
	}

	vm := FormViewModel{Next: sanitizeNext(r.URL.Query().Get("next"))}
	if r.URL.Query().Get("registered") == "1" {
		vm.Notice = "Your account has been created! Please log in."
	}
	h.render(w, "login.html", vm)
}

// Login handles the login form submission. The failure message is identical
// whether the email is unknown or the password is wrong.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if h.currentSessionUser(r) != nil {
		http.Redirect(w, r, "/home", http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.render(w, "login.html", FormViewModel{Notice: "Invalid form submission"})
		return
	}

	next := sanitizeNext(r.PostForm.Get("next"))

	res := forms.Login.Validate(r.PostForm)
	if !res.OK {
		vm := viewModelFrom(res)
		vm.Next = next
		h.render(w, "login.html", vm)
		return
	}

	user, err := h.db.GetUserByEmail(res.Values["email"])
	if err != nil || !auth.CheckPassword(res.Values["password"], user.PasswordHash) {
		h.render(w, "login.html", FormViewModel{
			Values: res.Values,
			Notice: "Invalid email or password",
			Next:   next,
		})
		return
	}

	remember := res.Bools["remember"]

	token, err := auth.GenerateSessionToken()
	if err != nil {
		log.Printf("Failed to generate session token: %v", err)
		h.render(w, "login.html", FormViewModel{Values: res.Values, Notice: genericFailureNotice, Next: next})
		return
	}

	expiresAt := time.Now().Add(sessionDuration(remember))
	if err := h.db.CreateSession(token, user.ID, remember, expiresAt); err != nil {
		log.Printf("Failed to create session: %v", err)
		h.render(w, "login.html", FormViewModel{Values: res.Values, Notice: genericFailureNotice, Next: next})
		return
	}

	h.setSessionCookie(w, token, remember)

	if next != "" {
		http.Redirect(w, r, next, http.StatusFound)
		return
	}
	http.Redirect(w, r, "/home", http.StatusFound)
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.db.DeleteSession(cookie.Value); err != nil {
			log.Printf("Failed to delete session: %v", err)
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handlers) render(w http.ResponseWriter, viewName string, data any) {
	tmpl, err := template.ParseFiles(filepath.Join(h.templateDir, "base.html"), filepath.Join(h.templateDir, viewName))
	if err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Template execution error: %v", err)
	}
}
