package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"capsarc/internal/app"
	"capsarc/internal/ratelimit"
	"capsarc/internal/util"
	"capsarc/pkg/auth"
	"capsarc/pkg/domain"
)

const sessionCookieName = "capsarc_session"

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                     *app.App
	RedisAddr               string
	RedisPassword           string
	LoginRateLimitPerMinute int
	LoginLimiter            *ratelimit.FixedWindowLimiter
	MaxUploadBytes          int64
	TrustedProxyCIDRs       []string
	AllowedOrigins          []string
	CookieSecure            bool
	SessionTTL              time.Duration
}

// Server exposes the HTTP API for the capstone archive.
type Server struct {
	app            *app.App
	mux            *http.ServeMux
	loginLimiter   *ratelimit.FixedWindowLimiter
	trustedProxies *util.TrustedProxies
	allowedOrigins []string
	maxUploadBytes int64
	cookieSecure   bool
	sessionTTL     time.Duration
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, fmt.Errorf("server: app is required")
	}
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 * 1024 * 1024
	}
	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 12 * time.Hour
	}

	loginLimiter := cfg.LoginLimiter
	if loginLimiter == nil {
		loginLimit := cfg.LoginRateLimitPerMinute
		if loginLimit <= 0 {
			loginLimit = 10
		}
		var err error
		loginLimiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "capsarc:ratelimit:login", loginLimit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init login limiter: %w", err)
		}
	}

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		return nil, fmt.Errorf("parse trusted proxies: %w", err)
	}

	s := &Server{
		app:            cfg.App,
		mux:            http.NewServeMux(),
		loginLimiter:   loginLimiter,
		trustedProxies: trusted,
		allowedOrigins: cfg.AllowedOrigins,
		maxUploadBytes: maxUploadBytes,
		cookieSecure:   cfg.CookieSecure,
		sessionTTL:     sessionTTL,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("capsarc", util.WithSecurityHeaders(util.WithCORS(s.allowedOrigins, s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/auth/register", s.handleRegister)
	s.mux.HandleFunc("/auth/login", s.handleLogin)
	s.mux.HandleFunc("/auth/logout", s.handleLogout)
	s.mux.Handle("/auth/change-password", s.withUser(s.handleChangePassword))
	s.mux.HandleFunc("/auth/admin/register", s.handleAdminRegister)
	s.mux.HandleFunc("/auth/admin/login", s.handleAdminLogin)
	s.mux.HandleFunc("/auth/admin/logout", s.handleLogout)

	// projects
	s.mux.HandleFunc("/projects", s.handleHome)
	s.mux.HandleFunc("/projects/browse", s.handleBrowse)
	s.mux.HandleFunc("/projects/suggest", s.handleSuggest)
	s.mux.HandleFunc("/projects/", s.handleProjectByID)

	// library
	s.mux.Handle("/library", s.withUser(s.handleLibrary))
	s.mux.Handle("/library/", s.withUser(s.handleLibraryEntry))

	// profile
	s.mux.Handle("/profile", s.withUser(s.handleProfile))

	// admin
	s.mux.Handle("/admin/dashboard", s.withAdmin(s.handleDashboard))
	s.mux.Handle("/admin/projects", s.withAdmin(s.handleAdminProjects))
	s.mux.Handle("/admin/projects/", s.withAdmin(s.handleAdminProjectByID))
	s.mux.Handle("/admin/users", s.withAdmin(s.handleAdminUsers))
	s.mux.Handle("/admin/users/active", s.withAdmin(s.handleAdminActiveUsers))
	s.mux.Handle("/admin/users/", s.withAdmin(s.handleAdminUserByID))
	s.mux.Handle("/admin/last-active", s.withUser(s.handleLastActive))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// session resolves the cookie-carried token, if any.
func (s *Server) session(r *http.Request) (domain.Session, string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return domain.Session{}, "", false
	}
	sess, ok, err := s.app.Sessions().GetSession(cookie.Value)
	if err != nil || !ok {
		return domain.Session{}, "", false
	}
	return sess, cookie.Value, true
}

// viewerID returns the user ID for saved-state overlays, zero for anonymous
// or admin viewers.
func (s *Server) viewerID(r *http.Request) int64 {
	sess, _, ok := s.session(r)
	if !ok || sess.Kind != domain.KindUser {
		return 0
	}
	return sess.PrincipalID
}

type sessionHandler func(http.ResponseWriter, *http.Request, domain.Session)

func (s *Server) withUser(next sessionHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _, ok := s.session(r)
		if !ok || sess.Kind != domain.KindUser {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, sess)
	})
}

func (s *Server) withAdmin(next sessionHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _, ok := s.session(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if sess.Kind != domain.KindAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r, sess)
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessionTTL / time.Second),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) allowLogin(w http.ResponseWriter, r *http.Request) bool {
	key := r.URL.Path + "|" + util.ClientIP(r, s.trustedProxies)
	if s.loginLimiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, "too many login attempts")
	return false
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCode(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

// writeAppError maps application sentinel errors onto HTTP statuses.
// Anything unmapped is an internal error and the detail stays server-side.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrFieldsRequired),
		errors.Is(err, app.ErrPasswordMismatch),
		errors.Is(err, app.ErrInvalidFileType),
		errors.Is(err, app.ErrFileRequired),
		errors.Is(err, auth.ErrPasswordTooShort):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrWrongPassword):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrDuplicateUser),
		errors.Is(err, app.ErrUsernameTaken),
		errors.Is(err, app.ErrAdminExists),
		errors.Is(err, app.ErrProjectExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrAdminLimit):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrProjectNotFound),
		errors.Is(err, app.ErrUserNotFound),
		errors.Is(err, app.ErrPDFNotFound),
		errors.Is(err, app.ErrEntryNotRemoved):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func errorCode(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "unauthorized":
		return "AUTH_REQUIRED"
	case message == "invalid username or password":
		return "AUTH_INVALID_CREDENTIALS"
	case message == "too many login attempts":
		return "AUTH_RATE_LIMITED"
	case message == "current password is incorrect":
		return "AUTH_WRONG_PASSWORD"
	case strings.Contains(message, "password") && strings.Contains(message, "match"):
		return "AUTH_PASSWORD_MISMATCH"
	case strings.Contains(message, "password must be"):
		return "AUTH_PASSWORD_TOO_SHORT"
	case message == "admin registration limit reached":
		return "ADMIN_LIMIT_REACHED"
	case message == "username or email already exists":
		return "ADMIN_ALREADY_EXISTS"
	case message == "a user with the same details already exists":
		return "USER_DUPLICATE_DETAILS"
	case message == "username already exists":
		return "USER_USERNAME_TAKEN"
	case message == "user not found":
		return "USER_NOT_FOUND"
	case message == "project already exists":
		return "PROJECT_DUPLICATE"
	case message == "project not found":
		return "PROJECT_NOT_FOUND"
	case message == "pdf file not found":
		return "PROJECT_PDF_NOT_FOUND"
	case message == "entry not found":
		return "LIBRARY_ENTRY_NOT_FOUND"
	case message == "invalid file type":
		return "UPLOAD_INVALID_FILE_TYPE"
	case message == "file is required":
		return "UPLOAD_FILE_REQUIRED"
	case message == "all fields are required":
		return "REQUEST_FIELDS_REQUIRED"
	case message == "invalid form data":
		return "REQUEST_INVALID_FORM"
	case message == "invalid json body":
		return "REQUEST_INVALID_BODY"
	case message == "forbidden":
		return "AUTH_FORBIDDEN"
	case message == "method not allowed":
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case message == "not found":
		return "SYSTEM_NOT_FOUND"
	}

	switch status {
	case http.StatusBadRequest:
		return "REQUEST_INVALID"
	case http.StatusUnauthorized:
		return "AUTH_REQUIRED"
	case http.StatusForbidden:
		return "AUTH_FORBIDDEN"
	case http.StatusNotFound:
		return "SYSTEM_NOT_FOUND"
	case http.StatusConflict:
		return "REQUEST_CONFLICT"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "AUTH_RATE_LIMITED"
	default:
		return "SYSTEM_INTERNAL_ERROR"
	}
}
