package server

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"kitapsever/internal/ratelimit"
	"kitapsever/internal/util"
	"kitapsever/pkg/domain"
	"kitapsever/services/account/internal/app"
	"kitapsever/services/account/internal/security"
)

const (
	msgRegisterFailed    = "Kayıt işlemi sırasında bir hata oluştu"
	msgLoginFailed       = "Giriş işlemi sırasında bir hata oluştu"
	msgMeFailed          = "Kullanıcı bilgileri alınırken bir hata oluştu"
	msgCommentSaveFailed = "Yorum kaydedilirken bir hata oluştu"
	msgCommentListFailed = "Yorumlar getirilirken bir hata oluştu"
	msgServerError       = "Sunucu hatası"
	msgInvalidBody       = "Geçersiz istek gövdesi"
	msgMethodNotAllowed  = "Bu yöntem desteklenmiyor"
	msgTooManyRequests   = "Çok fazla istek gönderildi, lütfen daha sonra tekrar deneyin"
)

// Limiters holds the optional per-route rate limiters; nil disables a route's limit.
type Limiters struct {
	Register *ratelimit.FixedWindowLimiter
	Login    *ratelimit.FixedWindowLimiter
	Comment  *ratelimit.FixedWindowLimiter
}

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Limiters       Limiters
	TrustedProxies *util.TrustedProxies
	AllowedOrigins []string
	Alerter        *security.AuditAlerter
}

// Server exposes the account and comment HTTP API.
type Server struct {
	app      *app.App
	limiters Limiters
	trusted  *util.TrustedProxies
	origins  []string
	alerter  *security.AuditAlerter
	mux      *http.ServeMux
}

func New(cfg Config) *Server {
	s := &Server{
		app:      cfg.App,
		limiters: cfg.Limiters,
		trusted:  cfg.TrustedProxies,
		origins:  cfg.AllowedOrigins,
		alerter:  cfg.Alerter,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	var h http.Handler = s.mux
	h = util.WithCORS(s.origins, h)
	h = util.WithSecurityHeaders(h)
	h = util.WithRequestLog("account", h)
	return util.WithRequestID(h)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.Handle("/api/auth/register", s.limited(s.limiters.Register, security.EventRegister, s.handleRegister))
	s.mux.Handle("/api/auth/login", s.limited(s.limiters.Login, security.EventLogin, s.handleLogin))
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.Handle("/api/auth/me", s.authenticated(s.handleMe))

	// comments
	s.mux.Handle("/api/comments", s.limited(s.limiters.Comment, security.EventComment, s.handleCreateComment))
	s.mux.HandleFunc("/api/comments/", s.handleListComments)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, app.ErrLoginRequired.Error())
			return
		}
		user, err := s.app.UserFromToken(r.Context(), token)
		switch {
		case errors.Is(err, app.ErrInvalidToken), errors.Is(err, app.ErrUserNotFound):
			s.audit(r, security.EventMe, security.OutcomeFail)
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		case err != nil:
			util.LoggerFromContext(r.Context()).Error("authenticate failed", "err", err)
			writeError(w, http.StatusInternalServerError, msgServerError)
			return
		}
		next(w, r, user)
	})
}

func (s *Server) limited(l *ratelimit.FixedWindowLimiter, event string, next http.HandlerFunc) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ok, retry := l.Allow(r.Context(), util.ClientIP(r, s.trusted))
			if !ok {
				s.audit(r, event, security.OutcomeRateLimited)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
				writeError(w, http.StatusTooManyRequests, msgTooManyRequests)
				return
			}
		}
		next(w, r)
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	profile, token, err := s.app.Register(r.Context(), app.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		if app.IsValidation(err) {
			s.audit(r, security.EventRegister, security.OutcomeFail)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		util.LoggerFromContext(r.Context()).Error("register failed", "err", err)
		writeError(w, http.StatusInternalServerError, msgRegisterFailed)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{
		Success: true,
		Message: "Kullanıcı başarıyla kaydedildi",
		Token:   token,
		User:    &profile,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	profile, token, err := s.app.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredentials) {
			s.audit(r, security.EventLogin, security.OutcomeFail)
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		util.LoggerFromContext(r.Context()).Error("login failed", "err", err)
		writeError(w, http.StatusInternalServerError, msgLoginFailed)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "Giriş başarılı",
		Token:   token,
		User:    &profile,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, app.ErrLoginRequired.Error())
		return
	}
	if err := s.app.Logout(r.Context(), token); err != nil {
		util.LoggerFromContext(r.Context()).Error("logout failed", "err", err)
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	profile := user.Profile()
	writeJSON(w, http.StatusOK, authResponse{Success: true, User: &profile})
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req commentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	author, err := s.commentAuthor(r)
	if err != nil {
		s.audit(r, security.EventComment, security.OutcomeFail)
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	comment, err := s.app.AddComment(r.Context(), app.CommentInput{
		BookID:   req.BookID,
		Username: req.Username,
		Rating:   req.Rating,
		Text:     req.Text,
	}, author)
	switch {
	case errors.Is(err, app.ErrLoginRequired):
		s.audit(r, security.EventComment, security.OutcomeFail)
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	case app.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		util.LoggerFromContext(r.Context()).Error("add comment failed", "err", err)
		writeError(w, http.StatusInternalServerError, msgCommentSaveFailed)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// commentAuthor resolves the optional bearer token of a comment post. A bad
// token is an error only when comments require a session.
func (s *Server) commentAuthor(r *http.Request) (*domain.User, error) {
	token, ok := bearerToken(r)
	if !ok {
		if s.app.CommentAuthRequired() {
			return nil, app.ErrLoginRequired
		}
		return nil, nil
	}
	user, err := s.app.UserFromToken(r.Context(), token)
	if err != nil {
		if s.app.CommentAuthRequired() {
			if errors.Is(err, app.ErrInvalidToken) || errors.Is(err, app.ErrUserNotFound) {
				return nil, err
			}
			return nil, app.ErrInvalidToken
		}
		util.LoggerFromContext(r.Context()).Info("ignoring token on anonymous comment", "err", err)
		return nil, nil
	}
	return &user, nil
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	bookID := strings.TrimPrefix(r.URL.Path, "/api/comments/")
	if bookID == "" || strings.Contains(bookID, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	comments, err := s.app.ListComments(r.Context(), bookID)
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("list comments failed", "err", err, "book_id", bookID)
		writeError(w, http.StatusInternalServerError, msgCommentListFailed)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// audit logs a security event and escalates when the client crosses its
// alert threshold. Alerter failures never affect the response.
func (s *Server) audit(r *http.Request, event, outcome string) {
	logger := util.LoggerFromContext(r.Context())
	ip := util.ClientIP(r, s.trusted)
	logger.Info("security_audit", "event", event, "outcome", outcome, "client_ip", ip)
	result, err := s.alerter.Observe(r.Context(), event, outcome, ip)
	if err != nil {
		logger.Warn("security alert counter failed", "err", err)
		return
	}
	if result.Triggered {
		logger.Warn("security_alert", "event", event, "outcome", outcome, "client_ip", ip,
			"count", result.Count, "threshold", result.Threshold, "window", result.Window.String())
	}
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type commentRequest struct {
	BookID   string `json:"bookId"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Text     string `json:"text"`
}

type authResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Token   string          `json:"token,omitempty"`
	User    *domain.Profile `json:"user,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Message: msg})
}
