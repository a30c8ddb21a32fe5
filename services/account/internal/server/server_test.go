package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"kitapsever/internal/ratelimit"
	"kitapsever/internal/util"
	"kitapsever/pkg/domain"
	"kitapsever/pkg/store"
	"kitapsever/services/account/internal/app"
	"kitapsever/services/account/internal/security"
)

const testSecret = "server-test-secret"

func newTestServer(t *testing.T, mode app.CommentAuth, limiters Limiters) (http.Handler, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	sessions, err := store.NewJWTSessionStore(testSecret, time.Hour, store.NewMemoryTokenRevoker(), store.JWTOptions{})
	if err != nil {
		t.Fatalf("new sessions: %v", err)
	}
	a, err := app.New(app.Config{Store: mem, Sessions: sessions, CommentAuth: mode})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return New(Config{App: a, Limiters: limiters}).Router(), mem
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type authBody struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    *domain.Profile `json:"user"`
}

func decodeAuth(t *testing.T, rec *httptest.ResponseRecorder) authBody {
	t.Helper()
	var out authBody
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

var registerBody = map[string]string{
	"firstName": "Ayşe",
	"lastName":  "Yılmaz",
	"email":     "ayse@example.com",
	"password":  "gizli1",
}

func TestRegisterLoginAndMe(t *testing.T) {
	h, _ := newTestServer(t, "", Limiters{})

	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", registerBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status %d: %s", rec.Code, rec.Body.String())
	}
	reg := decodeAuth(t, rec)
	if !reg.Success || reg.Token == "" || reg.Message != "Kullanıcı başarıyla kaydedildi" {
		t.Fatalf("unexpected register response %+v", reg)
	}
	if reg.User == nil || reg.User.Email != "ayse@example.com" || reg.User.ID == "" {
		t.Fatalf("unexpected register user %+v", reg.User)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/auth/register", "", registerBody)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register status %d", rec.Code)
	}
	dup := decodeAuth(t, rec)
	if dup.Success || dup.Token != "" || dup.Message != app.ErrEmailTaken.Error() {
		t.Fatalf("unexpected duplicate response %+v", dup)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ayse@example.com", "password": "gizli1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", rec.Code, rec.Body.String())
	}
	login := decodeAuth(t, rec)
	if login.Message != "Giriş başarılı" || login.Token == "" {
		t.Fatalf("unexpected login response %+v", login)
	}
	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(login.Token, claims, func(*jwt.Token) (any, error) { return []byte(testSecret), nil }); err != nil {
		t.Fatalf("parse login token: %v", err)
	}
	if claims["email"] != "ayse@example.com" || claims["id"] != reg.User.ID {
		t.Fatalf("unexpected token claims %v", claims)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/auth/me", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status %d: %s", rec.Code, rec.Body.String())
	}
	me := decodeAuth(t, rec)
	if !me.Success || me.User == nil || me.User.FirstName != "Ayşe" {
		t.Fatalf("unexpected me response %+v", me)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("password")) {
		t.Fatalf("me response leaks password: %s", rec.Body.String())
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h, _ := newTestServer(t, "", Limiters{})
	doJSON(t, h, http.MethodPost, "/api/auth/register", "", registerBody)

	for _, body := range []map[string]string{
		{"email": "ayse@example.com", "password": "yanlis1"},
		{"email": "kimse@example.com", "password": "gizli1"},
	} {
		rec := doJSON(t, h, http.MethodPost, "/api/auth/login", "", body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %v, got %d", body, rec.Code)
		}
		if got := decodeAuth(t, rec).Message; got != "Geçersiz email veya şifre" {
			t.Fatalf("unexpected message %q", got)
		}
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _ := newTestServer(t, "", Limiters{})
	body := map[string]string{"firstName": "Ayşe", "lastName": "Yılmaz", "email": "ayse@example.com", "password": "123"}
	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeAuth(t, rec).Message; got != app.ErrPasswordTooShort.Error() {
		t.Fatalf("unexpected message %q", got)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status %d", rr.Code)
	}
}

func TestMeRequiresValidToken(t *testing.T) {
	h, _ := newTestServer(t, "", Limiters{})

	rec := doJSON(t, h, http.MethodGet, "/api/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized || decodeAuth(t, rec).Message != app.ErrLoginRequired.Error() {
		t.Fatalf("missing token: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized || decodeAuth(t, rec).Message != app.ErrInvalidToken.Error() {
		t.Fatalf("garbage token: %d %s", rec.Code, rec.Body.String())
	}

	// a well-signed token for a user that is not in the store
	sessions, err := store.NewJWTSessionStore(testSecret, time.Hour, nil, store.JWTOptions{})
	if err != nil {
		t.Fatalf("new sessions: %v", err)
	}
	ghost, err := sessions.NewSession(domain.Profile{ID: "ghost", Email: "ghost@example.com"})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/auth/me", ghost, nil)
	if rec.Code != http.StatusUnauthorized || decodeAuth(t, rec).Message != app.ErrUserNotFound.Error() {
		t.Fatalf("ghost token: %d %s", rec.Code, rec.Body.String())
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	h, _ := newTestServer(t, "", Limiters{})
	token := decodeAuth(t, doJSON(t, h, http.MethodPost, "/api/auth/register", "", registerBody)).Token

	rec := doJSON(t, h, http.MethodPost, "/api/auth/logout", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("revoked token status %d", rec.Code)
	}
}

func TestCommentsListedNewestFirst(t *testing.T) {
	h, _ := newTestServer(t, "", Limiters{})
	for _, text := range []string{"ilk", "ikinci"} {
		rec := doJSON(t, h, http.MethodPost, "/api/comments", "", map[string]any{
			"bookId": "b1", "username": "okur", "rating": 4, "text": text,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create comment status %d: %s", rec.Code, rec.Body.String())
		}
	}
	doJSON(t, h, http.MethodPost, "/api/comments", "", map[string]any{
		"bookId": "b2", "username": "okur", "rating": 2, "text": "başka",
	})

	rec := doJSON(t, h, http.MethodGet, "/api/comments/b1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status %d", rec.Code)
	}
	var comments []domain.Comment
	if err := json.Unmarshal(rec.Body.Bytes(), &comments); err != nil {
		t.Fatalf("decode comments: %v", err)
	}
	if len(comments) != 2 || comments[0].Text != "ikinci" || comments[1].Text != "ilk" {
		t.Fatalf("unexpected comments %+v", comments)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/comments/empty", "", nil)
	if rec.Code != http.StatusOK || bytes.TrimSpace(rec.Body.Bytes())[0] != '[' {
		t.Fatalf("empty list should be a json array: %d %s", rec.Code, rec.Body.String())
	}
}

func TestCommentValidation(t *testing.T) {
	h, _ := newTestServer(t, "", Limiters{})
	rec := doJSON(t, h, http.MethodPost, "/api/comments", "", map[string]any{"bookId": "b1", "username": "", "rating": 3, "text": "x"})
	if rec.Code != http.StatusBadRequest || decodeAuth(t, rec).Message != app.ErrCommentFieldsRequired.Error() {
		t.Fatalf("missing username: %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, h, http.MethodPost, "/api/comments", "", map[string]any{"bookId": "b1", "username": "okur", "rating": 6, "text": "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad rating status %d", rec.Code)
	}
}

func TestCommentAuthModes(t *testing.T) {
	body := map[string]any{"bookId": "b1", "username": "okur", "rating": 5, "text": "harika"}

	optional, _ := newTestServer(t, app.CommentAuthOptional, Limiters{})
	if rec := doJSON(t, optional, http.MethodPost, "/api/comments", "bogus", body); rec.Code != http.StatusCreated {
		t.Fatalf("optional mode ignores bad tokens, got %d", rec.Code)
	}

	required, _ := newTestServer(t, app.CommentAuthRequired, Limiters{})
	if rec := doJSON(t, required, http.MethodPost, "/api/comments", "", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("required mode without token: %d", rec.Code)
	}
	if rec := doJSON(t, required, http.MethodPost, "/api/comments", "bogus", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("required mode with bad token: %d", rec.Code)
	}
	token := decodeAuth(t, doJSON(t, required, http.MethodPost, "/api/auth/register", "", registerBody)).Token
	rec := doJSON(t, required, http.MethodPost, "/api/comments", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("required mode with token: %d %s", rec.Code, rec.Body.String())
	}
	var c domain.Comment
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("decode comment: %v", err)
	}
	if c.UserID == "" {
		t.Fatalf("expected comment to carry the author id")
	}
}

func TestRegisterRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter, err := ratelimit.NewFixedWindowLimiter(client, "test:register", 1, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	h, _ := newTestServer(t, "", Limiters{Register: limiter})

	if rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", registerBody); rec.Code != http.StatusCreated {
		t.Fatalf("first register status %d", rec.Code)
	}
	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", registerBody)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestMethodChecks(t *testing.T) {
	h, _ := newTestServer(t, "", Limiters{})
	if rec := doJSON(t, h, http.MethodGet, "/api/auth/login", "", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET login status %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz status %d", rec.Code)
	}
}

func TestRepeatedLoginFailuresRaiseAlert(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(util.NewLogger(&logs, "info"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions, err := store.NewJWTSessionStore(testSecret, time.Hour, nil, store.JWTOptions{})
	if err != nil {
		t.Fatalf("new sessions: %v", err)
	}
	a, err := app.New(app.Config{Store: store.NewMemoryStore(), Sessions: sessions})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	h := New(Config{App: a, Alerter: security.NewAuditAlerter(client, "test:alerts")}).Router()

	creds := map[string]string{"email": "kimse@example.com", "password": "yanlis1"}
	for i := 0; i < 9; i++ {
		if rec := doJSON(t, h, http.MethodPost, "/api/auth/login", "", creds); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d", i+1, rec.Code)
		}
	}
	if strings.Contains(logs.String(), `"msg":"security_alert"`) {
		t.Fatalf("alert raised before threshold: %s", logs.String())
	}
	doJSON(t, h, http.MethodPost, "/api/auth/login", "", creds)
	out := logs.String()
	for _, want := range []string{`"msg":"security_alert"`, `"event":"account.login"`, `"count":10`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log missing %s", want)
		}
	}
}
