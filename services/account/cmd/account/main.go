package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"kitapsever/internal/ratelimit"
	"kitapsever/internal/util"
	"kitapsever/pkg/store"
	"kitapsever/services/account/internal/app"
	"kitapsever/services/account/internal/config"
	"kitapsever/services/account/internal/security"
	"kitapsever/services/account/internal/server"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}
	leeway, err := config.ParseJWTLeeway(cfg.JWTLeeway)
	if err != nil {
		log.Fatalf("failed to parse jwt leeway: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer redisClient.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
	}

	var accounts store.Store
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn("using in-memory account store, data is lost on restart")
		accounts = store.NewMemoryStore()
	default:
		gs, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer gs.Close()
		accounts = gs
	}

	var revoker store.TokenRevoker = store.NewMemoryTokenRevoker()
	if redisClient != nil {
		revoker = store.NewRedisTokenRevoker(redisClient, "")
	}
	sessions, err := store.NewJWTSessionStore(cfg.JWTSecret, sessionTTL, revoker, store.JWTOptions{
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		Leeway:   leeway,
	})
	if err != nil {
		log.Fatalf("failed to init sessions: %v", err)
	}

	appCore, err := app.New(app.Config{
		Store:       accounts,
		Sessions:    sessions,
		CommentAuth: app.CommentAuth(cfg.CommentAuth),
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		log.Fatalf("invalid trustedProxyCidrs: %v", err)
	}
	limiters := server.Limiters{
		Register: newLimiter(redisClient, "kitapsever:ratelimit:register", cfg.SignupRateLimitPerMinute),
		Login:    newLimiter(redisClient, "kitapsever:ratelimit:login", cfg.LoginRateLimitPerMinute),
		Comment:  newLimiter(redisClient, "kitapsever:ratelimit:comment", cfg.CommentRateLimitPerMinute),
	}

	httpServer := server.New(server.Config{
		App:            appCore,
		Limiters:       limiters,
		TrustedProxies: trusted,
		AllowedOrigins: cfg.AllowedOrigins,
		Alerter:        security.NewAuditAlerter(redisClient, ""),
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("account server listening", "addr", addr, "store", cfg.Store, "comment_auth", cfg.CommentAuth)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
	logger.Info("account server stopped")
}

func newLimiter(client *redis.Client, prefix string, perMinute int) *ratelimit.FixedWindowLimiter {
	if client == nil || perMinute <= 0 {
		return nil
	}
	l, err := ratelimit.NewFixedWindowLimiter(client, prefix, perMinute, time.Minute)
	if err != nil {
		log.Fatalf("failed to init rate limiter %s: %v", prefix, err)
	}
	return l
}
