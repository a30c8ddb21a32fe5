package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"kitapsever/internal/util"
	"kitapsever/pkg/cache"
	"kitapsever/pkg/catalog"
	"kitapsever/pkg/chat"
	"kitapsever/pkg/readinglist"
	"kitapsever/pkg/review"
	"kitapsever/pkg/storage"
	"kitapsever/services/site/internal/accountclient"
	"kitapsever/services/site/internal/config"
	"kitapsever/services/site/internal/prefs"
	"kitapsever/services/site/internal/terminal"
	"kitapsever/services/site/internal/view"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	debounce, _ := config.ParseDuration("debounceDelay", cfg.DebounceDelay)
	replyDelay, _ := config.ParseDuration("replyDelay", cfg.ReplyDelay)
	catalogTimeout, _ := config.ParseDuration("catalogTimeout", cfg.CatalogTimeout)

	// stdout belongs to the terminal front end
	var logOut io.Writer = os.Stderr
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			log.Fatalf("failed to open log file: %v", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := util.NewLogger(logOut, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := storage.Open(ctx, cfg.Storage.Options())
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("close storage failed", "err", err)
		}
	}()

	responder := chat.DefaultResponder()
	if cfg.ChatRulesPath != "" {
		responder, err = chat.LoadResponder(cfg.ChatRulesPath)
		if err != nil {
			log.Fatalf("failed to load chat rules: %v", err)
		}
	}

	localCache := cache.New(store, cache.WithLogger(logger))
	books := catalog.NewClient(cfg.CatalogBaseURL, localCache,
		catalog.WithHTTPClient(&http.Client{Timeout: catalogTimeout}),
		catalog.WithLogger(logger),
	)

	renderer := terminal.NewRenderer(os.Stdout)
	vcfg := view.Config{
		Catalog:        books,
		Lists:          readinglist.New(store, logger),
		Reviews:        review.New(store, logger),
		Chat:           chat.New(store, logger),
		Responder:      responder,
		Prefs:          prefs.New(store),
		Renderer:       renderer,
		Logger:         logger,
		ServerComments: cfg.ServerComments,
		BookChat:       cfg.BookChat,
		FeaturedLimit:  cfg.FeaturedLimit,
		DebounceDelay:  debounce,
		ReplyDelay:     replyDelay,
	}
	if cfg.AccountURL != "" {
		vcfg.Accounts = accountclient.New(cfg.AccountURL, nil)
	}
	controller, err := view.New(vcfg)
	if err != nil {
		log.Fatalf("failed to init controller: %v", err)
	}
	repl := terminal.New(os.Stdin, os.Stdout, controller, renderer)

	logger.Info("site starting", "storage", cfg.Storage.Driver, "account_url", cfg.AccountURL, "server_comments", cfg.ServerComments)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		removed := localCache.Cleanup(gctx)
		logger.Info("cache sweep finished", "removed", removed)
		return nil
	})
	g.Go(func() error {
		return controller.Run(gctx)
	})
	g.Go(func() error {
		defer stop()
		return repl.Run(gctx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("site stopped with error", "err", err)
		os.Exit(1)
	}
}
