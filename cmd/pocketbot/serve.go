package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pocketbot/internal/backend"
	"pocketbot/internal/bot"
	"pocketbot/internal/cache"
	"pocketbot/internal/catalog"
	"pocketbot/internal/cli"
	"pocketbot/internal/config"
	"pocketbot/internal/dispatch"
	apphttp "pocketbot/internal/http"
	"pocketbot/internal/line"
	"pocketbot/internal/log"
	"pocketbot/internal/replies"
	"pocketbot/internal/router"
	"pocketbot/internal/storage"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the LINE webhook server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve()
		},
	}
	cmd.Flags().String("port", "", "listen port")
	cmd.Flags().String("backend", "", "data backend (memory, sqlite)")
	_ = viper.BindPFlag("PORT", cmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("DATA_BACKEND", cmd.Flags().Lookup("backend"))
	return cmd
}

func serve() error {
	cfg := config.Load()
	logger := cli.SetupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		return err
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	cat, err := catalog.LoadFile(cfg.ClassifierConfigFile)
	if err != nil {
		return fmt.Errorf("load classifier config: %w", err)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	be, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	caches := cache.NewManager(logger)
	if cached, ok := be.Categories.(*storage.CachedCategories); ok {
		caches.Register("categories", cached.Cache())
	}
	caches.Start(time.Minute)
	defer caches.Stop()

	loc := cfg.Location()
	r := router.New(cat, router.Deps{
		Users:        be.Store,
		Categories:   be.Categories,
		Transactions: be.Ledger,
		Summaries:    be.Store,
	}, router.WithLocation(loc), router.WithLogger(logger))

	messenger := line.NewClient(cfg.LineChannelAccessToken,
		line.WithBaseURL(cfg.LineAPIBaseURL),
		line.WithLogger(logger))
	renderer := replies.New(replies.Config{
		AppBaseURL:     cfg.FrontendBaseURL,
		TypingImageURL: cfg.TypingImageURL,
		Location:       loc,
	})
	d := dispatch.New(messenger, renderer,
		dispatch.WithDelay(cfg.TypingDelay),
		dispatch.WithLogger(logger))
	engine := bot.New(r, d,
		bot.WithConcurrency(cfg.EventConcurrency),
		bot.WithLogger(logger))

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:          ":" + cfg.Port,
		ChannelSecret: cfg.LineChannelSecret,
		Logger:        logger,
	}, engine, be.Store)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Webhook server listening", "addr", srv.Addr, "backend", cfg.DataBackend, log.FieldOperation, log.OpStartup)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Graceful shutdown incomplete", log.FieldError, err)
	}
	logger.Info("Server stopped")
	return nil
}
