package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/hyperdrift-io/whats-that-again/internal/ai"
	"github.com/hyperdrift-io/whats-that-again/internal/config"
	"github.com/hyperdrift-io/whats-that-again/internal/conversation"
	"github.com/hyperdrift-io/whats-that-again/internal/db"
	"github.com/hyperdrift-io/whats-that-again/internal/logger"
	"github.com/hyperdrift-io/whats-that-again/internal/server"
	"github.com/hyperdrift-io/whats-that-again/internal/usage"
)

const rootLongDesc string = `Run the WhatsThatAgain API: a tip-of-the-tongue search backed by a
language model, with a shared daily query quota and short per-session history.

Configuration is read from the environment and an optional .env file.`

const rootShortDesc string = "WhatsThatAgain API server"

const serveLongDesc string = `Start the HTTP server. It listens on APP_PORT until SIGINT or SIGTERM,
then drains in-flight requests for up to 10 seconds.`

const usageLongDesc string = `Print today's query count against MAX_DAILY_QUERIES from the
configured usage store (USAGE_DATABASE_URL or USAGE_FILE).`

const shutdownTimeout = 10 * time.Second

type commander struct {
	debug bool
	port  string
	cfg   config.Config
	log   *slog.Logger
}

func newRootCmd() *cobra.Command {
	cmder := &commander{}

	cmd := &cobra.Command{
		Use:          "whatsthatagain",
		Short:        rootShortDesc,
		Long:         rootLongDesc,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmder.setup(cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.serve(cmd.Context())
		},
	}
	cmd.PersistentFlags().BoolVarP(&cmder.debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().StringVarP(&cmder.port, "port", "p", "", "Port to listen on (default: APP_PORT)")

	cmd.AddCommand(newServeCmd(cmder), newUsageCmd(cmder))
	return cmd
}

func newServeCmd(cmder *commander) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&cmder.port, "port", "p", "", "Port to listen on (default: APP_PORT)")
	return cmd
}

func newUsageCmd(cmder *commander) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show today's query count",
		Long:  usageLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			tracker, closeStore, err := cmder.openTracker(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			decision := tracker.Peek(ctx)
			if reset {
				decision, err = tracker.Reset(ctx)
				if err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), decision.Info())
			return err
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "Reset today's count to zero")
	return cmd
}

func (c *commander) setup(w io.Writer) {
	c.cfg = config.Load()
	if c.port != "" {
		c.cfg.AppPort = c.port
	}

	c.log = logger.New(loggerOptions(c.cfg, c.debug, w)...)
	slog.SetDefault(c.log)
}

// loggerOptions maps LOG_LEVEL, LOG_FORMAT and --debug onto the logger.
// Debug JSON output carries the call site.
func loggerOptions(cfg config.Config, debug bool, w io.Writer) []logger.Option {
	jsonFormat := cfg.LogFormat == "json"
	opts := []logger.Option{
		logger.WithWriter(w),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithJSON(jsonFormat),
	}
	if debug {
		opts = append(opts, logger.WithDebug(true), logger.WithSource(jsonFormat))
	}
	return opts
}

func (c *commander) serve(ctx context.Context) error {
	if err := c.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.cfg.AppEnv != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	tracker, closeStore, err := c.openTracker(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	provider, err := ai.NewProvider(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("ai provider: %w", err)
	}
	gateway := ai.NewGateway(provider,
		ai.WithMaxOutputTokens(c.cfg.AIMaxOutputTokens),
		ai.WithMemoryTagMaxTokens(c.cfg.MemoryTagMaxTokens),
		ai.WithGatewayLogger(c.log),
	)
	tiers := ai.ResolveTiers(c.cfg)

	app := server.New(c.cfg, tracker, conversation.NewMemoryStore(), gateway, tiers, server.WithLogger(c.log))
	httpServer := &http.Server{
		Addr:              ":" + c.cfg.AppPort,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		c.log.Info("whatsthatagain api listening",
			"addr", "http://localhost:"+c.cfg.AppPort,
			"provider", provider.Name(),
			"tiers", strings.Join(tiers, ","),
		)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	c.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		c.log.Error("graceful shutdown failed", "err", err)
	}
	return nil
}

// openTracker builds the quota tracker over Postgres when USAGE_DATABASE_URL
// is set and over the usage file otherwise. The returned func releases the
// store.
func (c *commander) openTracker(ctx context.Context) (*usage.Tracker, func(), error) {
	opts := []usage.TrackerOption{usage.WithLogger(c.log)}

	if dsn := strings.TrimSpace(c.cfg.UsageDatabaseURL); dsn != "" {
		pool, err := db.Connect(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("usage database: %w", err)
		}
		store := usage.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		c.log.Info("using postgres usage store")
		return usage.NewTracker(store, c.cfg.MaxDailyQueries, opts...), pool.Close, nil
	}

	path := strings.TrimSpace(c.cfg.UsageFile)
	if path == "" {
		return nil, nil, errors.New("USAGE_FILE or USAGE_DATABASE_URL is required")
	}
	store := usage.NewFileStore(path)
	c.log.Debug("using file usage store", "path", store.Path())
	return usage.NewTracker(store, c.cfg.MaxDailyQueries, opts...), func() {}, nil
}
