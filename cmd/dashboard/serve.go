package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"watson-dash/pkg/api"
	"watson-dash/pkg/auth"
	"watson-dash/pkg/config"
	"watson-dash/pkg/db"
	"watson-dash/pkg/store"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Capture the dependency snapshot and serve the dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	agg := buildAggregator(ctx, cfg, log)

	st, err := store.Open(cfg.Store.Backend, cfg.Store.SQLitePath, cfg.Store.ConsulAddr, log)
	if err != nil {
		return err
	}
	defer st.Close()

	deps := api.Deps{
		Aggregator: agg,
		Store:      st,
		Hub:        api.NewHub(func() interface{} { return agg.Snapshot() }, log),
		Token:      cfg.Server.Token,
		Logger:     log,
	}
	defer deps.Hub.Close()
	if cfg.DB.Enabled() {
		gdb, err := db.Init(cfg.DB)
		if err != nil {
			return err
		}
		deps.Users = &db.UserRepo{DB: gdb}
		deps.Signer = auth.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		log.Info("operator accounts enabled")
	}

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, deps)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}
	if cfg.Server.TLS.Enabled() {
		tlsCfg, err := cfg.Server.TLS.Build()
		if err != nil {
			return err
		}
		srv.TLSConfig = tlsCfg
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("dashboard listening", zap.String("addr", cfg.Server.Addr), zap.Bool("tls", srv.TLSConfig != nil))
		if srv.TLSConfig != nil {
			errCh <- srv.ListenAndServeTLS("", "")
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
