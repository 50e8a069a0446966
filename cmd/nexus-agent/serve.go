//
// Tencent is pleased to support the open source community by making trpc-nexus-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-nexus-agent is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-nexus-agent/backend"
	"trpc.group/trpc-go/trpc-nexus-agent/config"
	"trpc.group/trpc-go/trpc-nexus-agent/log"
	"trpc.group/trpc-go/trpc-nexus-agent/marketdata"
	"trpc.group/trpc-go/trpc-nexus-agent/runner"
	"trpc.group/trpc-go/trpc-nexus-agent/server/openbb"
	"trpc.group/trpc-go/trpc-nexus-agent/session"
	"trpc.group/trpc-go/trpc-nexus-agent/session/inmemory"
	sessionredis "trpc.group/trpc-go/trpc-nexus-agent/session/redis"
	"trpc.group/trpc-go/trpc-nexus-agent/telemetry/metric"
	"trpc.group/trpc-go/trpc-nexus-agent/widget"
)

const shutdownTimeout = 30 * time.Second

type serveFlags struct {
	host     string
	port     int
	envFiles []string
}

func newServeCmd() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(f.envFiles...)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Host = f.host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = f.port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&f.host, "host", "", "listen host, overrides HOST")
	cmd.Flags().IntVar(&f.port, "port", 0, "listen port, overrides PORT")
	cmd.Flags().StringSliceVar(&f.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log.SetLevel(cfg.LogLevel)
	if err := log.SetModuleLevels(cfg.ModuleLogLevels); err != nil {
		log.Warnf("MODULE_LOG_LEVELS: %v", err)
	}

	if cfg.MetricsEnabled {
		mp, err := metric.NewMeterProvider(ctx,
			metric.WithProtocol(cfg.MetricsProtocol),
			metric.WithEndpoint(cfg.MetricsEndpoint),
			metric.WithServiceVersion(version))
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		if err := metric.InitMeterProvider(mp); err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := mp.Shutdown(sctx); err != nil {
				log.Warnf("metrics shutdown: %v", err)
			}
		}()
	}

	store, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warnf("close session store: %v", err)
		}
	}()

	registry := widget.NewDefaultRegistry(marketdata.NewClient(cfg.ViaNexusBaseURL, cfg.ViaNexusAPIKey))
	rn, err := runner.New(
		backend.NewClient(cfg.FinancialAgentURL),
		store,
		runner.WithPoolSize(cfg.RunnerPoolSize),
		runner.WithCatalog(registry),
	)
	if err != nil {
		return err
	}
	defer rn.Close()

	srv, err := openbb.New(rn, registry,
		openbb.WithAgentName(cfg.AgentName),
		openbb.WithAgentDescription(cfg.AgentDescription))
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("nexus-agent %s listening on %s (env=%s, sessions=%s, widgets=%d)",
			version, httpSrv.Addr, cfg.Environment, cfg.SessionStore, registry.Len())
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	log.InfofContext(ctx, "shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func newSessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		store, err := sessionredis.NewStore(
			sessionredis.WithRedisClientURL(cfg.SessionRedisURL),
			sessionredis.WithTTL(cfg.SessionTTL))
		if err != nil {
			return nil, fmt.Errorf("redis session store: %w", err)
		}
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("redis session store: %w", err)
		}
		return store, nil
	default:
		return inmemory.NewStore(
			inmemory.WithTTL(cfg.SessionTTL),
			inmemory.WithMaxEntries(cfg.SessionMaxEntries)), nil
	}
}
