// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/AleutianKin/services/kinship"
	"github.com/AleutianAI/AleutianKin/services/kinship/config"
	"github.com/AleutianAI/AleutianKin/services/kinship/telemetry"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the kinship HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.host and server.port")
	return cmd
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests for up to server.shutdown_timeout.
func (a *app) serve(ctx context.Context, addr string) error {
	cfg := a.cfg
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if addr == "" {
		addr = cfg.Server.Addr()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry, telemetry.WithRegistry(reg))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	a.metrics = kinship.NewMetrics(reg)
	svc, err := a.service()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(cfg, svc, a.metrics, reg),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting Aleutian Kin server",
			slog.String("address", addr),
			slog.String("storage", cfg.Storage.Path),
			slog.Bool("auth_required", cfg.Auth.Required))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down Aleutian Kin server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newRouter wires middleware, /metrics and the kinship routes.
func newRouter(cfg config.Config, svc *kinship.Service, metrics *kinship.Metrics, reg *prometheus.Registry) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	if cfg.Server.Debug {
		router.Use(gin.Logger())
	}

	metricsHandler := telemetry.MetricsHandler()
	if metricsHandler == nil {
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}
	router.GET("/metrics", gin.WrapH(metricsHandler))

	var secret []byte
	if cfg.Auth.JWTSecret != "" {
		secret = []byte(cfg.Auth.JWTSecret)
	}
	v1 := router.Group("/v1")
	kinship.RegisterRoutes(v1, kinship.NewHandlers(svc), kinship.RouteOptions{
		Auth: kinship.AuthOptions{
			JWTSecret:     secret,
			AccountHeader: cfg.Auth.AccountHeader,
			Required:      cfg.Auth.Required,
		},
		RateLimit: kinship.RateLimitOptions{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
		},
		Metrics:      metrics,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
	return router
}
