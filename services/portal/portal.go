// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package portal assembles the insurance portal service: the relational
// store, the session store, the domain services and the HTTP surface.
package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/TidelineMutual/TidelineCore/pkg/logging"
	"github.com/TidelineMutual/TidelineCore/services/portal/auth"
	"github.com/TidelineMutual/TidelineCore/services/portal/bridge"
	"github.com/TidelineMutual/TidelineCore/services/portal/config"
	"github.com/TidelineMutual/TidelineCore/services/portal/routes"
	"github.com/TidelineMutual/TidelineCore/services/portal/services"
	"github.com/TidelineMutual/TidelineCore/services/portal/store"
)

// Service is the assembled portal. Build one with New, then call Run.
type Service struct {
	cfg      config.Config
	log      *logging.Logger
	router   *gin.Engine
	sessions *auth.SessionStore
}

// metrics are registered once per process.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// observe records per-request metrics. Unmatched routes are grouped under
// "unmatched" so a scanner cannot grow the label space.
func observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// New wires the portal from cfg: opens both stores, runs migrations and
// registers the routes.
func New(cfg config.Config, log *logging.Logger) (*Service, error) {
	db, err := store.Open(store.Config{Path: cfg.Database.Path, LogSQL: cfg.Database.LogSQL})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := store.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	sessions, err := auth.OpenSessionStore(auth.SessionConfig{
		Path:   cfg.Sessions.Path,
		TTL:    cfg.Sessions.TTL,
		Logger: log.Slog(),
	})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	var relay *bridge.Client
	if cfg.Portal.PolicyAPIURL != "" {
		relay = bridge.NewClient(cfg.Portal.PolicyAPIURL, log)
	}

	now := time.Now
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), observe())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routes.SetupRoutes(router, routes.Deps{
		Users:     services.NewUsers(db, log),
		Policies:  services.NewPolicies(db, log),
		Claims:    services.NewClaims(db, log),
		Payments:  services.NewPayments(db, log, now),
		Tickets:   services.NewTickets(db, log, now),
		Dashboard: services.NewDashboard(db, now),
		Sessions:  sessions,
		Bridge:    relay,
		Log:       log,
	})

	return &Service{cfg: cfg, log: log, router: router, sessions: sessions}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests
// and closes the session store. The configuration watcher and the session
// garbage collector run alongside the server.
func (s *Service) Run(ctx context.Context, configPath string) error {
	server := &http.Server{
		Addr:              s.cfg.Portal.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		s.log.Info("portal listening", "addr", s.cfg.Portal.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("portal server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		err := s.sessions.RunGC(ctx, 5*time.Minute)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	group.Go(func() error {
		err := config.Watch(ctx, configPath, s.log)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("portal shutdown: %w", err)
		}
		return nil
	})

	err := group.Wait()
	if closeErr := s.sessions.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	s.log.Info("portal stopped")
	return err
}
