// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package policyapi is the standalone policy CRUD service.
//
// It owns the write path that the portal relays customer policy creation
// to, and exposes plain REST endpoints under /api/admin/policies. It shares
// the policy store and rules with the portal; only the HTTP surface
// differs. The service itself performs no session authentication; it is
// deployed reachable only from the portal network.
package policyapi

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
	"github.com/TidelineMutual/TidelineCore/services/portal/config"
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
	"github.com/TidelineMutual/TidelineCore/services/portal/services"
	"github.com/TidelineMutual/TidelineCore/services/portal/store"
)

// Service is the assembled policy API. Build one with New, then call Run.
type Service struct {
	cfg      config.Config
	log      *logging.Logger
	router   *gin.Engine
	policies *services.Policies
}

var apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "policyapi_http_requests_total",
	Help: "HTTP requests by method, route and status.",
}, []string{"method", "route", "status"})

// New wires the policy API from cfg: opens the shared store, runs
// migrations and registers the CRUD routes.
func New(cfg config.Config, log *logging.Logger) (*Service, error) {
	db, err := store.Open(store.Config{Path: cfg.Database.Path, LogSQL: cfg.Database.LogSQL})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := store.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	s := &Service{
		cfg:      cfg,
		log:      log,
		policies: services.NewPolicies(db, log),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		apiRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/admin/policies")
	{
		api.GET("", s.list)
		api.GET("/:id", s.get)
		api.POST("", s.create)
		api.PUT("/:id", s.update)
		api.DELETE("/:id", s.delete)
	}

	s.router = router
	return s, nil
}

func (s *Service) writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason, "field": verr.Field})
	default:
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (s *Service) pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func (s *Service) list(c *gin.Context) {
	policies, err := s.policies.ListAll()
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, policies)
}

func (s *Service) get(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	policy, err := s.policies.GetByID(id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}

func (s *Service) create(c *gin.Context) {
	var policy domain.Policy
	if err := c.ShouldBindJSON(&policy); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if err := s.policies.Create(&policy); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, policy)
}

func (s *Service) update(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	var policy domain.Policy
	if err := c.ShouldBindJSON(&policy); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}
	if err := s.policies.Update(id, &policy); err != nil {
		s.writeError(c, err)
		return
	}
	updated, err := s.policies.GetByID(id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Service) delete(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	if err := s.policies.Delete(id); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "policy deleted"})
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.PolicyAPI.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		s.log.Info("policy API listening", "addr", s.cfg.PolicyAPI.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("policy API server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("policy API shutdown: %w", err)
		}
		return nil
	})

	err := group.Wait()
	s.log.Info("policy API stopped")
	return err
}
