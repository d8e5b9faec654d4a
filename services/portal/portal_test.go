// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package portal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TidelineMutual/TidelineCore/pkg/logging"
	"github.com/TidelineMutual/TidelineCore/services/portal/config"
)

func testService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Defaults()
	cfg.Portal.ListenAddr = "127.0.0.1:0"
	cfg.Portal.PolicyAPIURL = "" // no relay in tests
	cfg.Database.Path = filepath.Join(dir, "tideline.db")
	cfg.Sessions.Path = filepath.Join(dir, "sessions")

	log := logging.New(logging.Config{Service: "portal", Quiet: true})
	svc, err := New(cfg, log)
	require.NoError(t, err)
	return svc
}

func TestServiceWiring(t *testing.T) {
	svc := testService(t)
	defer svc.sessions.Close()

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		svc.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ok")
	})

	t.Run("metrics", func(t *testing.T) {
		w := httptest.NewRecorder()
		svc.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "portal_http_requests_total")
	})

	t.Run("portal routes registered", func(t *testing.T) {
		w := httptest.NewRecorder()
		svc.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRunStopsOnCancel(t *testing.T) {
	svc := testService(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx, "") }()

	// Give the server a moment to come up, then stop it.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
