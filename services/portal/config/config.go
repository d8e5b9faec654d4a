// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads service configuration from a YAML file with
// environment overrides, and can watch the file to adjust the log level
// at runtime without a restart.
//
// Precedence, lowest to highest: built-in defaults, the YAML file,
// TIDELINE_* environment variables.
package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/TidelineMutual/TidelineCore/pkg/logging"
)

// Config is the shared configuration for the portal and policy API
// services. Both read the same file; each uses the sections it needs.
type Config struct {
	Portal struct {
		// ListenAddr is the portal bind address.
		ListenAddr string `yaml:"listen_addr"`

		// PolicyAPIURL is the base URL of the policy API for relayed
		// policy creation. Empty disables the relay route.
		PolicyAPIURL string `yaml:"policy_api_url"`
	} `yaml:"portal"`

	PolicyAPI struct {
		// ListenAddr is the policy API bind address.
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"policy_api"`

	Database struct {
		// Path is the SQLite database file.
		Path string `yaml:"path"`

		// LogSQL echoes every statement through the GORM logger.
		LogSQL bool `yaml:"log_sql"`
	} `yaml:"database"`

	Sessions struct {
		// Path is the directory for the session database.
		Path string `yaml:"path"`

		// TTL is the session lifetime.
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"sessions"`

	Logging struct {
		// Level is the minimum log level: debug, info, warn, error.
		Level string `yaml:"level"`

		// Dir, when set, adds per-day JSON log files under this directory.
		Dir string `yaml:"dir"`

		// JSON switches stderr logs to JSON.
		JSON bool `yaml:"json"`
	} `yaml:"logging"`
}

// Defaults returns the configuration used when no file and no environment
// overrides are present.
func Defaults() Config {
	var cfg Config
	cfg.Portal.ListenAddr = ":8080"
	cfg.Portal.PolicyAPIURL = "http://localhost:7227"
	cfg.PolicyAPI.ListenAddr = ":7227"
	cfg.Database.Path = "data/tideline.db"
	cfg.Sessions.Path = "data/sessions"
	cfg.Sessions.TTL = 12 * time.Hour
	cfg.Logging.Level = "info"
	return cfg
}

// Load reads path on top of the defaults, then applies environment
// overrides. An empty path skips the file and uses defaults plus
// environment only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overlays TIDELINE_* variables onto cfg.
func applyEnv(cfg *Config) {
	set := func(dest *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dest = v
		}
	}
	set(&cfg.Portal.ListenAddr, "TIDELINE_PORTAL_ADDR")
	set(&cfg.Portal.PolicyAPIURL, "TIDELINE_POLICY_API_URL")
	set(&cfg.PolicyAPI.ListenAddr, "TIDELINE_POLICYAPI_ADDR")
	set(&cfg.Database.Path, "TIDELINE_DB_PATH")
	set(&cfg.Sessions.Path, "TIDELINE_SESSION_PATH")
	set(&cfg.Logging.Level, "TIDELINE_LOG_LEVEL")
	set(&cfg.Logging.Dir, "TIDELINE_LOG_DIR")

	if v := os.Getenv("TIDELINE_SESSION_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.Sessions.TTL = ttl
		}
	}
}

// Watch re-reads path whenever it changes and applies the logging level to
// log. Only the level is live-reloaded; address or storage changes need a
// restart. Watch blocks until ctx ends and is meant to run in the service
// errgroup.
func Watch(ctx context.Context, path string, log *logging.Logger) error {
	if path == "" {
		<-ctx.Done()
		return ctx.Err()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch config %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				log.Warn("config reload failed", "error", err)
				continue
			}
			log.SetLevel(logging.ParseLevel(cfg.Logging.Level))
			log.Info("log level applied", "level", cfg.Logging.Level)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error", "error", err)
		}
	}
}
