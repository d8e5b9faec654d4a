// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command portal runs the Tideline insurance portal service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/TidelineMutual/TidelineCore/pkg/logging"
	"github.com/TidelineMutual/TidelineCore/services/portal"
	"github.com/TidelineMutual/TidelineCore/services/portal/config"
)

func main() {
	configPath := os.Getenv("TIDELINE_CONFIG")

	cfg, err := config.Load(configPath)
	if err != nil {
		logging.Default().Error("load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(logging.Config{
		Level:   cfg.Logging.Level,
		Service: "portal",
		JSON:    cfg.Logging.JSON,
		LogDir:  cfg.Logging.Dir,
	})
	defer log.Close()

	svc, err := portal.New(cfg, log)
	if err != nil {
		log.Error("start portal", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Run(ctx, configPath); err != nil && ctx.Err() == nil {
		log.Error("portal exited", "error", err)
		os.Exit(1)
	}
}
