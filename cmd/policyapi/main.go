// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command policyapi runs the standalone policy CRUD service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/TidelineMutual/TidelineCore/pkg/logging"
	"github.com/TidelineMutual/TidelineCore/services/policyapi"
	"github.com/TidelineMutual/TidelineCore/services/portal/config"
)

func main() {
	cfg, err := config.Load(os.Getenv("TIDELINE_CONFIG"))
	if err != nil {
		logging.Default().Error("load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(logging.Config{
		Level:   cfg.Logging.Level,
		Service: "policyapi",
		JSON:    cfg.Logging.JSON,
		LogDir:  cfg.Logging.Dir,
	})
	defer log.Close()

	svc, err := policyapi.New(cfg, log)
	if err != nil {
		log.Error("start policy API", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("policy API exited", "error", err)
		os.Exit(1)
	}
}
