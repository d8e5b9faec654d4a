// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TidelineMutual/TidelineCore/pkg/logging"
	"github.com/TidelineMutual/TidelineCore/services/portal/services"
)

// GetDashboard returns the admin summary statistics.
func GetDashboard(dashboard *services.Dashboard, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := dashboard.Collect()
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
