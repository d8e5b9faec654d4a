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
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
	"github.com/TidelineMutual/TidelineCore/services/portal/services"
)

// ListClaims returns every claim.
func ListClaims(claims *services.Claims, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := claims.ListAll()
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, all)
	}
}

// GetClaim returns one claim.
func GetClaim(claims *services.Claims, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		claim, err := claims.GetByID(id)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, claim)
	}
}

// SubmitClaim files a new claim against a policy. Reachable only inside
// the admin group; the submitted status is taken as-is.
func SubmitClaim(claims *services.Claims, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var claim domain.Claim
		if !bindJSON(c, &claim) {
			return
		}
		if err := claims.Submit(&claim); err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, claim)
	}
}

// FileClaim is the agent and customer claim submission. The claim always
// opens as OPEN no matter what status the client sent; decisions happen
// later through UpdateClaimStatus.
func FileClaim(claims *services.Claims, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var claim domain.Claim
		if !bindJSON(c, &claim) {
			return
		}
		claim.Status = domain.ClaimOpen
		if err := claims.Submit(&claim); err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, claim)
	}
}

type claimStatusRequest struct {
	Status     string `json:"status"`
	AdjusterID *uint  `json:"adjusterId"`
}

// UpdateClaimStatus decides an open claim and optionally reassigns the
// adjuster in the same request.
func UpdateClaimStatus(claims *services.Claims, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req claimStatusRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := claims.UpdateStatus(id, domain.ClaimStatus(req.Status), req.AdjusterID); err != nil {
			writeError(c, log, err)
			return
		}
		updated, err := claims.GetByID(id)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}
