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
	"github.com/TidelineMutual/TidelineCore/services/portal/bridge"
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
	"github.com/TidelineMutual/TidelineCore/services/portal/services"
)

// ListPolicies returns every policy.
func ListPolicies(policies *services.Policies, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := policies.ListAll()
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, all)
	}
}

// GetPolicy returns one policy.
func GetPolicy(policies *services.Policies, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		policy, err := policies.GetByID(id)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, policy)
	}
}

// CreatePolicy writes a policy directly to the local store. Reachable only
// inside the admin group; customers go through RelayPolicy instead.
func CreatePolicy(policies *services.Policies, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var policy domain.Policy
		if !bindJSON(c, &policy) {
			return
		}
		if err := policies.Create(&policy); err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, policy)
	}
}

// UpdatePolicy overwrites every mutable field of a policy.
func UpdatePolicy(policies *services.Policies, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var policy domain.Policy
		if !bindJSON(c, &policy) {
			return
		}
		if err := policies.Update(id, &policy); err != nil {
			writeError(c, log, err)
			return
		}
		updated, err := policies.GetByID(id)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// DeletePolicy removes a policy without recorded claims or payments.
func DeletePolicy(policies *services.Policies, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := policies.Delete(id); err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "policy deleted"})
	}
}

// RelayPolicy is the customer-facing policy creation: it forwards the
// request to the policy API over HTTP rather than writing the local store.
// A non-2xx answer from the policy API is reported as a 502 here.
func RelayPolicy(client *bridge.Client, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var policy domain.Policy
		if !bindJSON(c, &policy) {
			return
		}
		created, err := client.CreatePolicy(c.Request.Context(), &policy)
		if err != nil {
			log.Warn("policy relay failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "policy service rejected the request"})
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}
