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

// ListUsers returns every account.
func ListUsers(users *services.Users, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := users.ListAll()
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, all)
	}
}

// GetUser returns one account.
func GetUser(users *services.Users, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		user, err := users.GetByID(id)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// CreateUser is the admin-side account creation. Same semantics as
// self-registration, reachable only inside the admin group.
func CreateUser(users *services.Users, log *logging.Logger) gin.HandlerFunc {
	return Register(users, log)
}

// CreateNonAdminUser is the agent-side account creation. Agents onboard
// customers and fellow agents but cannot create ADMIN accounts.
func CreateNonAdminUser(users *services.Users, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if !bindJSON(c, &req) {
			return
		}
		if role, ok := domain.ParseRole(req.Role); ok && role == domain.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "agents cannot create admin accounts"})
			return
		}
		user, err := users.Register(services.RegisterInput{
			Username: req.Username,
			Password: req.Password,
			Email:    req.Email,
			Role:     domain.Role(req.Role),
		})
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

type updateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// UpdateUser overwrites an account. An empty password keeps the stored one.
func UpdateUser(users *services.Users, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req updateUserRequest
		if !bindJSON(c, &req) {
			return
		}
		err := users.Update(id, services.UpdateInput{
			Username: req.Username,
			Email:    req.Email,
			Role:     domain.Role(req.Role),
			Password: req.Password,
		})
		if err != nil {
			writeError(c, log, err)
			return
		}
		updated, err := users.GetByID(id)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// DeleteUser removes an account.
func DeleteUser(users *services.Users, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := users.Delete(id); err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
	}
}
