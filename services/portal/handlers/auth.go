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
	"github.com/TidelineMutual/TidelineCore/services/portal/auth"
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
	"github.com/TidelineMutual/TidelineCore/services/portal/middleware"
	"github.com/TidelineMutual/TidelineCore/services/portal/services"
)

// sessionCookieMaxAge matches the server-side session TTL.
const sessionCookieMaxAge = 12 * 60 * 60

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Register creates a new account. Open to anonymous callers; the role is
// whatever the caller picks, matching a walk-up registration desk.
func Register(users *services.Users, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if !bindJSON(c, &req) {
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

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Login verifies credentials plus the requested role, then issues a session
// cookie. A credential or role mismatch is always a flat 401.
func Login(users *services.Users, sessions *auth.SessionStore, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if !bindJSON(c, &req) {
			return
		}

		user, err := users.VerifyLogin(req.Username, req.Password, domain.Role(req.Role))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := sessions.Create(user.ID, user.Username, user.Role)
		if err != nil {
			writeError(c, log, err)
			return
		}

		c.SetCookie(middleware.SessionCookie, token, sessionCookieMaxAge, "/", "", false, true)
		log.Info("login", "user_id", user.ID, "role", user.Role)
		c.JSON(http.StatusOK, gin.H{"username": user.Username, "role": user.Role})
	}
}

// Logout revokes the session behind the cookie and clears it. Calling
// logout without a session still succeeds.
func Logout(sessions *auth.SessionStore, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(middleware.SessionCookie); err == nil && token != "" {
			if err := sessions.Delete(token); err != nil {
				writeError(c, log, err)
				return
			}
		}
		c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}
