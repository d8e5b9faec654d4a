// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for the portal service.
//
// SessionAuth resolves the session cookie into an auth.Principal stored in
// the Gin context; RequireRole gates a route group on that principal. The
// principal is resolved once per request. Handlers and services receive it
// explicitly and never look at the session themselves.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TidelineMutual/TidelineCore/services/portal/auth"
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
)

// SessionCookie is the name of the session token cookie.
const SessionCookie = "tideline_session"

// principalKey is the context key for the resolved principal.
const principalKey = "tideline_principal"

// SetPrincipal stores the acting principal in the Gin context.
func SetPrincipal(c *gin.Context, p auth.Principal) {
	c.Set(principalKey, p)
}

// GetPrincipal returns the acting principal, or the anonymous zero value
// when the request carried no valid session.
func GetPrincipal(c *gin.Context) auth.Principal {
	if v, exists := c.Get(principalKey); exists {
		if p, ok := v.(auth.Principal); ok {
			return p
		}
	}
	return auth.Principal{}
}

// SessionAuth resolves the session cookie, if any, into a principal.
//
// Requests without a cookie, or with an expired or revoked token, continue
// as anonymous; the decision to deny belongs to RequireRole so that public
// routes can share the middleware chain.
func SessionAuth(sessions *auth.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err == nil && token != "" {
			if session, err := sessions.Get(token); err == nil {
				SetPrincipal(c, auth.Principal{
					UserID:   session.UserID,
					Username: session.Username,
					Role:     session.Role,
				})
			}
		}
		c.Next()
	}
}

// RequireRole denies the request unless the resolved principal holds the
// given role: 401 for anonymous requests, 403 for a role mismatch.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if p.IsAnonymous() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		if !auth.Authorize(p, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
