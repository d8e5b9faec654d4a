// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package auth holds the access-control gate, password hashing and the
// session store for the portal.
//
// The gate is a pure function over an explicit Principal: handlers resolve
// the principal once (from the session cookie, via middleware) and every
// authorization decision is Authorize(principal, requiredRole). There is no
// ambient session lookup inside domain code.
package auth

import (
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
)

// Principal is the acting identity for a request, resolved from session
// state. The zero value is anonymous and passes no role check.
type Principal struct {
	UserID   uint
	Username string
	Role     domain.Role
}

// IsAnonymous reports whether no authenticated user backs this principal.
func (p Principal) IsAnonymous() bool {
	return p.UserID == 0
}

// Authorize reports whether the principal holds the required role.
//
// Role tokens are normalized through domain.ParseRole, so the comparison is
// case-insensitive: a session carrying "admin" authorizes an ADMIN-gated
// operation. A token outside the known roles authorizes nothing.
func Authorize(p Principal, required domain.Role) bool {
	if p.IsAnonymous() {
		return false
	}
	have, ok := domain.ParseRole(string(p.Role))
	if !ok {
		return false
	}
	want, ok := domain.ParseRole(string(required))
	if !ok {
		return false
	}
	return have == want
}
