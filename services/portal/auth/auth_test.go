// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
)

func TestAuthorize(t *testing.T) {
	admin := Principal{UserID: 1, Username: "root", Role: domain.RoleAdmin}
	agent := Principal{UserID: 2, Username: "msalter", Role: domain.RoleAgent}

	t.Run("exact role match", func(t *testing.T) {
		assert.True(t, Authorize(admin, domain.RoleAdmin))
		assert.True(t, Authorize(agent, domain.RoleAgent))
	})

	t.Run("role mismatch denied", func(t *testing.T) {
		assert.False(t, Authorize(agent, domain.RoleAdmin))
		assert.False(t, Authorize(admin, domain.RoleCustomer))
	})

	t.Run("case insensitive", func(t *testing.T) {
		p := Principal{UserID: 3, Username: "x", Role: domain.Role("admin")}
		assert.True(t, Authorize(p, domain.RoleAdmin))
		assert.True(t, Authorize(admin, domain.Role("Admin")))
	})

	t.Run("anonymous denied", func(t *testing.T) {
		assert.False(t, Authorize(Principal{}, domain.RoleAdmin))
	})

	t.Run("unknown role token denied", func(t *testing.T) {
		p := Principal{UserID: 4, Username: "x", Role: domain.Role("ROOT")}
		assert.False(t, Authorize(p, domain.RoleAdmin))
	})
}

func TestPasswordHashing(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		hash, err := HashPassword("hunter2!")
		require.NoError(t, err)
		assert.NotEqual(t, "hunter2!", hash)
		assert.True(t, VerifyPassword(hash, "hunter2!"))
		assert.False(t, VerifyPassword(hash, "hunter3!"))
	})

	t.Run("empty password rejected", func(t *testing.T) {
		_, err := HashPassword("")
		assert.Error(t, err)
	})

	t.Run("overlong password rejected", func(t *testing.T) {
		_, err := HashPassword(strings.Repeat("a", MaxPasswordLength+1))
		assert.Error(t, err)
	})

	t.Run("distinct salts per hash", func(t *testing.T) {
		h1, err := HashPassword("same-password")
		require.NoError(t, err)
		h2, err := HashPassword("same-password")
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})
}

func newTestSessions(t *testing.T, ttl time.Duration) *SessionStore {
	t.Helper()
	store, err := OpenSessionStore(SessionConfig{InMemory: true, TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSessionLifecycle(t *testing.T) {
	store := newTestSessions(t, time.Hour)

	token, err := store.Create(7, "jortega", domain.RoleCustomer)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	session, err := store.Get(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), session.UserID)
	assert.Equal(t, "jortega", session.Username)
	assert.Equal(t, domain.RoleCustomer, session.Role)

	require.NoError(t, store.Delete(token))
	_, err = store.Get(token)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionUnknownToken(t *testing.T) {
	store := newTestSessions(t, time.Hour)
	_, err := store.Get("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionExpiry(t *testing.T) {
	store := newTestSessions(t, time.Second)

	token, err := store.Create(7, "jortega", domain.RoleCustomer)
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	_, err = store.Get(token)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionTokensAreUnique(t *testing.T) {
	store := newTestSessions(t, time.Hour)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		token, err := store.Create(1, "x", domain.RoleAgent)
		require.NoError(t, err)
		assert.False(t, seen[token])
		seen[token] = true
	}
}
