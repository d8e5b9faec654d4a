// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)

	t.Run("assigns key and hashes password", func(t *testing.T) {
		user, err := f.users.Register(RegisterInput{
			Username: "jortega",
			Password: "hunter2!",
			Email:    "j.ortega@example.com",
			Role:     domain.RoleCustomer,
		})
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.NotEqual(t, "hunter2!", user.PasswordHash)
		assert.NotEmpty(t, user.PasswordHash)
	})

	t.Run("duplicate username is a validation error", func(t *testing.T) {
		_, err := f.users.Register(RegisterInput{
			Username: "jortega",
			Password: "other",
			Email:    "other@example.com",
			Role:     domain.RoleCustomer,
		})
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("role normalizes case", func(t *testing.T) {
		user, err := f.users.Register(RegisterInput{
			Username: "msalter",
			Password: "pw123456",
			Email:    "m@example.com",
			Role:     domain.Role("agent"),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAgent, user.Role)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		_, err := f.users.Register(RegisterInput{
			Username: "eve", Password: "pw123456", Email: "e@example.com", Role: "ROOT",
		})
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("malformed email rejected", func(t *testing.T) {
		_, err := f.users.Register(RegisterInput{
			Username: "bob", Password: "pw123456", Email: "nope", Role: domain.RoleCustomer,
		})
		assert.True(t, domain.IsValidation(err))
	})
}

func TestVerifyLogin(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "jortega", domain.RoleCustomer)

	t.Run("matching credentials and role", func(t *testing.T) {
		user, err := f.users.VerifyLogin("jortega", "correct-horse", domain.RoleCustomer)
		require.NoError(t, err)
		assert.Equal(t, "jortega", user.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.users.VerifyLogin("jortega", "wrong", domain.RoleCustomer)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("right password wrong role", func(t *testing.T) {
		_, err := f.users.VerifyLogin("jortega", "correct-horse", domain.RoleAdmin)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := f.users.VerifyLogin("ghost", "correct-horse", domain.RoleCustomer)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "jortega", domain.RoleCustomer)

	require.NoError(t, f.users.ChangePassword(user.ID, "new-secret-9"))

	_, err := f.users.VerifyLogin("jortega", "correct-horse", domain.RoleCustomer)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.users.VerifyLogin("jortega", "new-secret-9", domain.RoleCustomer)
	assert.NoError(t, err)

	t.Run("missing user", func(t *testing.T) {
		err := f.users.ChangePassword(9999, "whatever1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUserUpdate(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "jortega", domain.RoleCustomer)

	t.Run("overwrites fields, keeps password when blank", func(t *testing.T) {
		err := f.users.Update(user.ID, UpdateInput{
			Username: "jortega",
			Email:    "new@example.com",
			Role:     domain.RoleAgent,
		})
		require.NoError(t, err)

		got, err := f.users.GetByID(user.ID)
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", got.Email)
		assert.Equal(t, domain.RoleAgent, got.Role)

		_, err = f.users.VerifyLogin("jortega", "correct-horse", domain.RoleAgent)
		assert.NoError(t, err)
	})

	t.Run("missing user", func(t *testing.T) {
		err := f.users.Update(9999, UpdateInput{Username: "x", Email: "x@example.com", Role: domain.RoleAgent})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUserDelete(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "jortega", domain.RoleCustomer)

	t.Run("deletes existing", func(t *testing.T) {
		require.NoError(t, f.users.Delete(user.ID))
		_, err := f.users.GetByID(user.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing id fails with no row affected", func(t *testing.T) {
		before, err := f.users.ListAll()
		require.NoError(t, err)

		err = f.users.Delete(9999)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		after, err := f.users.ListAll()
		require.NoError(t, err)
		assert.Equal(t, len(before), len(after))
	})
}

func TestListAllUsers(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "alpha", domain.RoleAdmin)
	f.seedUser(t, "bravo", domain.RoleAgent)
	f.seedUser(t, "charlie", domain.RoleCustomer)

	users, err := f.users.ListAll()
	require.NoError(t, err)
	assert.Len(t, users, 3)
	assert.Equal(t, "alpha", users[0].Username)
}
