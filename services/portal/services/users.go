// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package services implements the domain services: entity-specific
// invariants and mutation rules layered over the relational store.
//
// Every mutating operation reports failures through the domain error
// taxonomy (ErrNotFound, *ValidationError, ErrUnauthorized, *StorageError)
// so callers can distinguish a missing key from a rule violation.
package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/TidelineMutual/TidelineCore/pkg/logging"
	"github.com/TidelineMutual/TidelineCore/services/portal/auth"
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
)

// Users manages accounts: registration, credential verification and the
// admin-side account CRUD.
type Users struct {
	db  *gorm.DB
	log *logging.Logger
}

// NewUsers builds a Users service over the given store.
func NewUsers(db *gorm.DB, log *logging.Logger) *Users {
	return &Users{db: db, log: log}
}

// RegisterInput carries the fields needed to create an account. The
// plaintext password is hashed here and never stored.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Role     domain.Role
}

// Register creates a new account with a server-assigned key.
// Duplicate usernames surface as a validation error rather than a bare
// storage failure.
func (s *Users) Register(input RegisterInput) (*domain.User, error) {
	role, ok := domain.ParseRole(string(input.Role))
	if !ok {
		return nil, domain.Invalid("role", "unknown role %q", input.Role)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, domain.Invalid("password", "%v", err)
	}

	user := domain.User{
		Username:     input.Username,
		PasswordHash: hash,
		Email:        input.Email,
		Role:         role,
	}
	if err := domain.CheckFields(&user); err != nil {
		return nil, err
	}

	if err := s.db.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Invalid("username", "username %q is already taken", input.Username)
		}
		return nil, domain.Storage("register user", err)
	}

	s.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return &user, nil
}

// VerifyLogin checks username, password and role together. Any mismatch
// returns ErrUnauthorized without revealing which part failed.
func (s *Users) VerifyLogin(username, password string, role domain.Role) (*domain.User, error) {
	wantRole, ok := domain.ParseRole(string(role))
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	var user domain.User
	err := s.db.Where("username = ? AND role = ?", username, wantRole).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, domain.Storage("verify login", err)
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, domain.ErrUnauthorized
	}
	return &user, nil
}

// GetByID fetches a single account.
func (s *Users) GetByID(id uint) (*domain.User, error) {
	var user domain.User
	err := s.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storage("get user", err)
	}
	return &user, nil
}

// ListAll returns every account, ordered by key.
func (s *Users) ListAll() ([]domain.User, error) {
	var users []domain.User
	if err := s.db.Order("id").Find(&users).Error; err != nil {
		return nil, domain.Storage("list users", err)
	}
	return users, nil
}

// UpdateInput is the full-record replacement for an account. Password is
// applied only when non-empty; the key is never overwritten.
type UpdateInput struct {
	Username string
	Email    string
	Role     domain.Role
	Password string
}

// Update overwrites username, email and role of an existing account.
func (s *Users) Update(id uint, input UpdateInput) error {
	user, err := s.GetByID(id)
	if err != nil {
		return err
	}

	role, ok := domain.ParseRole(string(input.Role))
	if !ok {
		return domain.Invalid("role", "unknown role %q", input.Role)
	}

	user.Username = input.Username
	user.Email = input.Email
	user.Role = role
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return domain.Invalid("password", "%v", err)
		}
		user.PasswordHash = hash
	}
	if err := domain.CheckFields(user); err != nil {
		return err
	}

	if err := s.db.Save(user).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Invalid("username", "username %q is already taken", input.Username)
		}
		return domain.Storage("update user", err)
	}
	return nil
}

// ChangePassword replaces the stored hash for an existing account.
func (s *Users) ChangePassword(id uint, newPassword string) error {
	user, err := s.GetByID(id)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return domain.Invalid("password", "%v", err)
	}
	if err := s.db.Model(user).Update("password_hash", hash).Error; err != nil {
		return domain.Storage("change password", err)
	}
	s.log.Info("password changed", "user_id", id)
	return nil
}

// Delete removes an account unconditionally. Claims, payments and tickets
// that reference the account keep their historical user id; new references
// to missing users are rejected at creation instead.
func (s *Users) Delete(id uint) error {
	result := s.db.Delete(&domain.User{}, id)
	if result.Error != nil {
		return domain.Storage("delete user", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	s.log.Info("user deleted", "user_id", id)
	return nil
}

// isUniqueViolation detects a unique-index conflict across the GORM
// translation and the raw SQLite error text.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
