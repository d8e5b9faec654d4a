// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/TidelineMutual/TidelineCore/pkg/logging"
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
)

// Claims manages compensation requests against policies.
type Claims struct {
	db  *gorm.DB
	log *logging.Logger
}

// NewClaims builds a Claims service over the given store.
func NewClaims(db *gorm.DB, log *logging.Logger) *Claims {
	return &Claims{db: db, log: log}
}

// Submit persists a new claim with a server-assigned key. Both foreign
// keys are verified here, not left to the caller: the policy and the
// adjuster must exist. A claim submitted without a status opens as OPEN.
func (s *Claims) Submit(claim *domain.Claim) error {
	claim.ID = 0
	if claim.Status == "" {
		claim.Status = domain.ClaimOpen
	}
	if err := domain.CheckFields(claim); err != nil {
		return err
	}
	if !claim.Status.Valid() {
		return domain.Invalid("status", "unknown claim status %q", claim.Status)
	}

	if err := s.requirePolicy(claim.PolicyID); err != nil {
		return err
	}
	if err := s.requireUser(claim.AdjusterID, "adjusterId"); err != nil {
		return err
	}

	if err := s.db.Create(claim).Error; err != nil {
		return domain.Storage("submit claim", err)
	}
	s.log.Info("claim submitted", "claim_id", claim.ID, "policy_id", claim.PolicyID)
	return nil
}

// GetByID fetches a single claim.
func (s *Claims) GetByID(id uint) (*domain.Claim, error) {
	var claim domain.Claim
	err := s.db.First(&claim, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storage("get claim", err)
	}
	return &claim, nil
}

// ListAll returns every claim, ordered by claim date.
func (s *Claims) ListAll() ([]domain.Claim, error) {
	var claims []domain.Claim
	if err := s.db.Order("claim_date").Find(&claims).Error; err != nil {
		return nil, domain.Storage("list claims", err)
	}
	return claims, nil
}

// UpdateStatus moves a claim to a new status and optionally reassigns the
// adjuster. Only OPEN -> APPROVED and OPEN -> REJECTED are legal; a decided
// claim cannot be re-decided or reopened.
func (s *Claims) UpdateStatus(id uint, status domain.ClaimStatus, adjusterID *uint) error {
	claim, err := s.GetByID(id)
	if err != nil {
		return err
	}

	if !status.Valid() {
		return domain.Invalid("status", "unknown claim status %q", status)
	}
	if !claim.Status.CanTransitionTo(status) {
		return domain.Invalid("status", "claim %d is %s and cannot move to %s", id, claim.Status, status)
	}
	if adjusterID != nil {
		if err := s.requireUser(*adjusterID, "adjusterId"); err != nil {
			return err
		}
		claim.AdjusterID = *adjusterID
	}
	claim.Status = status

	if err := s.db.Save(claim).Error; err != nil {
		return domain.Storage("update claim status", err)
	}
	s.log.Info("claim status updated", "claim_id", id, "status", status)
	return nil
}

func (s *Claims) requirePolicy(policyID uint) error {
	var count int64
	if err := s.db.Model(&domain.Policy{}).Where("id = ?", policyID).Count(&count).Error; err != nil {
		return domain.Storage("check policy reference", err)
	}
	if count == 0 {
		return domain.Invalid("policyId", "policy %d does not exist", policyID)
	}
	return nil
}

func (s *Claims) requireUser(userID uint, field string) error {
	var count int64
	if err := s.db.Model(&domain.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return domain.Storage("check user reference", err)
	}
	if count == 0 {
		return domain.Invalid(field, "user %d does not exist", userID)
	}
	return nil
}
