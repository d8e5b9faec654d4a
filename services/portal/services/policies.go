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

// Policies manages insurance contracts.
type Policies struct {
	db  *gorm.DB
	log *logging.Logger
}

// NewPolicies builds a Policies service over the given store.
func NewPolicies(db *gorm.DB, log *logging.Logger) *Policies {
	return &Policies{db: db, log: log}
}

// Create persists a new policy with a server-assigned key. A client-supplied
// key is ignored. Status defaults to ACTIVE, and the validity window must
// not end before it starts.
func (s *Policies) Create(policy *domain.Policy) error {
	policy.ID = 0
	if policy.Status == "" {
		policy.Status = domain.PolicyActive
	}
	if err := s.check(policy); err != nil {
		return err
	}
	if err := s.db.Create(policy).Error; err != nil {
		return domain.Storage("create policy", err)
	}
	s.log.Info("policy created", "policy_id", policy.ID, "policy_number", policy.PolicyNumber)
	return nil
}

// GetByID fetches a single policy.
func (s *Policies) GetByID(id uint) (*domain.Policy, error) {
	var policy domain.Policy
	err := s.db.First(&policy, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storage("get policy", err)
	}
	return &policy, nil
}

// ListAll returns every policy, ordered by key.
func (s *Policies) ListAll() ([]domain.Policy, error) {
	var policies []domain.Policy
	if err := s.db.Order("id").Find(&policies).Error; err != nil {
		return nil, domain.Storage("list policies", err)
	}
	return policies, nil
}

// Update overwrites every mutable field of an existing policy with the
// values in updated. The key is untouched; updating a missing key fails
// with ErrNotFound and changes nothing.
func (s *Policies) Update(id uint, updated *domain.Policy) error {
	existing, err := s.GetByID(id)
	if err != nil {
		return err
	}

	existing.PolicyNumber = updated.PolicyNumber
	existing.VehicleDetails = updated.VehicleDetails
	existing.CoverageAmount = updated.CoverageAmount
	existing.CoverageType = updated.CoverageType
	existing.PremiumAmount = updated.PremiumAmount
	existing.StartDate = updated.StartDate
	existing.EndDate = updated.EndDate
	existing.Status = updated.Status

	if err := s.check(existing); err != nil {
		return err
	}
	if err := s.db.Save(existing).Error; err != nil {
		return domain.Storage("update policy", err)
	}
	return nil
}

// Delete removes a policy by key. Policies with recorded claims or
// payments cannot be deleted; cascade would destroy financial history.
func (s *Policies) Delete(id uint) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}

	var claims int64
	if err := s.db.Model(&domain.Claim{}).Where("policy_id = ?", id).Count(&claims).Error; err != nil {
		return domain.Storage("count claims for policy", err)
	}
	if claims > 0 {
		return domain.Invalid("policyId", "policy %d has %d claim(s) and cannot be deleted", id, claims)
	}

	var payments int64
	if err := s.db.Model(&domain.Payment{}).Where("policy_id = ?", id).Count(&payments).Error; err != nil {
		return domain.Storage("count payments for policy", err)
	}
	if payments > 0 {
		return domain.Invalid("policyId", "policy %d has %d payment(s) and cannot be deleted", id, payments)
	}

	if err := s.db.Delete(&domain.Policy{}, id).Error; err != nil {
		return domain.Storage("delete policy", err)
	}
	s.log.Info("policy deleted", "policy_id", id)
	return nil
}

func (s *Policies) check(policy *domain.Policy) error {
	if err := domain.CheckFields(policy); err != nil {
		return err
	}
	if !policy.Status.Valid() {
		return domain.Invalid("status", "unknown policy status %q", policy.Status)
	}
	if policy.EndDate.Before(policy.StartDate) {
		return domain.Invalid("endDate", "policy cannot end before it starts")
	}
	return nil
}
