// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/TidelineMutual/TidelineCore/pkg/logging"
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
)

// Payments manages premium payments.
//
// The premium-match rule lives here regardless of what callers check:
// handlers that pre-validate the amount for a friendlier form error get the
// same rule enforced again inside MakePayment. The check and the insert run
// in one transaction; SQLite serializes writers, so two concurrent payments
// with the correct amount both succeed; there is deliberately no once-only
// rule on paying a premium.
type Payments struct {
	db  *gorm.DB
	log *logging.Logger
	now func() time.Time
}

// NewPayments builds a Payments service over the given store. The clock
// stamps payment dates and is injectable for tests.
func NewPayments(db *gorm.DB, log *logging.Logger, now func() time.Time) *Payments {
	if now == nil {
		now = time.Now
	}
	return &Payments{db: db, log: log, now: now}
}

// MakePayment records a premium payment. It fails without persisting
// anything when the referenced policy does not exist (ErrNotFound) or when
// the amount differs from the policy premium by even one cent (validation
// error). A payment submitted without a status is recorded as SUCCESS.
func (s *Payments) MakePayment(payment *domain.Payment) error {
	payment.ID = 0
	if payment.Status == "" {
		payment.Status = domain.PaymentSuccess
	}
	if payment.PaymentDate.IsZero() {
		payment.PaymentDate = s.now()
	}
	if err := domain.CheckFields(payment); err != nil {
		return err
	}
	if !payment.Status.Valid() {
		return domain.Invalid("status", "unknown payment status %q", payment.Status)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var policy domain.Policy
		err := tx.First(&policy, payment.PolicyID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return domain.Storage("load policy for payment", err)
		}

		if payment.PaymentAmount != policy.PremiumAmount {
			return domain.Invalid("paymentAmount",
				"amount %s must equal the policy premium %s",
				payment.PaymentAmount, policy.PremiumAmount)
		}

		if err := tx.Create(payment).Error; err != nil {
			return domain.Storage("create payment", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("payment recorded",
		"payment_id", payment.ID,
		"policy_id", payment.PolicyID,
		"amount", payment.PaymentAmount.String())
	return nil
}

// GetByID fetches a single payment.
func (s *Payments) GetByID(id uint) (*domain.Payment, error) {
	var payment domain.Payment
	err := s.db.First(&payment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storage("get payment", err)
	}
	return &payment, nil
}

// ListByPolicy returns the payments for one policy, oldest first.
func (s *Payments) ListByPolicy(policyID uint) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := s.db.Where("policy_id = ?", policyID).Order("payment_date").Find(&payments).Error
	if err != nil {
		return nil, domain.Storage("list payments by policy", err)
	}
	return payments, nil
}

// ListAll returns every payment, oldest first.
func (s *Payments) ListAll() ([]domain.Payment, error) {
	var payments []domain.Payment
	if err := s.db.Order("payment_date").Find(&payments).Error; err != nil {
		return nil, domain.Storage("list payments", err)
	}
	return payments, nil
}

// UpdateStatus changes the settlement state of an existing payment.
func (s *Payments) UpdateStatus(id uint, status domain.PaymentStatus) error {
	if !status.Valid() {
		return domain.Invalid("status", "unknown payment status %q", status)
	}
	payment, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.db.Model(payment).Update("status", status).Error; err != nil {
		return domain.Storage("update payment status", err)
	}
	s.log.Info("payment status updated", "payment_id", id, "status", status)
	return nil
}
