// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TidelineMutual/TidelineCore/pkg/money"
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
)

func TestMakePayment(t *testing.T) {
	f := newFixture(t)
	policy := f.seedPolicy(t, "POL-3001", 50000) // premium 500.00

	t.Run("exact premium succeeds with SUCCESS status", func(t *testing.T) {
		payment := domain.Payment{PolicyID: policy.ID, PaymentAmount: money.FromCents(50000)}
		require.NoError(t, f.payments.MakePayment(&payment))
		assert.NotZero(t, payment.ID)
		assert.Equal(t, domain.PaymentSuccess, payment.Status)
		assert.True(t, payment.PaymentDate.Equal(frozenNow))
	})

	t.Run("one cent off fails and persists nothing", func(t *testing.T) {
		before, err := f.payments.ListByPolicy(policy.ID)
		require.NoError(t, err)

		payment := domain.Payment{PolicyID: policy.ID, PaymentAmount: money.FromCents(49999)} // 499.99
		err = f.payments.MakePayment(&payment)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))

		after, err := f.payments.ListByPolicy(policy.ID)
		require.NoError(t, err)
		assert.Equal(t, len(before), len(after))
	})

	t.Run("missing policy fails and persists nothing", func(t *testing.T) {
		payment := domain.Payment{PolicyID: 9999, PaymentAmount: money.FromCents(50000)}
		err := f.payments.MakePayment(&payment)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		got, err := f.payments.ListByPolicy(9999)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		payment := domain.Payment{
			PolicyID:      policy.ID,
			PaymentAmount: money.FromCents(50000),
			Status:        domain.PaymentStatus("REFUNDED"),
		}
		assert.True(t, domain.IsValidation(f.payments.MakePayment(&payment)))
	})
}

// Two concurrent payments with the correct amount both succeed: each is
// individually valid and nothing limits a policy to a single premium
// payment. The store serializes the two transactions.
func TestConcurrentEqualPayments(t *testing.T) {
	f := newFixture(t)
	policy := f.seedPolicy(t, "POL-3002", 50000)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			payment := domain.Payment{PolicyID: policy.ID, PaymentAmount: money.FromCents(50000)}
			errs[slot] = f.payments.MakePayment(&payment)
		}(i)
	}
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])

	payments, err := f.payments.ListByPolicy(policy.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestListByPolicyOrdering(t *testing.T) {
	f := newFixture(t)
	policy := f.seedPolicy(t, "POL-3003", 50000)
	other := f.seedPolicy(t, "POL-3004", 60000)

	dates := []time.Time{
		frozenNow.AddDate(0, 0, 5),
		frozenNow.AddDate(0, 0, 1),
		frozenNow.AddDate(0, 0, 3),
	}
	for _, d := range dates {
		payment := domain.Payment{
			PolicyID:      policy.ID,
			PaymentAmount: money.FromCents(50000),
			PaymentDate:   d,
		}
		require.NoError(t, f.payments.MakePayment(&payment))
	}
	require.NoError(t, f.payments.MakePayment(&domain.Payment{
		PolicyID: other.ID, PaymentAmount: money.FromCents(60000),
	}))

	payments, err := f.payments.ListByPolicy(policy.ID)
	require.NoError(t, err)
	require.Len(t, payments, 3)
	assert.True(t, payments[0].PaymentDate.Before(payments[1].PaymentDate))
	assert.True(t, payments[1].PaymentDate.Before(payments[2].PaymentDate))
}

func TestPaymentUpdateStatus(t *testing.T) {
	f := newFixture(t)
	policy := f.seedPolicy(t, "POL-3005", 50000)
	payment := domain.Payment{PolicyID: policy.ID, PaymentAmount: money.FromCents(50000)}
	require.NoError(t, f.payments.MakePayment(&payment))

	require.NoError(t, f.payments.UpdateStatus(payment.ID, domain.PaymentFailed))
	got, err := f.payments.GetByID(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, got.Status)

	assert.ErrorIs(t, f.payments.UpdateStatus(9999, domain.PaymentFailed), domain.ErrNotFound)
	assert.True(t, domain.IsValidation(f.payments.UpdateStatus(payment.ID, "REFUNDED")))
}
