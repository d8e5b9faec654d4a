// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/TidelineMutual/TidelineCore/pkg/logging"
	"github.com/TidelineMutual/TidelineCore/pkg/money"
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
	"github.com/TidelineMutual/TidelineCore/services/portal/store"
)

// frozenNow is the deterministic clock used by time-sensitive tests.
var frozenNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return frozenNow }

type fixture struct {
	db        *gorm.DB
	users     *Users
	policies  *Policies
	claims    *Claims
	payments  *Payments
	tickets   *Tickets
	dashboard *Dashboard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := store.OpenForTest()
	require.NoError(t, err)

	log := logging.New(logging.Config{Service: "test", Quiet: true})
	return &fixture{
		db:        db,
		users:     NewUsers(db, log),
		policies:  NewPolicies(db, log),
		claims:    NewClaims(db, log),
		payments:  NewPayments(db, log, fixedClock),
		tickets:   NewTickets(db, log, fixedClock),
		dashboard: NewDashboard(db, fixedClock),
	}
}

func (f *fixture) seedUser(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()
	user, err := f.users.Register(RegisterInput{
		Username: username,
		Password: "correct-horse",
		Email:    username + "@example.com",
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) seedPolicy(t *testing.T, number string, premiumCents int64) *domain.Policy {
	t.Helper()
	policy := domain.Policy{
		PolicyNumber:   number,
		VehicleDetails: "2021 Honda Civic",
		CoverageAmount: money.FromCents(1500000),
		CoverageType:   "COLLISION",
		PremiumAmount:  money.FromCents(premiumCents),
		StartDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.policies.Create(&policy))
	return &policy
}

func (f *fixture) seedClaim(t *testing.T, policyID, adjusterID uint) *domain.Claim {
	t.Helper()
	claim := domain.Claim{
		PolicyID:    policyID,
		ClaimAmount: money.FromCents(120000),
		ClaimDate:   frozenNow,
		AdjusterID:  adjusterID,
	}
	require.NoError(t, f.claims.Submit(&claim))
	return &claim
}
