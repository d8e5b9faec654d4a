// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/TidelineMutual/TidelineCore/pkg/money"
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
)

// Dashboard computes cross-entity summary statistics. Pure read, no
// mutation; every call re-reads the store.
type Dashboard struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDashboard builds a Dashboard over the given store. The clock decides
// which calendar month "revenue this month" covers and is injectable so
// tests are not tied to the wall clock.
func NewDashboard(db *gorm.DB, now func() time.Time) *Dashboard {
	if now == nil {
		now = time.Now
	}
	return &Dashboard{db: db, now: now}
}

// Stats is the dashboard summary.
type Stats struct {
	TotalPolicies    int64        `json:"totalPolicies"`
	ActivePolicies   int64        `json:"activePolicies"`
	PendingClaims    int64        `json:"pendingClaims"`
	ApprovedClaims   int64        `json:"approvedClaims"`
	OpenTickets      int64        `json:"openTickets"`
	TotalUsers       int64        `json:"totalUsers"`
	RevenueThisMonth money.Amount `json:"revenueThisMonth"`
}

// Collect gathers the current stats. Revenue this month sums SUCCESS
// payments whose payment date falls inside the current calendar month of
// the dashboard clock.
func (s *Dashboard) Collect() (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		dest  *int64
		model any
		query *gorm.DB
	}{
		{&stats.TotalPolicies, &domain.Policy{}, s.db.Model(&domain.Policy{})},
		{&stats.ActivePolicies, &domain.Policy{}, s.db.Model(&domain.Policy{}).Where("status = ?", domain.PolicyActive)},
		{&stats.PendingClaims, &domain.Claim{}, s.db.Model(&domain.Claim{}).Where("status = ?", domain.ClaimOpen)},
		{&stats.ApprovedClaims, &domain.Claim{}, s.db.Model(&domain.Claim{}).Where("status = ?", domain.ClaimApproved)},
		{&stats.OpenTickets, &domain.SupportTicket{}, s.db.Model(&domain.SupportTicket{}).Where("status = ?", domain.TicketOpen)},
		{&stats.TotalUsers, &domain.User{}, s.db.Model(&domain.User{})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, domain.Storage("dashboard count", err)
		}
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	nextMonth := monthStart.AddDate(0, 1, 0)

	var payments []domain.Payment
	err := s.db.
		Where("status = ? AND payment_date >= ? AND payment_date < ?",
			domain.PaymentSuccess, monthStart, nextMonth).
		Find(&payments).Error
	if err != nil {
		return nil, domain.Storage("dashboard revenue", err)
	}
	for _, p := range payments {
		stats.RevenueThisMonth = stats.RevenueThisMonth.Add(p.PaymentAmount)
	}

	return stats, nil
}
