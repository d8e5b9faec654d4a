// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package domain defines the five persistent entities of the insurance
// system and the error taxonomy shared by every service that touches them.
//
// Entities carry three tag sets: gorm for persistence, json for the HTTP
// surface, and validate for go-playground/validator field rules. Surrogate
// keys are server-assigned; clients never pick IDs.
package domain

import (
	"strings"
	"time"

	"github.com/TidelineMutual/TidelineCore/pkg/money"
)

// Role is the principal role stored on a User and in the session.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleAgent    Role = "AGENT"
	RoleCustomer Role = "CUSTOMER"
)

// ParseRole normalizes a role token (any case) to a canonical Role.
// The bool is false for tokens outside the three known roles.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleAdmin, RoleAgent, RoleCustomer:
		return r, true
	}
	return "", false
}

// PolicyStatus is the lifecycle state of a Policy.
type PolicyStatus string

const (
	PolicyActive   PolicyStatus = "ACTIVE"
	PolicyInactive PolicyStatus = "INACTIVE"
	PolicyRenewed  PolicyStatus = "RENEWED"
)

// Valid reports whether s is one of the three policy states.
func (s PolicyStatus) Valid() bool {
	switch s {
	case PolicyActive, PolicyInactive, PolicyRenewed:
		return true
	}
	return false
}

// ClaimStatus is the lifecycle state of a Claim.
type ClaimStatus string

const (
	ClaimOpen     ClaimStatus = "OPEN"
	ClaimApproved ClaimStatus = "APPROVED"
	ClaimRejected ClaimStatus = "REJECTED"
)

// Valid reports whether s is one of the three claim states.
func (s ClaimStatus) Valid() bool {
	switch s {
	case ClaimOpen, ClaimApproved, ClaimRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition s -> next is legal.
// Claims move only OPEN -> APPROVED or OPEN -> REJECTED; decisions are
// final and cannot be reversed or re-decided.
func (s ClaimStatus) CanTransitionTo(next ClaimStatus) bool {
	return s == ClaimOpen && (next == ClaimApproved || next == ClaimRejected)
}

// PaymentStatus is the settlement state of a Payment.
type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
	PaymentPending PaymentStatus = "PENDING"
)

// Valid reports whether s is one of the three payment states.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentSuccess, PaymentFailed, PaymentPending:
		return true
	}
	return false
}

// TicketStatus is the lifecycle state of a SupportTicket.
type TicketStatus string

const (
	TicketOpen     TicketStatus = "OPEN"
	TicketResolved TicketStatus = "RESOLVED"
)

// User is an account that can act as admin, agent or customer.
// The password is stored only as a bcrypt hash and never serialized.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"userId"`
	Username     string `gorm:"size:50;uniqueIndex;not null" json:"username" validate:"required,max=50"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Email        string `gorm:"size:100;not null" json:"email" validate:"required,email,max=100"`
	Role         Role   `gorm:"size:20;not null" json:"role" validate:"required,oneof=ADMIN AGENT CUSTOMER"`
}

// TableName fixes the table name regardless of GORM's pluralization rules.
func (User) TableName() string { return "users" }

// Policy is an insurance contract: coverage, premium, validity window
// and lifecycle status.
type Policy struct {
	ID             uint         `gorm:"primaryKey" json:"policyId"`
	PolicyNumber   string       `gorm:"size:50;not null" json:"policyNumber" validate:"required,max=50"`
	VehicleDetails string       `gorm:"size:200;not null" json:"vehicleDetails" validate:"required,max=200"`
	CoverageAmount money.Amount `gorm:"not null" json:"coverageAmount"`
	CoverageType   string       `gorm:"size:50;not null" json:"coverageType" validate:"required,max=50"`
	PremiumAmount  money.Amount `gorm:"not null" json:"premiumAmount"`
	StartDate      time.Time    `json:"startDate"`
	EndDate        time.Time    `json:"endDate"`
	Status         PolicyStatus `gorm:"size:20;not null" json:"status"`
}

func (Policy) TableName() string { return "policies" }

// Claim is a compensation request against a Policy, assigned to an
// adjuster (a User) and tracked through open/approved/rejected.
type Claim struct {
	ID          uint         `gorm:"primaryKey" json:"claimId"`
	PolicyID    uint         `gorm:"not null;index" json:"policyId" validate:"required"`
	ClaimAmount money.Amount `gorm:"not null" json:"claimAmount"`
	ClaimDate   time.Time    `json:"claimDate"`
	Status      ClaimStatus  `gorm:"size:20;not null" json:"status"`
	AdjusterID  uint         `gorm:"not null;index" json:"adjusterId" validate:"required"`
}

func (Claim) TableName() string { return "claims" }

// Payment is a premium payment against exactly one Policy. Its amount
// must equal that policy's premium at creation time.
type Payment struct {
	ID            uint          `gorm:"primaryKey" json:"paymentId"`
	PolicyID      uint          `gorm:"not null;index" json:"policyId" validate:"required"`
	PaymentAmount money.Amount  `gorm:"not null" json:"paymentAmount"`
	PaymentDate   time.Time     `json:"paymentDate"`
	Status        PaymentStatus `gorm:"size:20;not null" json:"status"`
}

func (Payment) TableName() string { return "payments" }

// SupportTicket is a customer-service request owned by a User and
// optionally assigned to an agent. Resolution is final: resolvedDate is
// set exactly when status becomes RESOLVED.
type SupportTicket struct {
	ID               uint         `gorm:"primaryKey" json:"ticketId"`
	UserID           uint         `gorm:"not null;index" json:"userId" validate:"required"`
	AssignedAgentID  *uint        `gorm:"index" json:"assignedAgentId,omitempty"`
	IssueDescription string       `gorm:"size:500;not null" json:"issueDescription" validate:"required,max=500"`
	Status           TicketStatus `gorm:"size:20;not null" json:"status"`
	CreatedDate      time.Time    `json:"createdDate"`
	ResolvedDate     *time.Time   `json:"resolvedDate,omitempty"`

	// Owner is populated on list/detail reads so callers see who filed
	// the ticket without a second query.
	Owner *User `gorm:"foreignKey:UserID" json:"owner,omitempty"`
}

func (SupportTicket) TableName() string { return "support_tickets" }
