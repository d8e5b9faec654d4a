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
	"github.com/TidelineMutual/TidelineCore/services/portal/auth"
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
)

// Tickets manages support tickets. Resolution authorization lives in the
// service, not the caller: an admin resolves anything, an agent only what
// is assigned to them.
type Tickets struct {
	db  *gorm.DB
	log *logging.Logger
	now func() time.Time
}

// NewTickets builds a Tickets service over the given store. The clock
// stamps created/resolved dates and is injectable for tests.
func NewTickets(db *gorm.DB, log *logging.Logger, now func() time.Time) *Tickets {
	if now == nil {
		now = time.Now
	}
	return &Tickets{db: db, log: log, now: now}
}

// Create opens a new ticket owned by an existing user. The server forces
// status=OPEN and createdDate=now; client-supplied values for those fields
// and for the assignment are ignored.
func (s *Tickets) Create(ticket *domain.SupportTicket) error {
	ticket.ID = 0
	ticket.Status = domain.TicketOpen
	ticket.CreatedDate = s.now()
	ticket.ResolvedDate = nil
	ticket.AssignedAgentID = nil
	ticket.Owner = nil

	if err := domain.CheckFields(ticket); err != nil {
		return err
	}

	var owners int64
	if err := s.db.Model(&domain.User{}).Where("id = ?", ticket.UserID).Count(&owners).Error; err != nil {
		return domain.Storage("check ticket owner", err)
	}
	if owners == 0 {
		return domain.Invalid("userId", "user %d does not exist", ticket.UserID)
	}

	if err := s.db.Create(ticket).Error; err != nil {
		return domain.Storage("create ticket", err)
	}
	s.log.Info("ticket created", "ticket_id", ticket.ID, "user_id", ticket.UserID)
	return nil
}

// GetByID fetches a single ticket with its owner joined.
func (s *Tickets) GetByID(id uint) (*domain.SupportTicket, error) {
	var ticket domain.SupportTicket
	err := s.db.Preload("Owner").First(&ticket, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, domain.Storage("get ticket", err)
	}
	return &ticket, nil
}

// ListAll returns every ticket with its owner joined, ordered by creation.
func (s *Tickets) ListAll() ([]domain.SupportTicket, error) {
	var tickets []domain.SupportTicket
	if err := s.db.Preload("Owner").Order("created_date").Find(&tickets).Error; err != nil {
		return nil, domain.Storage("list tickets", err)
	}
	return tickets, nil
}

// ListByOwner returns only the tickets owned by one user, ordered by
// creation. Customers see their own tickets through this, never the full
// ticket table.
func (s *Tickets) ListByOwner(userID uint) ([]domain.SupportTicket, error) {
	var tickets []domain.SupportTicket
	err := s.db.Preload("Owner").Where("user_id = ?", userID).Order("created_date").Find(&tickets).Error
	if err != nil {
		return nil, domain.Storage("list tickets by owner", err)
	}
	return tickets, nil
}

// Assign routes a ticket to an agent. The ticket must exist and the
// assignee must be an existing user holding the AGENT role.
func (s *Tickets) Assign(ticketID, agentUserID uint) error {
	ticket, err := s.GetByID(ticketID)
	if err != nil {
		return err
	}

	var agent domain.User
	err = s.db.First(&agent, agentUserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Invalid("agentUserId", "user %d does not exist", agentUserID)
	}
	if err != nil {
		return domain.Storage("check assignee", err)
	}
	if role, ok := domain.ParseRole(string(agent.Role)); !ok || role != domain.RoleAgent {
		return domain.Invalid("agentUserId", "user %d is not an agent", agentUserID)
	}

	if err := s.db.Model(ticket).Update("assigned_agent_id", agentUserID).Error; err != nil {
		return domain.Storage("assign ticket", err)
	}
	s.log.Info("ticket assigned", "ticket_id", ticketID, "agent_id", agentUserID)
	return nil
}

// Resolve closes a ticket on behalf of the acting principal.
//
// Admins resolve unconditionally; agents only tickets assigned to them.
// Resolving a missing ticket is ErrNotFound; resolving an already-resolved
// ticket fails without side effects.
func (s *Tickets) Resolve(ticketID uint, principal auth.Principal) error {
	ticket, err := s.GetByID(ticketID)
	if err != nil {
		return err
	}

	switch {
	case auth.Authorize(principal, domain.RoleAdmin):
		// always allowed
	case auth.Authorize(principal, domain.RoleAgent):
		if ticket.AssignedAgentID == nil || *ticket.AssignedAgentID != principal.UserID {
			return domain.ErrUnauthorized
		}
	default:
		return domain.ErrUnauthorized
	}

	if ticket.Status == domain.TicketResolved {
		return domain.Invalid("status", "ticket %d is already resolved", ticketID)
	}

	resolvedAt := s.now()
	err = s.db.Model(ticket).Updates(map[string]any{
		"status":        domain.TicketResolved,
		"resolved_date": resolvedAt,
	}).Error
	if err != nil {
		return domain.Storage("resolve ticket", err)
	}
	s.log.Info("ticket resolved", "ticket_id", ticketID, "by", principal.Username)
	return nil
}
