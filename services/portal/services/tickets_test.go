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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TidelineMutual/TidelineCore/services/portal/auth"
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
)

func principalFor(u *domain.User) auth.Principal {
	return auth.Principal{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func TestTicketCreate(t *testing.T) {
	f := newFixture(t)
	owner := f.seedUser(t, "jortega", domain.RoleCustomer)

	t.Run("server forces OPEN and createdDate", func(t *testing.T) {
		stale := frozenNow.AddDate(-1, 0, 0)
		agentID := uint(42)
		ticket := domain.SupportTicket{
			UserID:           owner.ID,
			AssignedAgentID:  &agentID, // must be ignored
			IssueDescription: "Windshield claim page shows an error",
			Status:           domain.TicketResolved, // must be ignored
			CreatedDate:      stale,                 // must be ignored
			ResolvedDate:     &stale,                // must be ignored
		}
		require.NoError(t, f.tickets.Create(&ticket))

		got, err := f.tickets.GetByID(ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketOpen, got.Status)
		assert.True(t, got.CreatedDate.Equal(frozenNow))
		assert.Nil(t, got.ResolvedDate)
		assert.Nil(t, got.AssignedAgentID)
	})

	t.Run("dangling owner rejected", func(t *testing.T) {
		ticket := domain.SupportTicket{UserID: 9999, IssueDescription: "hello"}
		err := f.tickets.Create(&ticket)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("empty description rejected", func(t *testing.T) {
		ticket := domain.SupportTicket{UserID: owner.ID}
		assert.True(t, domain.IsValidation(f.tickets.Create(&ticket)))
	})
}

func TestTicketAssign(t *testing.T) {
	f := newFixture(t)
	owner := f.seedUser(t, "jortega", domain.RoleCustomer)
	agent := f.seedUser(t, "msalter", domain.RoleAgent)

	newTicket := func() *domain.SupportTicket {
		ticket := domain.SupportTicket{UserID: owner.ID, IssueDescription: "billing question"}
		require.NoError(t, f.tickets.Create(&ticket))
		return &ticket
	}

	t.Run("assigns an agent", func(t *testing.T) {
		ticket := newTicket()
		require.NoError(t, f.tickets.Assign(ticket.ID, agent.ID))
		got, err := f.tickets.GetByID(ticket.ID)
		require.NoError(t, err)
		require.NotNil(t, got.AssignedAgentID)
		assert.Equal(t, agent.ID, *got.AssignedAgentID)
	})

	t.Run("missing ticket", func(t *testing.T) {
		assert.ErrorIs(t, f.tickets.Assign(9999, agent.ID), domain.ErrNotFound)
	})

	t.Run("assignee must exist", func(t *testing.T) {
		ticket := newTicket()
		assert.True(t, domain.IsValidation(f.tickets.Assign(ticket.ID, 9999)))
	})

	t.Run("assignee must hold the agent role", func(t *testing.T) {
		ticket := newTicket()
		err := f.tickets.Assign(ticket.ID, owner.ID)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestTicketResolve(t *testing.T) {
	f := newFixture(t)
	owner := f.seedUser(t, "jortega", domain.RoleCustomer)
	agent := f.seedUser(t, "msalter", domain.RoleAgent)
	otherAgent := f.seedUser(t, "bliu", domain.RoleAgent)
	admin := f.seedUser(t, "root", domain.RoleAdmin)

	newAssignedTicket := func() *domain.SupportTicket {
		ticket := domain.SupportTicket{UserID: owner.ID, IssueDescription: "renewal not applied"}
		require.NoError(t, f.tickets.Create(&ticket))
		require.NoError(t, f.tickets.Assign(ticket.ID, agent.ID))
		return &ticket
	}

	t.Run("assigned agent resolves", func(t *testing.T) {
		ticket := newAssignedTicket()
		require.NoError(t, f.tickets.Resolve(ticket.ID, principalFor(agent)))

		got, err := f.tickets.GetByID(ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketResolved, got.Status)
		require.NotNil(t, got.ResolvedDate)
		assert.WithinDuration(t, frozenNow, *got.ResolvedDate, time.Second)
	})

	t.Run("admin resolves unconditionally", func(t *testing.T) {
		ticket := newAssignedTicket()
		assert.NoError(t, f.tickets.Resolve(ticket.ID, principalFor(admin)))
	})

	t.Run("unassigned agent denied", func(t *testing.T) {
		ticket := newAssignedTicket()
		err := f.tickets.Resolve(ticket.ID, principalFor(otherAgent))
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("customer denied", func(t *testing.T) {
		ticket := newAssignedTicket()
		assert.ErrorIs(t, f.tickets.Resolve(ticket.ID, principalFor(owner)), domain.ErrUnauthorized)
	})

	t.Run("already resolved fails without side effects", func(t *testing.T) {
		ticket := newAssignedTicket()
		require.NoError(t, f.tickets.Resolve(ticket.ID, principalFor(admin)))

		before, err := f.tickets.GetByID(ticket.ID)
		require.NoError(t, err)

		err = f.tickets.Resolve(ticket.ID, principalFor(admin))
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))

		after, err := f.tickets.GetByID(ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, before.Status, after.Status)
		assert.True(t, before.ResolvedDate.Equal(*after.ResolvedDate))
	})

	t.Run("missing ticket", func(t *testing.T) {
		assert.ErrorIs(t, f.tickets.Resolve(9999, principalFor(admin)), domain.ErrNotFound)
	})
}

func TestTicketListByOwner(t *testing.T) {
	f := newFixture(t)
	alice := f.seedUser(t, "agarza", domain.RoleCustomer)
	bob := f.seedUser(t, "bvance", domain.RoleCustomer)

	aliceTicket := domain.SupportTicket{UserID: alice.ID, IssueDescription: "premium looks wrong"}
	require.NoError(t, f.tickets.Create(&aliceTicket))
	bobTicket := domain.SupportTicket{UserID: bob.ID, IssueDescription: "cannot download policy document"}
	require.NoError(t, f.tickets.Create(&bobTicket))

	t.Run("only the owner's tickets come back", func(t *testing.T) {
		own, err := f.tickets.ListByOwner(bob.ID)
		require.NoError(t, err)
		require.Len(t, own, 1)
		assert.Equal(t, bobTicket.ID, own[0].ID)
		assert.Equal(t, bob.ID, own[0].UserID)
	})

	t.Run("no tickets is an empty list", func(t *testing.T) {
		nobody := f.seedUser(t, "cwu", domain.RoleCustomer)
		own, err := f.tickets.ListByOwner(nobody.ID)
		require.NoError(t, err)
		assert.Empty(t, own)
	})
}

func TestTicketListJoinsOwner(t *testing.T) {
	f := newFixture(t)
	owner := f.seedUser(t, "jortega", domain.RoleCustomer)
	ticket := domain.SupportTicket{UserID: owner.ID, IssueDescription: "question about deductible"}
	require.NoError(t, f.tickets.Create(&ticket))

	tickets, err := f.tickets.ListAll()
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	require.NotNil(t, tickets[0].Owner)
	assert.Equal(t, "jortega", tickets[0].Owner.Username)
}
