// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TidelineMutual/TidelineCore/pkg/logging"
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
	"github.com/TidelineMutual/TidelineCore/services/portal/middleware"
	"github.com/TidelineMutual/TidelineCore/services/portal/services"
)

// ListTickets returns every support ticket with its owner joined in.
func ListTickets(tickets *services.Tickets, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := tickets.ListAll()
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, all)
	}
}

// ListMyTickets returns only the tickets owned by the session user. This
// is the customer view; a customer never sees another customer's tickets.
func ListMyTickets(tickets *services.Tickets, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := middleware.GetPrincipal(c)
		own, err := tickets.ListByOwner(p.UserID)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, own)
	}
}

// GetTicket returns one ticket.
func GetTicket(tickets *services.Tickets, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		ticket, err := tickets.GetByID(id)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, ticket)
	}
}

type createTicketRequest struct {
	UserID           uint   `json:"userId"`
	IssueDescription string `json:"issueDescription"`
}

// CreateTicket files a support ticket. For customers the owner is always
// the session user; other fields a client might send (status, dates,
// assignment) are server-controlled and ignored by the service.
func CreateTicket(tickets *services.Tickets, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createTicketRequest
		if !bindJSON(c, &req) {
			return
		}

		ownerID := req.UserID
		p := middleware.GetPrincipal(c)
		if p.Role == domain.RoleCustomer {
			ownerID = p.UserID
		}

		ticket := domain.SupportTicket{UserID: ownerID, IssueDescription: req.IssueDescription}
		if err := tickets.Create(&ticket); err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, ticket)
	}
}

type assignTicketRequest struct {
	AgentID uint `json:"agentId"`
}

// AssignTicket routes a ticket to an agent.
func AssignTicket(tickets *services.Tickets, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req assignTicketRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := tickets.Assign(id, req.AgentID); err != nil {
			writeError(c, log, err)
			return
		}
		updated, err := tickets.GetByID(id)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// ResolveTicket closes a ticket as the session user. Admins may resolve
// any ticket; an agent only the tickets assigned to them.
func ResolveTicket(tickets *services.Tickets, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := tickets.Resolve(id, middleware.GetPrincipal(c)); err != nil {
			writeError(c, log, err)
			return
		}
		updated, err := tickets.GetByID(id)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}
