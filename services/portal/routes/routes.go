// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package routes registers the portal HTTP surface.
//
// The surface has four areas: public authentication routes, and one route
// group per role (/admin, /agent, /customer), each gated by its own
// RequireRole middleware. A user holding one role gets nothing from another
// role's group: an agent asking for /admin/users is a 403, not a filtered
// view.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/TidelineMutual/TidelineCore/pkg/logging"
	"github.com/TidelineMutual/TidelineCore/services/portal/auth"
	"github.com/TidelineMutual/TidelineCore/services/portal/bridge"
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
	"github.com/TidelineMutual/TidelineCore/services/portal/handlers"
	"github.com/TidelineMutual/TidelineCore/services/portal/middleware"
	"github.com/TidelineMutual/TidelineCore/services/portal/services"
)

// Deps carries everything the routes need. All fields are required except
// Bridge, which may be nil when no policy API is configured; the customer
// policy-creation route is then not registered.
type Deps struct {
	Users     *services.Users
	Policies  *services.Policies
	Claims    *services.Claims
	Payments  *services.Payments
	Tickets   *services.Tickets
	Dashboard *services.Dashboard
	Sessions  *auth.SessionStore
	Bridge    *bridge.Client
	Log       *logging.Logger
}

// SetupRoutes registers the full portal surface on the router.
func SetupRoutes(router *gin.Engine, d Deps) {
	router.Use(middleware.SessionAuth(d.Sessions))

	// Public authentication surface.
	router.POST("/register", handlers.Register(d.Users, d.Log))
	router.POST("/login", handlers.Login(d.Users, d.Sessions, d.Log))
	router.POST("/logout", handlers.Logout(d.Sessions, d.Log))

	admin := router.Group("/admin", middleware.RequireRole(domain.RoleAdmin))
	{
		admin.GET("/dashboard", handlers.GetDashboard(d.Dashboard, d.Log))

		admin.GET("/users", handlers.ListUsers(d.Users, d.Log))
		admin.GET("/users/:id", handlers.GetUser(d.Users, d.Log))
		admin.POST("/users", handlers.CreateUser(d.Users, d.Log))
		admin.PUT("/users/:id", handlers.UpdateUser(d.Users, d.Log))
		admin.DELETE("/users/:id", handlers.DeleteUser(d.Users, d.Log))

		admin.GET("/policies", handlers.ListPolicies(d.Policies, d.Log))
		admin.GET("/policies/:id", handlers.GetPolicy(d.Policies, d.Log))
		admin.GET("/policies/:id/payments", handlers.ListPaymentsByPolicy(d.Payments, d.Log))
		admin.POST("/policies", handlers.CreatePolicy(d.Policies, d.Log))
		admin.PUT("/policies/:id", handlers.UpdatePolicy(d.Policies, d.Log))
		admin.DELETE("/policies/:id", handlers.DeletePolicy(d.Policies, d.Log))

		admin.GET("/claims", handlers.ListClaims(d.Claims, d.Log))
		admin.GET("/claims/:id", handlers.GetClaim(d.Claims, d.Log))
		admin.POST("/claims", handlers.SubmitClaim(d.Claims, d.Log))
		admin.PUT("/claims/:id/status", handlers.UpdateClaimStatus(d.Claims, d.Log))

		admin.GET("/payments", handlers.ListPayments(d.Payments, d.Log))
		admin.GET("/payments/:id", handlers.GetPayment(d.Payments, d.Log))
		admin.POST("/payments", handlers.MakePayment(d.Payments, d.Policies, d.Log))
		admin.PUT("/payments/:id/status", handlers.UpdatePaymentStatus(d.Payments, d.Log))

		admin.GET("/tickets", handlers.ListTickets(d.Tickets, d.Log))
		admin.GET("/tickets/:id", handlers.GetTicket(d.Tickets, d.Log))
		admin.PUT("/tickets/:id/assign", handlers.AssignTicket(d.Tickets, d.Log))
		admin.PUT("/tickets/:id/resolve", handlers.ResolveTicket(d.Tickets, d.Log))
	}

	agent := router.Group("/agent", middleware.RequireRole(domain.RoleAgent))
	{
		agent.GET("/users", handlers.ListUsers(d.Users, d.Log))
		agent.POST("/users", handlers.CreateNonAdminUser(d.Users, d.Log))

		agent.GET("/policies", handlers.ListPolicies(d.Policies, d.Log))
		agent.GET("/policies/:id", handlers.GetPolicy(d.Policies, d.Log))
		agent.GET("/policies/:id/payments", handlers.ListPaymentsByPolicy(d.Payments, d.Log))
		agent.POST("/policies", handlers.CreatePolicy(d.Policies, d.Log))

		agent.GET("/claims", handlers.ListClaims(d.Claims, d.Log))
		agent.GET("/claims/:id", handlers.GetClaim(d.Claims, d.Log))
		agent.POST("/claims", handlers.FileClaim(d.Claims, d.Log))
		agent.PUT("/claims/:id/status", handlers.UpdateClaimStatus(d.Claims, d.Log))

		agent.POST("/payments", handlers.PayPremium(d.Payments, d.Policies, d.Log))

		agent.GET("/tickets", handlers.ListTickets(d.Tickets, d.Log))
		agent.GET("/tickets/:id", handlers.GetTicket(d.Tickets, d.Log))
		agent.POST("/tickets", handlers.CreateTicket(d.Tickets, d.Log))
		agent.PUT("/tickets/:id/assign", handlers.AssignTicket(d.Tickets, d.Log))
		agent.PUT("/tickets/:id/resolve", handlers.ResolveTicket(d.Tickets, d.Log))
	}

	customer := router.Group("/customer", middleware.RequireRole(domain.RoleCustomer))
	{
		customer.GET("/policies", handlers.ListPolicies(d.Policies, d.Log))
		customer.GET("/policies/:id", handlers.GetPolicy(d.Policies, d.Log))
		customer.GET("/policies/:id/payments", handlers.ListPaymentsByPolicy(d.Payments, d.Log))
		if d.Bridge != nil {
			customer.POST("/policies", handlers.RelayPolicy(d.Bridge, d.Log))
		}

		customer.GET("/claims", handlers.ListClaims(d.Claims, d.Log))
		customer.POST("/claims", handlers.FileClaim(d.Claims, d.Log))

		customer.POST("/payments", handlers.PayPremium(d.Payments, d.Policies, d.Log))

		customer.GET("/tickets", handlers.ListMyTickets(d.Tickets, d.Log))
		customer.POST("/tickets", handlers.CreateTicket(d.Tickets, d.Log))
	}
}
