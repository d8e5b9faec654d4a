// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TidelineMutual/TidelineCore/pkg/logging"
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
	"github.com/TidelineMutual/TidelineCore/services/portal/services"
)

// MakePayment records a premium payment. The handler pre-checks the amount
// against the policy premium to produce a message that names the expected
// figure; the payments service enforces the same rule again inside its
// transaction, so a caller that skips this surface cannot bypass it.
// Reachable only inside the admin group; the submitted status is taken
// as-is.
func MakePayment(payments *services.Payments, policies *services.Policies, log *logging.Logger) gin.HandlerFunc {
	return makePayment(payments, policies, log, false)
}

// PayPremium is the agent and customer payment submission. The payment is
// always recorded as SUCCESS no matter what status the client sent; only
// admins mark payments FAILED or PENDING.
func PayPremium(payments *services.Payments, policies *services.Policies, log *logging.Logger) gin.HandlerFunc {
	return makePayment(payments, policies, log, true)
}

func makePayment(payments *services.Payments, policies *services.Policies, log *logging.Logger, forceSuccess bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payment domain.Payment
		if !bindJSON(c, &payment) {
			return
		}
		if forceSuccess {
			payment.Status = domain.PaymentSuccess
		}

		policy, err := policies.GetByID(payment.PolicyID)
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "policy not found"})
			return
		}
		if err != nil {
			writeError(c, log, err)
			return
		}
		if payment.PaymentAmount != policy.PremiumAmount {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "payment amount must equal the policy premium (" + policy.PremiumAmount.String() + ")",
				"field": "paymentAmount",
			})
			return
		}

		if err := payments.MakePayment(&payment); err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, payment)
	}
}

// ListPayments returns every payment.
func ListPayments(payments *services.Payments, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := payments.ListAll()
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, all)
	}
}

// GetPayment returns one payment.
func GetPayment(payments *services.Payments, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		payment, err := payments.GetByID(id)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, payment)
	}
}

// ListPaymentsByPolicy returns the payment history of one policy,
// oldest first.
func ListPaymentsByPolicy(payments *services.Payments, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		history, err := payments.ListByPolicy(id)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, history)
	}
}

type paymentStatusRequest struct {
	Status string `json:"status"`
}

// UpdatePaymentStatus changes the settlement state of a payment.
func UpdatePaymentStatus(payments *services.Payments, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req paymentStatusRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := payments.UpdateStatus(id, domain.PaymentStatus(req.Status)); err != nil {
			writeError(c, log, err)
			return
		}
		updated, err := payments.GetByID(id)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}
