// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package bridge relays policy creation to the standalone policy API.
//
// Customer-initiated policy creation does not write the local store
// directly; it posts the policy to the policy API, which owns that write
// path. A relay write succeeds only on a 2xx response; completing the
// HTTP call is not success.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/TidelineMutual/TidelineCore/pkg/logging"
	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
)

// Client talks to the policy API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logging.Logger
}

// NewClient builds a bridge client for the policy API at baseURL
// (e.g. "http://localhost:7227").
func NewClient(baseURL string, log *logging.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// CreatePolicy relays a policy creation and returns the created resource,
// including its server-assigned key.
func (c *Client) CreatePolicy(ctx context.Context, policy *domain.Policy) (*domain.Policy, error) {
	body, err := json.Marshal(policy)
	if err != nil {
		return nil, fmt.Errorf("encode policy: %w", err)
	}

	url := c.baseURL + "/api/admin/policies"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay policy creation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("policy relay rejected", "status", resp.StatusCode)
		return nil, fmt.Errorf("policy API returned %d", resp.StatusCode)
	}

	var created domain.Policy
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode created policy: %w", err)
	}

	c.log.Info("policy relayed", "policy_id", created.ID, "policy_number", created.PolicyNumber)
	return &created, nil
}
