// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package backend

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// SupportClient talks to the support-ticket service.
type SupportClient struct {
	*Client
}

// NewSupportClient creates a client for the support service.
func NewSupportClient(baseURL string, timeout time.Duration) *SupportClient {
	return &SupportClient{Client: NewClient(baseURL, timeout)}
}

// Ticket is a customer support ticket.
type Ticket struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Status    string `json:"status"`
	UserID    string `json:"userId"`
	CreatedAt string `json:"createdAt"`
}

// ListTickets returns tickets, optionally filtered by status.
func (c *SupportClient) ListTickets(ctx context.Context, status string) ([]Ticket, error) {
	path := "/tickets"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var tickets []Ticket
	if err := c.do(ctx, http.MethodGet, path, nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}
