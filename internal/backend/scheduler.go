// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package backend

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// searchTimeout caps budget-category searches. The scheduler service is
// the one backend known to stall, so this path aborts client-side.
const searchTimeout = 10 * time.Second

// SchedulerClient talks to the scheduler service.
type SchedulerClient struct {
	*Client
}

// NewSchedulerClient creates a client for the scheduler service.
func NewSchedulerClient(baseURL string, timeout time.Duration) *SchedulerClient {
	return &SchedulerClient{Client: NewClient(baseURL, timeout)}
}

// BudgetCategory is one entry of the budget-category catalog.
type BudgetCategory struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// SearchBudgetCategories searches categories by name, aborting after a
// fixed ten-second deadline regardless of the caller's context.
func (c *SchedulerClient) SearchBudgetCategories(ctx context.Context, query string) ([]BudgetCategory, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	var categories []BudgetCategory
	path := "/budget-categories?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}
