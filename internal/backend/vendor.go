// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// VendorClient talks to the vendor service: merchant lookup and
// merchant assignment for work-order line items.
type VendorClient struct {
	*Client
}

// NewVendorClient creates a client for the vendor service.
func NewVendorClient(baseURL string, timeout time.Duration) *VendorClient {
	return &VendorClient{Client: NewClient(baseURL, timeout)}
}

// Merchant is a vendor that can fulfil matched products.
type Merchant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	City     string `json:"city"`
	Active   bool   `json:"active"`
}

// ListMerchants returns merchants, optionally filtered by category.
func (c *VendorClient) ListMerchants(ctx context.Context, category string) ([]Merchant, error) {
	path := "/merchants"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var merchants []Merchant
	if err := c.do(ctx, http.MethodGet, path, nil, &merchants); err != nil {
		return nil, err
	}
	return merchants, nil
}

// AssignMerchant assigns a merchant to a matched work-order line item.
// The backend generates the purchase order as part of the assignment.
func (c *VendorClient) AssignMerchant(ctx context.Context, workOrderID, itemID, merchantID string) error {
	path := fmt.Sprintf("/work-orders/%s/items/%s/merchant", url.PathEscape(workOrderID), url.PathEscape(itemID))
	return c.do(ctx, http.MethodPost, path, map[string]string{"merchantId": merchantID}, nil)
}
