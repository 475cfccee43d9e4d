// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Gayathri240502/persft-web-sub000/internal/flows/verification"
	"github.com/Gayathri240502/persft-web-sub000/internal/workorder"
)

// CoreClient talks to the core platform API: work orders, users and
// the navigation menu.
type CoreClient struct {
	*Client
}

// NewCoreClient creates a client for the core API.
func NewCoreClient(baseURL string, timeout time.Duration) *CoreClient {
	return &CoreClient{Client: NewClient(baseURL, timeout)}
}

// POScheduleEntry is one row of a work order's purchase-order schedule.
// PO generation itself happens server-side once a merchant is assigned.
type POScheduleEntry struct {
	PONumber    string `json:"poNumber"`
	MerchantID  string `json:"merchantId"`
	ProductID   string `json:"productId"`
	Status      string `json:"status"`
	GeneratedAt string `json:"generatedAt"`
}

// MatchedProduct is a work-order line item matched to a catalog
// product.
type MatchedProduct struct {
	ItemID      string `json:"itemId"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	MerchantID  string `json:"merchantId"`
	Quantity    int    `json:"quantity"`
}

// UnmatchedItem is a work-order line item without a catalog match.
type UnmatchedItem struct {
	ItemID      string `json:"itemId"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// WorkOrder is the work-order detail payload. ExecutionPlan arrives
// flat; callers rebuild the tree with workorder.BuildPlan.
type WorkOrder struct {
	ID              string               `json:"id"`
	ProjectID       string               `json:"projectId"`
	Status          string               `json:"status"`
	ExecutionPlan   []workorder.PlanStep `json:"executionPlan"`
	POSchedule      []POScheduleEntry    `json:"poSchedule"`
	MatchedProducts []MatchedProduct     `json:"matchedProducts"`
	UnmatchedItems  []UnmatchedItem      `json:"unmatchedItems"`
}

// GetWorkOrder fetches a work order by id.
func (c *CoreClient) GetWorkOrder(ctx context.Context, id string) (*WorkOrder, error) {
	var wo WorkOrder
	if err := c.do(ctx, http.MethodGet, "/work-orders/"+url.PathEscape(id), nil, &wo); err != nil {
		return nil, err
	}
	return &wo, nil
}

// UpdateGroupStatus patches a work group's status.
func (c *CoreClient) UpdateGroupStatus(ctx context.Context, workOrderID, groupID string, status workorder.Status) error {
	path := fmt.Sprintf("/work-orders/%s/groups/%s/status", url.PathEscape(workOrderID), url.PathEscape(groupID))
	return c.do(ctx, http.MethodPatch, path, map[string]string{"status": string(status)}, nil)
}

// UpdateTaskStatus patches a work task's status.
func (c *CoreClient) UpdateTaskStatus(ctx context.Context, workOrderID, groupID, taskID string, status workorder.Status) error {
	path := fmt.Sprintf("/work-orders/%s/groups/%s/tasks/%s/status",
		url.PathEscape(workOrderID), url.PathEscape(groupID), url.PathEscape(taskID))
	return c.do(ctx, http.MethodPatch, path, map[string]string{"status": string(status)}, nil)
}

// GetUser fetches the account snapshot used by the verification flow.
func (c *CoreClient) GetUser(ctx context.Context, id string) (verification.User, error) {
	var user verification.User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &user); err != nil {
		return verification.User{}, err
	}
	return user, nil
}

// MenuItem is one entry of the console navigation menu.
type MenuItem struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Path     string     `json:"path"`
	Children []MenuItem `json:"children,omitempty"`
}

// GetMenu fetches the navigation menu for a role.
func (c *CoreClient) GetMenu(ctx context.Context, role string) ([]MenuItem, error) {
	var items []MenuItem
	if err := c.do(ctx, http.MethodGet, "/menu?role="+url.QueryEscape(role), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}
