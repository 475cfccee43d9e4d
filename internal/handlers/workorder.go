// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/Gayathri240502/persft-web-sub000/internal/backend"
	"github.com/Gayathri240502/persft-web-sub000/internal/workorder"
)

type workOrderEntry struct {
	dispatcher *workorder.Dispatcher
	order      *backend.WorkOrder

	// confirmations carries the browser's confirm/decline answer to
	// the dispatcher's confirmation gate, keyed by mutation target.
	confirmations sync.Map
}

func (e *workOrderEntry) confirm(target string, _ workorder.Status) bool {
	v, ok := e.confirmations.LoadAndDelete(target)
	if !ok {
		return false
	}
	confirmed, _ := v.(bool)
	return confirmed
}

// workOrderRegistry keeps one dispatcher per opened work order so
// single-flight tracking spans requests.
type workOrderRegistry struct {
	mu      sync.Mutex
	entries map[string]*workOrderEntry
}

func newWorkOrderRegistry() *workOrderRegistry {
	return &workOrderRegistry{entries: make(map[string]*workOrderEntry)}
}

func (r *workOrderRegistry) get(id string) *workOrderEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[id]
}

func (r *workOrderRegistry) put(id string, e *workOrderEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = e
}

// WorkOrderDetail handles GET /api/work-orders/:id. Each load fetches a
// fresh snapshot and rebuilds the execution plan tree from the flat
// step list.
func (h *Handlers) WorkOrderDetail(c echo.Context) error {
	id := c.Param("id")

	order, err := h.backends.Core.GetWorkOrder(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, errorStatus(err), err)
	}

	plan := workorder.BuildPlan(order.ExecutionPlan)

	entry := &workOrderEntry{order: order}
	entry.dispatcher = workorder.NewDispatcher(h.backends.Core, id, plan, entry.confirm)
	h.workOrders.put(id, entry)

	return c.JSON(http.StatusOK, workOrderResponse(order, plan))
}

type statusRequest struct {
	Status    string `json:"status"`
	Confirmed bool   `json:"confirmed"`
}

// GroupStatus handles PATCH /api/work-orders/:id/groups/:groupID.
func (h *Handlers) GroupStatus(c echo.Context) error {
	entry := h.workOrders.get(c.Param("id"))
	if entry == nil {
		return messageJSON(c, http.StatusNotFound, "work order not loaded")
	}

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return messageJSON(c, http.StatusBadRequest, "invalid request body")
	}

	groupID := c.Param("groupID")
	entry.confirmations.Store(workorder.GroupTarget(groupID), req.Confirmed)

	if err := entry.dispatcher.SetGroupStatus(c.Request().Context(), groupID, workorder.Status(req.Status)); err != nil {
		return errorJSON(c, errorStatus(err), err)
	}

	return c.JSON(http.StatusOK, planResponse(entry.dispatcher.Plan()))
}

// TaskStatus handles PATCH /api/work-orders/:id/groups/:groupID/tasks/:taskID.
func (h *Handlers) TaskStatus(c echo.Context) error {
	entry := h.workOrders.get(c.Param("id"))
	if entry == nil {
		return messageJSON(c, http.StatusNotFound, "work order not loaded")
	}

	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return messageJSON(c, http.StatusBadRequest, "invalid request body")
	}

	groupID, taskID := c.Param("groupID"), c.Param("taskID")
	entry.confirmations.Store(workorder.TaskTarget(groupID, taskID), req.Confirmed)

	if err := entry.dispatcher.SetTaskStatus(c.Request().Context(), groupID, taskID, workorder.Status(req.Status)); err != nil {
		return errorJSON(c, errorStatus(err), err)
	}

	return c.JSON(http.StatusOK, planResponse(entry.dispatcher.Plan()))
}

type assignMerchantRequest struct {
	MerchantID string `json:"merchantId"`
}

// AssignMerchant handles POST /api/work-orders/:id/items/:itemID/merchant.
// A successful assignment triggers purchase-order generation backend-side,
// so the cached work-order snapshot is invalidated.
func (h *Handlers) AssignMerchant(c echo.Context) error {
	var req assignMerchantRequest
	if err := c.Bind(&req); err != nil {
		return messageJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if req.MerchantID == "" {
		return messageJSON(c, http.StatusBadRequest, "merchantId is required")
	}

	id, itemID := c.Param("id"), c.Param("itemID")
	if err := h.backends.Vendor.AssignMerchant(c.Request().Context(), id, itemID, req.MerchantID); err != nil {
		return errorJSON(c, errorStatus(err), err)
	}

	return c.NoContent(http.StatusNoContent)
}

func workOrderResponse(order *backend.WorkOrder, plan workorder.Plan) map[string]any {
	resp := planResponse(plan)
	resp["id"] = order.ID
	resp["projectId"] = order.ProjectID
	resp["status"] = order.Status
	resp["poSchedule"] = order.POSchedule
	resp["matchedProducts"] = order.MatchedProducts
	resp["unmatchedItems"] = order.UnmatchedItems
	return resp
}

func planResponse(plan workorder.Plan) map[string]any {
	return map[string]any{
		"groups":      plan.Groups,
		"orphanTasks": plan.OrphanTasks,
		"taskCount":   plan.TaskCount(),
	}
}
