// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Gayathri240502/persft-web-sub000/internal/backend"
)

// Menu handles GET /api/menu. The role-scoped menu changes rarely, so
// it is served from the TTL cache when possible.
func (h *Handlers) Menu(c echo.Context) error {
	ctx := c.Request().Context()
	role := currentSession(c).Role
	key := "menu:" + role

	var items []backend.MenuItem
	hit, err := h.cache.Get(ctx, key, &items)
	if err != nil {
		slog.Warn("menu cache read failed", "error", err)
	}
	if hit {
		return c.JSON(http.StatusOK, items)
	}

	items, err = h.backends.Core.GetMenu(ctx, role)
	if err != nil {
		return errorJSON(c, errorStatus(err), err)
	}

	if err := h.cache.Set(ctx, key, items); err != nil {
		slog.Warn("menu cache write failed", "error", err)
	}
	return c.JSON(http.StatusOK, items)
}

// Merchants handles GET /api/merchants?category=.
func (h *Handlers) Merchants(c echo.Context) error {
	merchants, err := h.backends.Vendor.ListMerchants(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return errorJSON(c, errorStatus(err), err)
	}
	return c.JSON(http.StatusOK, merchants)
}

// Tickets handles GET /api/tickets?status=.
func (h *Handlers) Tickets(c echo.Context) error {
	tickets, err := h.backends.Support.ListTickets(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return errorJSON(c, errorStatus(err), err)
	}
	return c.JSON(http.StatusOK, tickets)
}

// BudgetCategories handles GET /api/budget-categories?q=.
func (h *Handlers) BudgetCategories(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return messageJSON(c, http.StatusBadRequest, "q is required")
	}

	categories, err := h.backends.Scheduler.SearchBudgetCategories(c.Request().Context(), q)
	if err != nil {
		return errorJSON(c, errorStatus(err), err)
	}
	return c.JSON(http.StatusOK, categories)
}
