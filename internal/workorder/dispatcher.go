// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package workorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Updater is the slice of the core backend that persists status
// changes.
type Updater interface {
	UpdateGroupStatus(ctx context.Context, workOrderID, groupID string, status Status) error
	UpdateTaskStatus(ctx context.Context, workOrderID, groupID, taskID string, status Status) error
}

// ConfirmFunc is asked before each dispatch. Returning false aborts the
// mutation without touching the backend.
type ConfirmFunc func(target string, status Status) bool

var (
	// ErrUpdateInFlight is returned while a mutation for the same
	// target is still outstanding.
	ErrUpdateInFlight = errors.New("an update for this target is already in progress")
	// ErrDeclined is returned when the confirmation step rejects the
	// mutation.
	ErrDeclined = errors.New("update was not confirmed")
	// ErrUnknownTarget is returned when the target is not part of the
	// plan.
	ErrUnknownTarget = errors.New("target not found in execution plan")
	// ErrInvalidStatus is returned for status values outside the
	// accepted set.
	ErrInvalidStatus = errors.New("invalid status value")
)

// Dispatcher applies status mutations to one work order. Local plan
// state is only updated after the backend acknowledged the change, so
// a failure needs no rollback. Per target at most one mutation is in
// flight; concurrent mutations for distinct targets are independent.
type Dispatcher struct {
	client      Updater
	workOrderID string
	confirm     ConfirmFunc

	mu       sync.Mutex
	plan     Plan
	inflight map[string]bool
}

// NewDispatcher creates a dispatcher for the given work order and its
// reconstructed plan. A nil confirm function skips the confirmation
// step.
func NewDispatcher(client Updater, workOrderID string, plan Plan, confirm ConfirmFunc) *Dispatcher {
	return &Dispatcher{
		client:      client,
		workOrderID: workOrderID,
		confirm:     confirm,
		plan:        plan,
		inflight:    make(map[string]bool),
	}
}

// Plan returns a deep-copied snapshot of the current plan state. The
// copy shares no memory with the live plan, so callers may read or
// encode it while mutations proceed.
func (d *Dispatcher) Plan() Plan {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.plan.clone()
}

// Updating reports whether a mutation for the group is in flight. Used
// to disable the corresponding control.
func (d *Dispatcher) Updating(groupID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inflight[GroupTarget(groupID)]
}

// UpdatingTask reports whether a mutation for the task is in flight.
func (d *Dispatcher) UpdatingTask(groupID, taskID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inflight[TaskTarget(groupID, taskID)]
}

// SetGroupStatus confirms and dispatches a status change for a work
// group. Whether the group status is consistent with its tasks is not
// checked here; the backend owns that rule if one exists.
func (d *Dispatcher) SetGroupStatus(ctx context.Context, groupID string, status Status) error {
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}
	key := GroupTarget(groupID)

	d.mu.Lock()
	if d.plan.FindGroup(groupID) == nil {
		d.mu.Unlock()
		return ErrUnknownTarget
	}
	if d.inflight[key] {
		d.mu.Unlock()
		return ErrUpdateInFlight
	}
	d.inflight[key] = true
	d.mu.Unlock()

	defer d.clearInflight(key)

	if d.confirm != nil && !d.confirm(key, status) {
		return ErrDeclined
	}

	if err := d.client.UpdateGroupStatus(ctx, d.workOrderID, groupID, status); err != nil {
		return fmt.Errorf("update group status: %w", err)
	}

	d.mu.Lock()
	if group := d.plan.FindGroup(groupID); group != nil {
		group.Status = string(status)
	}
	d.mu.Unlock()
	return nil
}

// SetTaskStatus confirms and dispatches a status change for a work
// task.
func (d *Dispatcher) SetTaskStatus(ctx context.Context, groupID, taskID string, status Status) error {
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}
	key := TaskTarget(groupID, taskID)

	d.mu.Lock()
	if d.plan.FindTask(groupID, taskID) == nil {
		d.mu.Unlock()
		return ErrUnknownTarget
	}
	if d.inflight[key] {
		d.mu.Unlock()
		return ErrUpdateInFlight
	}
	d.inflight[key] = true
	d.mu.Unlock()

	defer d.clearInflight(key)

	if d.confirm != nil && !d.confirm(key, status) {
		return ErrDeclined
	}

	if err := d.client.UpdateTaskStatus(ctx, d.workOrderID, groupID, taskID, status); err != nil {
		return fmt.Errorf("update task status: %w", err)
	}

	d.mu.Lock()
	if task := d.plan.FindTask(groupID, taskID); task != nil {
		task.Status = string(status)
	}
	d.mu.Unlock()
	return nil
}

func (d *Dispatcher) clearInflight(key string) {
	d.mu.Lock()
	delete(d.inflight, key)
	d.mu.Unlock()
}

// GroupTarget is the confirmation key for a group mutation.
func GroupTarget(groupID string) string { return "group:" + groupID }

// TaskTarget is the confirmation key for a task mutation.
func TaskTarget(groupID, taskID string) string { return "task:" + groupID + ":" + taskID }
