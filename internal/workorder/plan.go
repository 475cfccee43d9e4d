// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package workorder reconstructs a work order's execution plan from the
// flat step list the core backend returns and dispatches status updates
// for its groups and tasks.
package workorder

import "github.com/samber/lo"

// StepType tags an entry in the flat execution plan.
type StepType string

const (
	StepWorkGroup StepType = "workGroup"
	StepWorkTask  StepType = "workTask"
)

// Status values accepted for groups and tasks.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ValidStatus reports whether s is one of the accepted status values.
func ValidStatus(s Status) bool {
	return s == StatusPending || s == StatusCompleted || s == StatusCancelled
}

// Placeholder values for absent display fields.
const (
	placeholderText   = "—"
	placeholderStatus = string(StatusPending)
)

// PlanStep is one entry of the flat, ordered execution plan. Array
// order is both display order and grouping signal; there is no parent
// id on task entries.
type PlanStep struct {
	Type      StepType `json:"type"`
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Status    string   `json:"status"`
	Notes     string   `json:"notes"`
	StartDate string   `json:"actualStartDate,omitempty"`
	EndDate   string   `json:"actualEndDate,omitempty"`
}

// WorkTask is a leaf step inside a work group.
type WorkTask struct {
	WorkTaskID      string `json:"workTaskId"`
	WorkTaskName    string `json:"workTaskName"`
	Status          string `json:"status"`
	Notes           string `json:"notes"`
	ActualStartDate string `json:"actualStartDate"`
	ActualEndDate   string `json:"actualEndDate"`
}

// WorkGroup is an ordered group of tasks.
type WorkGroup struct {
	WorkGroupID   string     `json:"workGroupId"`
	WorkGroupName string     `json:"workGroupName"`
	Status        string     `json:"status"`
	Notes         string     `json:"notes"`
	WorkTasks     []WorkTask `json:"workTasks"`
}

// Plan is the reconstructed execution plan. OrphanTasks counts task
// entries that preceded the first group and were dropped; a non-zero
// value is a payload anomaly worth logging, not an error.
type Plan struct {
	Groups      []WorkGroup `json:"groups"`
	OrphanTasks int         `json:"orphanTasks"`
}

// BuildPlan folds the flat step list into groups. A workGroup entry
// opens a new accumulator, workTask entries attach to the currently
// open group, and the accumulator is flushed on the next group or at
// the end of input. The fold is a single pass and preserves input
// order.
func BuildPlan(steps []PlanStep) Plan {
	var plan Plan
	var current *WorkGroup

	flush := func() {
		if current != nil {
			plan.Groups = append(plan.Groups, *current)
			current = nil
		}
	}

	for _, step := range steps {
		switch step.Type {
		case StepWorkGroup:
			flush()
			current = &WorkGroup{
				WorkGroupID:   textOr(step.ID, placeholderText),
				WorkGroupName: textOr(step.Name, placeholderText),
				Status:        textOr(step.Status, placeholderStatus),
				Notes:         step.Notes,
				WorkTasks:     []WorkTask{},
			}
		case StepWorkTask:
			if current == nil {
				plan.OrphanTasks++
				continue
			}
			current.WorkTasks = append(current.WorkTasks, WorkTask{
				WorkTaskID:      textOr(step.ID, placeholderText),
				WorkTaskName:    textOr(step.Name, placeholderText),
				Status:          textOr(step.Status, placeholderStatus),
				Notes:           step.Notes,
				ActualStartDate: textOr(step.StartDate, placeholderText),
				ActualEndDate:   textOr(step.EndDate, placeholderText),
			})
		}
	}
	flush()
	return plan
}

// TaskCount returns the total number of tasks across all groups.
func (p Plan) TaskCount() int {
	return lo.SumBy(p.Groups, func(g WorkGroup) int {
		return len(g.WorkTasks)
	})
}

// FindGroup returns a pointer to the group with the given id, nil if
// absent.
func (p *Plan) FindGroup(groupID string) *WorkGroup {
	for i := range p.Groups {
		if p.Groups[i].WorkGroupID == groupID {
			return &p.Groups[i]
		}
	}
	return nil
}

// FindTask returns a pointer to the task with the given ids, nil if
// absent.
func (p *Plan) FindTask(groupID, taskID string) *WorkTask {
	group := p.FindGroup(groupID)
	if group == nil {
		return nil
	}
	for i := range group.WorkTasks {
		if group.WorkTasks[i].WorkTaskID == taskID {
			return &group.WorkTasks[i]
		}
	}
	return nil
}

// clone deep-copies the plan so a snapshot can be read and encoded
// while the original keeps mutating.
func (p Plan) clone() Plan {
	out := p
	out.Groups = make([]WorkGroup, len(p.Groups))
	copy(out.Groups, p.Groups)
	for i := range out.Groups {
		tasks := make([]WorkTask, len(out.Groups[i].WorkTasks))
		copy(tasks, out.Groups[i].WorkTasks)
		out.Groups[i].WorkTasks = tasks
	}
	return out
}

func textOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
