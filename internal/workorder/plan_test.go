// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package workorder_test

import (
	"testing"

	"github.com/Gayathri240502/persft-web-sub000/internal/workorder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlan_GroupsTasksInOrder(t *testing.T) {
	steps := []workorder.PlanStep{
		{Type: workorder.StepWorkGroup, ID: "g1", Name: "Demolition", Status: "completed"},
		{Type: workorder.StepWorkTask, ID: "t1", Name: "Remove tiles", Status: "completed"},
		{Type: workorder.StepWorkTask, ID: "t2", Name: "Clear debris", Status: "pending"},
		{Type: workorder.StepWorkGroup, ID: "g2", Name: "Plumbing"},
		{Type: workorder.StepWorkTask, ID: "t3", Name: "Lay pipes"},
	}

	plan := workorder.BuildPlan(steps)

	require.Len(t, plan.Groups, 2)
	assert.Equal(t, 0, plan.OrphanTasks)

	g1 := plan.Groups[0]
	assert.Equal(t, "g1", g1.WorkGroupID)
	require.Len(t, g1.WorkTasks, 2)
	assert.Equal(t, "t1", g1.WorkTasks[0].WorkTaskID)
	assert.Equal(t, "t2", g1.WorkTasks[1].WorkTaskID)

	g2 := plan.Groups[1]
	assert.Equal(t, "g2", g2.WorkGroupID)
	require.Len(t, g2.WorkTasks, 1)
	assert.Equal(t, "t3", g2.WorkTasks[0].WorkTaskID)

	assert.Equal(t, 3, plan.TaskCount())
}

func TestBuildPlan_OrphanLeadingTasksDroppedAndCounted(t *testing.T) {
	steps := []workorder.PlanStep{
		{Type: workorder.StepWorkTask, ID: "t0"},
		{Type: workorder.StepWorkTask, ID: "t00"},
		{Type: workorder.StepWorkGroup, ID: "g1"},
		{Type: workorder.StepWorkTask, ID: "t1"},
	}

	plan := workorder.BuildPlan(steps)

	require.Len(t, plan.Groups, 1)
	assert.Equal(t, 2, plan.OrphanTasks)
	assert.Equal(t, 1, plan.TaskCount())
}

func TestBuildPlan_Empty(t *testing.T) {
	plan := workorder.BuildPlan(nil)
	assert.Empty(t, plan.Groups)
	assert.Equal(t, 0, plan.OrphanTasks)
}

func TestBuildPlan_GroupWithoutTasks(t *testing.T) {
	steps := []workorder.PlanStep{
		{Type: workorder.StepWorkGroup, ID: "g1"},
		{Type: workorder.StepWorkGroup, ID: "g2"},
	}

	plan := workorder.BuildPlan(steps)

	require.Len(t, plan.Groups, 2)
	assert.Empty(t, plan.Groups[0].WorkTasks)
	assert.NotNil(t, plan.Groups[0].WorkTasks)
}

func TestBuildPlan_MissingFieldsGetPlaceholders(t *testing.T) {
	steps := []workorder.PlanStep{
		{Type: workorder.StepWorkGroup, ID: "g1"},
		{Type: workorder.StepWorkTask, ID: "t1"},
	}

	plan := workorder.BuildPlan(steps)

	g := plan.Groups[0]
	assert.Equal(t, "—", g.WorkGroupName)
	assert.Equal(t, "pending", g.Status)

	task := g.WorkTasks[0]
	assert.Equal(t, "—", task.WorkTaskName)
	assert.Equal(t, "pending", task.Status)
	assert.Equal(t, "—", task.ActualStartDate)
	assert.Equal(t, "—", task.ActualEndDate)
}

func TestBuildPlan_TotalTaskAccounting(t *testing.T) {
	// g groups, t tasks: output group count is g and task counts sum
	// to t minus the orphaned leading tasks.
	var steps []workorder.PlanStep
	steps = append(steps, workorder.PlanStep{Type: workorder.StepWorkTask, ID: "orphan"})
	for g := 0; g < 4; g++ {
		steps = append(steps, workorder.PlanStep{Type: workorder.StepWorkGroup, ID: string(rune('a' + g))})
		for i := 0; i < g; i++ {
			steps = append(steps, workorder.PlanStep{Type: workorder.StepWorkTask})
		}
	}

	plan := workorder.BuildPlan(steps)

	assert.Len(t, plan.Groups, 4)
	assert.Equal(t, 1, plan.OrphanTasks)
	assert.Equal(t, 0+1+2+3, plan.TaskCount())
}

func TestFindGroupAndTask(t *testing.T) {
	plan := workorder.BuildPlan([]workorder.PlanStep{
		{Type: workorder.StepWorkGroup, ID: "g1"},
		{Type: workorder.StepWorkTask, ID: "t1"},
	})

	assert.NotNil(t, plan.FindGroup("g1"))
	assert.Nil(t, plan.FindGroup("nope"))
	assert.NotNil(t, plan.FindTask("g1", "t1"))
	assert.Nil(t, plan.FindTask("g1", "nope"))
	assert.Nil(t, plan.FindTask("nope", "t1"))
}
