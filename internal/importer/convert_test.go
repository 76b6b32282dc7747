package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kitrop/workflow/internal/domain"
)

func TestConvert_ResolvesDocumentReferences(t *testing.T) {
	plan, err := Convert(validMinimalSchema(), emptyKnown())
	require.NoError(t, err)

	require.Len(t, plan.Users, 1)
	dev := plan.Users[0]
	assert.NotEmpty(t, dev.ID)
	assert.Equal(t, domain.RoleUser, dev.Role)

	require.Len(t, plan.Projects, 1)
	core := plan.Projects[0]
	assert.Equal(t, domain.DefaultProjectColor, core.Color)

	require.Len(t, plan.Grants, 1)
	assert.Equal(t, domain.AccessGrant{UserID: dev.ID, ProjectID: core.ID}, plan.Grants[0])

	require.Len(t, plan.Tasks, 1)
	task := plan.Tasks[0]
	assert.Empty(t, task.ID, "ids are assigned on create")
	assert.Equal(t, core.ID, task.ProjectID)
	assert.Equal(t, dev.ID, task.AssigneeID)
	assert.Equal(t, domain.TaskTypeDevelopment, task.Type)
	assert.Equal(t, "2024-01-01", task.IssueDate.Format(domain.DateLayout))
	require.Len(t, task.Periods, 1)
	assert.NotEmpty(t, task.Periods[0].ID)
	sp, ok := task.Extra.StoryPoints()
	assert.True(t, ok)
	assert.Equal(t, 3.0, sp)
}

func TestConvert_ResolvesStoredReferences(t *testing.T) {
	known := emptyKnown()
	known.Users["lead"] = "u-lead"
	known.Projects["Legacy"] = "p-legacy"

	schema := &ImportSchema{Tasks: []TaskImport{{
		Project:   "Legacy",
		Type:      "Bug",
		Name:      "crash",
		IssueDate: "2024-03-01",
		Manager:   "lead",
		Periods:   []PeriodImport{{Type: "test", Start: "2024-03-02", End: "2024-03-04", Tester: "lead"}},
		Reviews:   []ReviewImport{{Reviewer: "lead", Date: "2024-03-05"}},
	}}}

	plan, err := Convert(schema, known)
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 1)
	task := plan.Tasks[0]
	assert.Equal(t, "p-legacy", task.ProjectID)
	assert.Equal(t, domain.TaskTypeBug, task.Type)
	assert.Equal(t, "u-lead", task.ManagerID)
	assert.Equal(t, "u-lead", task.Periods[0].TesterID)
	assert.Equal(t, "u-lead", task.Reviews[0].ReviewerID)
	assert.Empty(t, task.AssigneeID)
}

func TestConvert_UnresolvedReferenceFails(t *testing.T) {
	schema := &ImportSchema{Tasks: []TaskImport{{Project: "Ghost", Name: "n", IssueDate: "2024-01-01"}}}
	_, err := Convert(schema, emptyKnown())
	assert.Error(t, err)
}
