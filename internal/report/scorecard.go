package report

import (
	"context"
	"sort"

	"github.com/Kitrop/workflow/internal/domain"
	"github.com/Kitrop/workflow/internal/repository"
)

// ProjectTasks is one user's task count on one project.
type ProjectTasks struct {
	ProjectID string `json:"project_id"`
	Project   string `json:"project"`
	Tasks     int    `json:"tasks"`
}

// Normalized holds min-max normalized metrics in [0, 1].
type Normalized struct {
	Tasks float64 `json:"tasks"`
	LOC   float64 `json:"loc"`
	SPSum float64 `json:"sp_sum"`
	SPAvg float64 `json:"sp_avg"`
}

// ScoreRow is one user's line of the scorecard.
type ScoreRow struct {
	UserID       string         `json:"user_id"`
	Label        string         `json:"label"`
	Tasks        int            `json:"tasks"`
	ProjectTasks []ProjectTasks `json:"project_tasks"`
	LOC          float64        `json:"loc"`
	SPSum        float64        `json:"sp_sum"`
	SPAvg        float64        `json:"sp_avg"`
	Normalized   Normalized     `json:"normalized"`
	Aggregate    float64        `json:"aggregate"`
}

// Scorecard ranks assignees of in-window tasks. Users with neither lines of
// code nor story points are left out.
func (a *Aggregator) Scorecard(ctx context.Context, req Request) ([]ScoreRow, error) {
	if err := a.check(req); err != nil {
		return nil, err
	}
	snap, err := loadSnapshot(ctx, a.uow, req.Actor, repository.TaskFilter{})
	if err != nil {
		return nil, err
	}

	r := run{ctx: ctx, logger: a.logger, metric: "scorecard", window: req.Window, snap: snap}
	type tally struct {
		row      ScoreRow
		spCount  int
		projects map[string]int
	}
	byUser := make(map[string]*tally)
	r.eachAssigned(func(t *domain.Task) {
		u, ok := byUser[t.AssigneeID]
		if !ok {
			u = &tally{
				row:      ScoreRow{UserID: t.AssigneeID, Label: snap.userLabel(t.AssigneeID)},
				projects: make(map[string]int),
			}
			byUser[t.AssigneeID] = u
		}
		u.row.Tasks++
		u.projects[t.ProjectID]++
		if loc, ok := t.Extra.LinesOfCode(); ok {
			u.row.LOC += loc
		}
		if sp, ok := t.Extra.StoryPoints(); ok {
			u.row.SPSum += sp
			u.spCount++
		}
	})

	rows := make([]ScoreRow, 0, len(byUser))
	for _, u := range byUser {
		if u.row.LOC == 0 && u.row.SPSum == 0 {
			continue
		}
		if u.spCount > 0 {
			u.row.SPAvg = u.row.SPSum / float64(u.spCount)
		}
		for pid, n := range u.projects {
			u.row.ProjectTasks = append(u.row.ProjectTasks, ProjectTasks{ProjectID: pid, Project: snap.projectLabel(pid), Tasks: n})
		}
		sort.Slice(u.row.ProjectTasks, func(i, j int) bool {
			pi, pj := u.row.ProjectTasks[i], u.row.ProjectTasks[j]
			if pi.Tasks != pj.Tasks {
				return pi.Tasks > pj.Tasks
			}
			return pi.Project < pj.Project
		})
		rows = append(rows, u.row)
	}

	normalize(rows)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Aggregate != rows[j].Aggregate {
			return rows[i].Aggregate > rows[j].Aggregate
		}
		if rows[i].Label != rows[j].Label {
			return rows[i].Label < rows[j].Label
		}
		return rows[i].UserID < rows[j].UserID
	})
	return rows, nil
}

func normalize(rows []ScoreRow) {
	fields := []struct {
		get func(*ScoreRow) float64
		set func(*ScoreRow, float64)
	}{
		{func(r *ScoreRow) float64 { return float64(r.Tasks) }, func(r *ScoreRow, v float64) { r.Normalized.Tasks = v }},
		{func(r *ScoreRow) float64 { return r.LOC }, func(r *ScoreRow, v float64) { r.Normalized.LOC = v }},
		{func(r *ScoreRow) float64 { return r.SPSum }, func(r *ScoreRow, v float64) { r.Normalized.SPSum = v }},
		{func(r *ScoreRow) float64 { return r.SPAvg }, func(r *ScoreRow, v float64) { r.Normalized.SPAvg = v }},
	}
	for _, f := range fields {
		vals := make([]float64, len(rows))
		for i := range rows {
			vals[i] = f.get(&rows[i])
		}
		for i, v := range minMax(vals) {
			f.set(&rows[i], v)
		}
	}
	for i := range rows {
		n := rows[i].Normalized
		rows[i].Aggregate = 0.25 * (n.Tasks + n.LOC + n.SPSum + n.SPAvg)
	}
}

// minMax scales vals to [0, 1]. Equal values all map to 1.
func minMax(vals []float64) []float64 {
	out := make([]float64, len(vals))
	if len(vals) == 0 {
		return out
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	for i, v := range vals {
		if hi == lo {
			out[i] = 1
			continue
		}
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}
