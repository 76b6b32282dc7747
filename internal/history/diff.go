// Package history turns task mutations into field-level audit entries.
//
// Field names:
//
//	name, type, issue_url, issue_date, assignee_id, manager_id
//	extra.<key>
//	periods[<id>]                  period added or removed
//	periods[<id>].type|start|end|tester_id
//	periods.order                  same periods, new order
//	reviews[<id>]                  review added or removed
//	reviews[<id>].reviewer_id|review_date
//	reviews.order
//
// An absent value is recorded as "".
package history

import (
	"sort"
	"strings"
	"time"

	"github.com/Kitrop/workflow/internal/domain"
)

// FieldDiff is one changed field.
type FieldDiff struct {
	Field string
	Old   string
	New   string
}

// Diff compares two snapshots of the same task in a fixed field order.
// Identical snapshots yield nil. ProjectID is not compared; it cannot change.
func Diff(before, after *domain.Task) []FieldDiff {
	var d differ
	d.add("name", before.Name, after.Name)
	d.add("type", before.Type, after.Type)
	d.add("issue_url", before.IssueURL, after.IssueURL)
	d.add("issue_date", formatDate(before.IssueDate), formatDate(after.IssueDate))
	d.add("assignee_id", before.AssigneeID, after.AssigneeID)
	d.add("manager_id", before.ManagerID, after.ManagerID)
	d.extra(before.Extra, after.Extra)
	d.periods(before.Periods, after.Periods)
	d.reviews(before.Reviews, after.Reviews)
	return d.out
}

type differ struct {
	out []FieldDiff
}

func (d *differ) add(field, prev, cur string) {
	if prev != cur {
		d.out = append(d.out, FieldDiff{Field: field, Old: prev, New: cur})
	}
}

func (d *differ) extra(before, after domain.ExtraFields) {
	for _, k := range unionKeys(before.Keys(), after.Keys()) {
		prev, hadOld := before[k]
		cur, hasNew := after[k]
		if hadOld && hasNew && prev.Equal(cur) {
			continue
		}
		d.add("extra."+k, serializeValue(prev, hadOld), serializeValue(cur, hasNew))
	}
}

func (d *differ) periods(before, after []domain.Period) {
	oldByID := make(map[string]domain.Period, len(before))
	oldOrder := make([]string, 0, len(before))
	for _, p := range before {
		oldByID[p.ID] = p
		oldOrder = append(oldOrder, p.ID)
	}
	newByID := make(map[string]domain.Period, len(after))
	newOrder := make([]string, 0, len(after))
	for _, p := range after {
		newByID[p.ID] = p
		newOrder = append(newOrder, p.ID)
	}

	for _, id := range unionKeys(sortedCopy(oldOrder), sortedCopy(newOrder)) {
		prev, hadOld := oldByID[id]
		cur, hasNew := newByID[id]
		key := "periods[" + id + "]"
		switch {
		case !hadOld:
			d.add(key, "", serializePeriod(cur))
		case !hasNew:
			d.add(key, serializePeriod(prev), "")
		default:
			d.add(key+".type", string(prev.Type), string(cur.Type))
			d.add(key+".start", formatDate(prev.Start), formatDate(cur.Start))
			d.add(key+".end", formatDate(prev.End), formatDate(cur.End))
			d.add(key+".tester_id", prev.TesterID, cur.TesterID)
		}
	}
	d.order("periods.order", oldOrder, newOrder)
}

func (d *differ) reviews(before, after []domain.Review) {
	oldByID := make(map[string]domain.Review, len(before))
	oldOrder := make([]string, 0, len(before))
	for _, r := range before {
		oldByID[r.ID] = r
		oldOrder = append(oldOrder, r.ID)
	}
	newByID := make(map[string]domain.Review, len(after))
	newOrder := make([]string, 0, len(after))
	for _, r := range after {
		newByID[r.ID] = r
		newOrder = append(newOrder, r.ID)
	}

	for _, id := range unionKeys(sortedCopy(oldOrder), sortedCopy(newOrder)) {
		prev, hadOld := oldByID[id]
		cur, hasNew := newByID[id]
		key := "reviews[" + id + "]"
		switch {
		case !hadOld:
			d.add(key, "", serializeReview(cur))
		case !hasNew:
			d.add(key, serializeReview(prev), "")
		default:
			d.add(key+".reviewer_id", prev.ReviewerID, cur.ReviewerID)
			d.add(key+".review_date", formatDate(prev.ReviewDate), formatDate(cur.ReviewDate))
		}
	}
	d.order("reviews.order", oldOrder, newOrder)
}

// order records a reordering of the entries present on both sides.
func (d *differ) order(field string, oldOrder, newOrder []string) {
	d.add(field, strings.Join(keep(oldOrder, newOrder), ","), strings.Join(keep(newOrder, oldOrder), ","))
}

// keep returns the ids of xs that also appear in ys, in xs order.
func keep(xs, ys []string) []string {
	in := make(map[string]bool, len(ys))
	for _, y := range ys {
		in[y] = true
	}
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if in[x] {
			out = append(out, x)
		}
	}
	return out
}

func serializeValue(v domain.Value, present bool) string {
	if !present {
		return ""
	}
	return v.Serialize()
}

func serializePeriod(p domain.Period) string {
	s := string(p.Type) + ":" + formatDate(p.Start) + ".." + formatDate(p.End)
	if p.TesterID != "" {
		s += ":" + p.TesterID
	}
	return s
}

func serializeReview(r domain.Review) string {
	return r.ReviewerID + "@" + formatDate(r.ReviewDate)
}

func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

func sortedCopy(xs []string) []string {
	out := append([]string(nil), xs...)
	sort.Strings(out)
	return out
}

// unionKeys merges two sorted key lists without duplicates.
func unionKeys(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j >= len(b) || (i < len(a) && a[i] < b[j]):
			out = append(out, a[i])
			i++
		case i >= len(a) || b[j] < a[i]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}
