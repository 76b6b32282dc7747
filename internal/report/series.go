package report

import "sort"

// Point is one group of a series. Key is the stable group identity (a user,
// project or type id); Label is what renderers show.
type Point struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series is ordered by value desc, then label asc, then key asc.
type Series []Point

type group struct {
	key   string
	label string
	sum   float64
	n     int
}

// accumulator collects groups in insertion order. Groups only exist once a
// record has been added, so empty groups never reach the output.
type accumulator struct {
	groups map[string]*group
}

func newAccumulator() *accumulator {
	return &accumulator{groups: make(map[string]*group)}
}

func (a *accumulator) add(key, label string, v float64) {
	g, ok := a.groups[key]
	if !ok {
		g = &group{key: key, label: label}
		a.groups[key] = g
	}
	g.sum += v
	g.n++
}

func (a *accumulator) sums() Series {
	out := make(Series, 0, len(a.groups))
	for _, g := range a.groups {
		out = append(out, Point{Key: g.key, Label: g.label, Value: g.sum})
	}
	sortSeries(out)
	return out
}

func (a *accumulator) means() Series {
	out := make(Series, 0, len(a.groups))
	for _, g := range a.groups {
		out = append(out, Point{Key: g.key, Label: g.label, Value: g.sum / float64(g.n)})
	}
	sortSeries(out)
	return out
}

func sortSeries(s Series) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Value != s[j].Value {
			return s[i].Value > s[j].Value
		}
		if s[i].Label != s[j].Label {
			return s[i].Label < s[j].Label
		}
		return s[i].Key < s[j].Key
	})
}
