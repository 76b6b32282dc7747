package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func validTask() *Task {
	return &Task{
		ProjectID: "p1",
		Type:      TaskTypeDevelopment,
		Name:      "Implement login",
		IssueDate: day("2024-01-02"),
	}
}

func TestTaskValidate_Valid(t *testing.T) {
	task := validTask()
	task.Periods = []Period{
		{ID: "a", Type: PeriodWork, Start: day("2024-01-01"), End: day("2024-01-05")},
		{ID: "b", Type: PeriodTest, Start: day("2024-01-03"), End: day("2024-01-03"), TesterID: "u2"},
	}
	task.Reviews = []Review{{ID: "r", ReviewerID: "u3", ReviewDate: day("2024-01-06")}}
	assert.NoError(t, task.Validate())
}

func TestTaskValidate_MissingFields(t *testing.T) {
	cases := map[string]func(*Task){
		"name":       func(t *Task) { t.Name = "" },
		"project":    func(t *Task) { t.ProjectID = "" },
		"type":       func(t *Task) { t.Type = "" },
		"issue date": func(t *Task) { t.IssueDate = time.Time{} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			task := validTask()
			mutate(task)
			assert.ErrorIs(t, task.Validate(), ErrValidation)
		})
	}
}

func TestPeriodValidate_EndBeforeStart(t *testing.T) {
	p := Period{Type: PeriodWork, Start: day("2024-01-10"), End: day("2024-01-09")}
	err := p.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestPeriodValidate_Rules(t *testing.T) {
	assert.ErrorIs(t, (&Period{Type: "deploy", Start: day("2024-01-01"), End: day("2024-01-01")}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&Period{Type: PeriodWork, Start: day("2024-01-01")}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&Period{Type: PeriodWork, Start: day("2024-01-01"), End: day("2024-01-01"), TesterID: "u"}).Validate(), ErrValidation)
}

func TestTaskValidate_DuplicatePeriodID(t *testing.T) {
	task := validTask()
	task.Periods = []Period{
		{ID: "a", Type: PeriodWork, Start: day("2024-01-01"), End: day("2024-01-02")},
		{ID: "a", Type: PeriodWork, Start: day("2024-01-03"), End: day("2024-01-04")},
	}
	assert.ErrorIs(t, task.Validate(), ErrValidation)
}

func TestTaskClone_Independent(t *testing.T) {
	task := validTask()
	task.Extra = ExtraFields{KeyStoryPoints: Number(3)}
	task.Periods = []Period{{ID: "a", Type: PeriodWork, Start: day("2024-01-01"), End: day("2024-01-02")}}

	c := task.Clone()
	c.Extra[KeyStoryPoints] = Number(5)
	c.Periods[0].End = day("2024-02-01")

	sp, _ := task.Extra.StoryPoints()
	assert.Equal(t, 3.0, sp)
	assert.Equal(t, day("2024-01-02"), task.Periods[0].End)
}

func TestExtraFields_JSON(t *testing.T) {
	var e ExtraFields
	require.NoError(t, json.Unmarshal([]byte(`{"sp": 5, "loc(+)": 10, "note": "x", "flag": true, "gone": null, "tags": ["a", "b"]}`), &e))

	assert.Equal(t, KindNumber, e["sp"].Kind)
	assert.Equal(t, KindString, e["note"].Kind)
	assert.Equal(t, KindBool, e["flag"].Kind)
	assert.Equal(t, KindNull, e["gone"].Kind)
	assert.Equal(t, KindRaw, e["tags"].Kind)
	assert.Equal(t, `["a","b"]`, e["tags"].Serialize())
	assert.Equal(t, `"x"`, e["note"].Serialize())

	out, err := json.Marshal(e)
	require.NoError(t, err)
	var back ExtraFields
	require.NoError(t, json.Unmarshal(out, &back))
	for k, v := range e {
		assert.True(t, v.Equal(back[k]), "key %s", k)
	}
}

func TestExtraFields_Metrics(t *testing.T) {
	e := ExtraFields{KeyLOCAdded: Number(10), KeyLOCRemoved: Number(4), KeyLOC: Number(99)}
	loc, ok := e.LinesOfCode()
	require.True(t, ok)
	assert.Equal(t, 14.0, loc)

	e = ExtraFields{KeyLOC: Number(7)}
	loc, ok = e.LinesOfCode()
	require.True(t, ok)
	assert.Equal(t, 7.0, loc)

	e = ExtraFields{KeyStoryPoints: String("five")}
	_, ok = e.StoryPoints()
	assert.False(t, ok, "string story points are not numeric")

	_, ok = ExtraFields(nil).LinesOfCode()
	assert.False(t, ok)
}

func TestDateWindow(t *testing.T) {
	from, to := day("2024-01-05"), day("2024-01-10")
	w := DateWindow{From: &from, To: &to}
	require.NoError(t, w.Validate())

	assert.True(t, w.Contains(day("2024-01-05")))
	assert.True(t, w.Contains(day("2024-01-10")))
	assert.False(t, w.Contains(day("2024-01-11")))

	assert.True(t, w.Overlaps(day("2024-01-01"), day("2024-01-05")))
	assert.False(t, w.Overlaps(day("2024-01-01"), day("2024-01-04")))
	assert.True(t, w.Overlaps(day("2024-01-10"), day("2024-02-01")))

	s, e := w.Clip(day("2024-01-01"), day("2024-01-20"))
	assert.Equal(t, from, s)
	assert.Equal(t, to, e)

	unbounded := DateWindow{}
	assert.True(t, unbounded.Contains(day("1999-12-31")))
	s, e = unbounded.Clip(day("2024-01-01"), day("2024-01-20"))
	assert.Equal(t, day("2024-01-01"), s)
	assert.Equal(t, day("2024-01-20"), e)
}

func TestNewDateWindow(t *testing.T) {
	_, err := NewDateWindow("2024-02-01", "2024-01-01")
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = NewDateWindow("01/02/2024", "")
	assert.ErrorIs(t, err, ErrValidation)

	w, err := NewDateWindow("", "2024-01-01")
	require.NoError(t, err)
	assert.Nil(t, w.From)
	require.NotNil(t, w.To)

	w, err = NewDateWindow("2024-03-03", "2024-03-03")
	require.NoError(t, err)
	assert.True(t, w.Contains(day("2024-03-03")))
}
