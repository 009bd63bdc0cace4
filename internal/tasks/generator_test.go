package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d, m, y int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dueDates(occ []Occurrence) []string {
	out := make([]string, len(occ))
	for i, o := range occ {
		out[i] = o.DueDate()
	}
	return out
}

func req(start time.Time, f Frequency) Request {
	return Request{Start: start, Frequency: f, Doer: "ravi", Title: "Check furnace"}
}

func TestGenerateSkipsNonWorkingDays(t *testing.T) {
	cal := NewCalendar(day(1, 6, 2024), day(3, 6, 2024), day(5, 6, 2024))

	occ, err := Generate(req(day(1, 6, 2024), Daily), cal, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"01/06/2024", "03/06/2024", "05/06/2024"}, dueDates(occ))
}

func TestGenerateDeterministicAndUnique(t *testing.T) {
	var days []time.Time
	for d := day(1, 1, 2024); d.Before(day(1, 1, 2027)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Sunday {
			days = append(days, d)
		}
	}
	cal := NewCalendar(days...)

	for _, f := range []Frequency{Daily, Weekly, Fortnightly, Monthly, Quarterly, Yearly, EndOf2ndWeek} {
		t.Run(string(f), func(t *testing.T) {
			r := req(day(7, 1, 2024), f) // a Sunday
			first, err := Generate(r, cal, Options{})
			require.NoError(t, err)
			second, err := Generate(r, cal, Options{})
			require.NoError(t, err)
			assert.Equal(t, dueDates(first), dueDates(second))
			require.NotEmpty(t, first)

			seen := map[string]bool{}
			for _, o := range first {
				assert.True(t, cal.Has(o.Due), "%s not a working day", o.DueDate())
				assert.False(t, seen[o.DueDate()], "duplicate %s", o.DueDate())
				seen[o.DueDate()] = true
				assert.NotEqual(t, time.Sunday, o.Due.Weekday())
			}
			assert.Equal(t, "08/01/2024", first[0].DueDate())
		})
	}
}

func TestGenerateHorizon(t *testing.T) {
	occ, err := Generate(req(day(15, 3, 2024), Yearly), nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"15/03/2024", "15/03/2025", "15/03/2026"}, dueDates(occ))

	occ, err = Generate(req(day(15, 3, 2024), Quarterly), nil, Options{HorizonYears: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"15/03/2024", "15/06/2024", "15/09/2024", "15/12/2024", "15/03/2025"}, dueDates(occ))

	occ, err = Generate(req(day(1, 1, 2024), Weekly), nil, Options{})
	require.NoError(t, err)
	assert.Len(t, occ, 105)
}

func TestGenerateEmptyCalendar(t *testing.T) {
	occ, err := Generate(req(day(1, 6, 2024), Fortnightly), Calendar{}, Options{HorizonYears: 1})
	require.NoError(t, err)
	assert.Equal(t, "01/06/2024", occ[0].DueDate())
	assert.Equal(t, "15/06/2024", occ[1].DueDate())

	_, err = Generate(req(day(1, 6, 2024), Fortnightly), Calendar{}, Options{StrictCalendar: true})
	assert.ErrorIs(t, err, ErrEmptyCalendar)
}

func TestGenerateOneTime(t *testing.T) {
	cal := NewCalendar(day(4, 6, 2024), day(10, 6, 2024))
	occ, err := Generate(req(day(1, 6, 2024), OneTime), cal, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"04/06/2024"}, dueDates(occ))

	occ, err = Generate(req(day(11, 6, 2024), OneTime), cal, Options{})
	require.NoError(t, err)
	assert.Empty(t, occ)
}

func TestGenerateAttemptBound(t *testing.T) {
	cal := NewCalendar(day(1, 1, 2024), day(1, 1, 2025))
	occ, err := Generate(req(day(1, 1, 2024), Monthly), cal, Options{HorizonYears: 1})
	require.NoError(t, err)
	// Months with no working day within 100 days produce nothing.
	assert.Equal(t, []string{"01/01/2024", "01/01/2025"}, dueDates(occ))
}

func TestGenerateValidation(t *testing.T) {
	_, err := Generate(Request{}, nil, Options{})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"date", "doer", "title", "frequency"}, ve.Missing)

	_, err = Generate(Request{Start: day(1, 1, 2024), Frequency: Daily, Doer: "  ", Title: "x"}, nil, Options{})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"doer"}, ve.Missing)
}

func TestParseFrequency(t *testing.T) {
	tests := map[string]Frequency{
		"One Time":         OneTime,
		"daily":            Daily,
		"Weekly":           Weekly,
		"fortnightly":      Fortnightly,
		"MONTHLY":          Monthly,
		"quarterly":        Quarterly,
		"Yearly":           Yearly,
		"end of last week": EndOfLastWeek,
		"end_of_1st_week":  EndOf1stWeek,
	}
	for in, want := range tests {
		got, ok := ParseFrequency(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseFrequency("hourly")
	assert.False(t, ok)
	assert.False(t, OneTime.Recurring())
	assert.True(t, EndOf3rdWeek.Recurring())
}

func TestNextTaskID(t *testing.T) {
	assert.Equal(t, 1, NextTaskID(nil))
	assert.Equal(t, 8, NextTaskID([]int{3, 7, 1}))
}
