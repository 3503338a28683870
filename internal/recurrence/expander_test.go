package recurrence

import (
	"testing"
	"time"

	"github.com/Freeeeeet/artist_scheduler/internal/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clock(t *testing.T, s string) interval.Clock {
	t.Helper()
	c, err := interval.ParseClock(s)
	require.NoError(t, err)
	return c
}

func ptr[T any](v T) *T { return &v }

func TestExpand_Weekly(t *testing.T) {
	p := Pattern{
		Rule:      Weekly{DayOfWeek: time.Friday},
		Start:     clock(t, "18:00"),
		End:       clock(t, "23:00"),
		ValidFrom: date(2025, time.May, 1),
	}

	occ, err := Collect(p, date(2025, time.June, 1), date(2025, time.June, 30))
	require.NoError(t, err)

	require.Len(t, occ, 4)
	assert.Equal(t, date(2025, time.June, 6), occ[0].Date)
	assert.Equal(t, date(2025, time.June, 27), occ[3].Date)
	for _, o := range occ {
		assert.Equal(t, time.Friday, o.Date.Weekday())
		assert.Equal(t, 18, o.Interval.Start.Hour())
		assert.Equal(t, 23, o.Interval.End.Hour())
		assert.True(t, o.Interval.End.After(o.Interval.Start))
	}
}

func TestExpand_ClipsToValidityWindow(t *testing.T) {
	p := Pattern{
		Rule:       Daily{},
		Start:      clock(t, "10:00"),
		End:        clock(t, "12:00"),
		ValidFrom:  date(2025, time.June, 10),
		ValidUntil: ptr(date(2025, time.June, 12)),
	}

	occ, err := Collect(p, date(2025, time.June, 1), date(2025, time.June, 30))
	require.NoError(t, err)
	require.Len(t, occ, 3)
	assert.Equal(t, date(2025, time.June, 10), occ[0].Date)
	assert.Equal(t, date(2025, time.June, 12), occ[2].Date)
}

func TestExpand_DisjointWindowIsEmpty(t *testing.T) {
	p := Pattern{
		Rule:       Daily{},
		Start:      clock(t, "10:00"),
		End:        clock(t, "12:00"),
		ValidFrom:  date(2025, time.January, 1),
		ValidUntil: ptr(date(2025, time.February, 1)),
	}

	occ, err := Collect(p, date(2025, time.June, 1), date(2025, time.June, 30))
	require.NoError(t, err)
	assert.Empty(t, occ)
}

func TestExpand_MonthlySkipsMissingDay(t *testing.T) {
	p := Pattern{
		Rule:      Monthly{DayOfMonth: 31},
		Start:     clock(t, "20:00"),
		End:       clock(t, "22:00"),
		ValidFrom: date(2025, time.January, 1),
	}

	occ, err := Collect(p, date(2025, time.January, 1), date(2025, time.June, 30))
	require.NoError(t, err)

	var got []time.Time
	for _, o := range occ {
		got = append(got, o.Date)
	}
	assert.Equal(t, []time.Time{
		date(2025, time.January, 31),
		date(2025, time.March, 31),
		date(2025, time.May, 31),
	}, got)
}

func TestExpand_MonthlyNth(t *testing.T) {
	p := Pattern{
		Rule:      MonthlyNth{WeekOfMonth: 2, DayOfWeek: time.Saturday},
		Start:     clock(t, "19:00"),
		End:       clock(t, "21:00"),
		ValidFrom: date(2025, time.January, 1),
	}
	occ, err := Collect(p, date(2025, time.June, 1), date(2025, time.July, 31))
	require.NoError(t, err)
	require.Len(t, occ, 2)
	assert.Equal(t, date(2025, time.June, 14), occ[0].Date)
	assert.Equal(t, date(2025, time.July, 12), occ[1].Date)

	last := Pattern{
		Rule:      MonthlyNth{WeekOfMonth: -1, DayOfWeek: time.Friday},
		Start:     clock(t, "19:00"),
		End:       clock(t, "21:00"),
		ValidFrom: date(2025, time.January, 1),
	}
	occ, err = Collect(last, date(2025, time.June, 1), date(2025, time.June, 30))
	require.NoError(t, err)
	require.Len(t, occ, 1)
	assert.Equal(t, date(2025, time.June, 27), occ[0].Date)

	fifth := Pattern{
		Rule:      MonthlyNth{WeekOfMonth: 5, DayOfWeek: time.Monday},
		Start:     clock(t, "19:00"),
		End:       clock(t, "21:00"),
		ValidFrom: date(2025, time.January, 1),
	}
	occ, err = Collect(fifth, date(2025, time.June, 1), date(2025, time.June, 30))
	require.NoError(t, err)
	assert.Len(t, occ, 1) // 30 June 2025

	occ, err = Collect(fifth, date(2025, time.July, 1), date(2025, time.July, 31))
	require.NoError(t, err)
	assert.Empty(t, occ)
}

func TestExpand_Offsets(t *testing.T) {
	p := Pattern{
		Rule:      Offsets{Days: []int{10, 0, 3, 3, 45}},
		Start:     clock(t, "12:00"),
		End:       clock(t, "13:00"),
		ValidFrom: date(2025, time.June, 1),
	}
	occ, err := Collect(p, date(2025, time.June, 2), date(2025, time.June, 30))
	require.NoError(t, err)
	require.Len(t, occ, 2)
	assert.Equal(t, date(2025, time.June, 4), occ[0].Date)
	assert.Equal(t, date(2025, time.June, 11), occ[1].Date)
}

func TestExpand_IsRestartable(t *testing.T) {
	p := Pattern{
		Rule:      Weekly{DayOfWeek: time.Monday},
		Start:     clock(t, "09:00"),
		End:       clock(t, "10:00"),
		ValidFrom: date(2025, time.June, 1),
	}
	seq, err := Expand(p, date(2025, time.June, 1), date(2025, time.June, 30))
	require.NoError(t, err)

	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	assert.Equal(t, count(), count())

	// early stop
	for o := range seq {
		assert.Equal(t, date(2025, time.June, 2), o.Date)
		break
	}
}

func TestPattern_Validate(t *testing.T) {
	base := Pattern{
		Rule:      Daily{},
		Start:     clock(t, "10:00"),
		End:       clock(t, "12:00"),
		ValidFrom: date(2025, time.June, 1),
	}

	tests := []struct {
		name   string
		mutate func(p *Pattern)
		want   error
	}{
		{"end before start", func(p *Pattern) { p.End = clock(t, "09:00") }, interval.ErrInvalidInterval},
		{"until before from", func(p *Pattern) { p.ValidUntil = ptr(date(2025, time.May, 1)) }, ErrInvalidWindow},
		{"bad weekday", func(p *Pattern) { p.Rule = Weekly{DayOfWeek: 9} }, ErrInvalidRule},
		{"bad day of month", func(p *Pattern) { p.Rule = Monthly{DayOfMonth: 32} }, ErrInvalidRule},
		{"bad week of month", func(p *Pattern) { p.Rule = MonthlyNth{WeekOfMonth: 6} }, ErrInvalidRule},
		{"empty offsets", func(p *Pattern) { p.Rule = Offsets{} }, ErrInvalidRule},
		{"nil rule", func(p *Pattern) { p.Rule = nil }, ErrInvalidRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), tt.want)
		})
	}

	require.NoError(t, base.Validate())
}

func TestExpand_OccurrencesStayInsideWindow(t *testing.T) {
	rules := []Rule{
		Daily{},
		Weekly{DayOfWeek: time.Wednesday},
		Monthly{DayOfMonth: 15},
		MonthlyNth{WeekOfMonth: 1, DayOfWeek: time.Sunday},
		Offsets{Days: []int{1, 20, 40, 90}},
	}
	validFrom := date(2025, time.March, 10)
	validUntil := date(2025, time.May, 20)

	for _, rule := range rules {
		p := Pattern{
			Rule:       rule,
			Start:      clock(t, "08:00"),
			End:        clock(t, "09:30"),
			ValidFrom:  validFrom,
			ValidUntil: &validUntil,
		}
		from, to := date(2025, time.April, 1), date(2025, time.June, 30)
		occ, err := Collect(p, from, to)
		require.NoError(t, err)
		for _, o := range occ {
			assert.False(t, o.Date.Before(from), "%T %s", rule, o.Date)
			assert.False(t, o.Date.Before(validFrom))
			assert.False(t, o.Date.After(validUntil))
			assert.True(t, o.Interval.Start.Before(o.Interval.End))
			switch r := rule.(type) {
			case Weekly:
				assert.Equal(t, r.DayOfWeek, o.Date.Weekday())
			case Monthly:
				assert.Equal(t, r.DayOfMonth, o.Date.Day())
			case MonthlyNth:
				assert.Equal(t, r.DayOfWeek, o.Date.Weekday())
				assert.LessOrEqual(t, o.Date.Day(), 7)
			}
		}
	}
}
