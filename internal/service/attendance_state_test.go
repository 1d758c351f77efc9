package service

import (
	"fmt"
	"testing"
	"time"

	"timetrack-web/internal/models"
	"timetrack-web/pkg/calendar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var morning = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.Local)

func at(hour, minute int) *time.Time {
	t := time.Date(2024, time.January, 1, hour, minute, 0, 0, time.Local)
	return &t
}

func recordOn(d calendar.Date) models.AttendanceRecord {
	return models.AttendanceRecord{ID: 1, Date: d}
}

func TestDeriveStateEmptyList(t *testing.T) {
	state := DeriveState(nil, morning)

	assert.Nil(t, state.Today)
	assert.Equal(t, models.StatusNotStarted, state.Status)
	assert.Equal(t, []models.Action{models.ActionClockIn, models.ActionToggleWorkMode}, state.Permitted.List())
}

func TestDeriveStateClockedIn(t *testing.T) {
	rec := recordOn(calendar.LocalDateOf(morning))
	rec.ClockIn = at(8, 55)

	state := DeriveState([]models.AttendanceRecord{rec}, morning)

	require.NotNil(t, state.Today)
	assert.Equal(t, models.StatusWorking, state.Status)
	assert.Equal(t, []models.Action{
		models.ActionBreakStart,
		models.ActionStepOut,
		models.ActionClockOut,
		models.ActionToggleWorkMode,
	}, state.Permitted.List())
}

func TestFindTodayMatchesLocalCalendarDay(t *testing.T) {
	// a timestamp late in the same local day still selects the record
	late := time.Date(2024, time.January, 1, 23, 30, 0, 0, time.Local)
	date, err := calendar.Parse(late.Format(time.RFC3339))
	require.NoError(t, err)

	records := []models.AttendanceRecord{
		recordOn(calendar.Date{Year: 2023, Month: time.December, Day: 31}),
		recordOn(date),
	}
	records[1].ID = 2

	today := FindToday(records, morning)
	require.NotNil(t, today)
	assert.Equal(t, int64(2), today.ID)
}

func TestFindTodayNoMatch(t *testing.T) {
	records := []models.AttendanceRecord{
		recordOn(calendar.Date{Year: 2023, Month: time.December, Day: 31}),
		recordOn(calendar.Date{Year: 2024, Month: time.January, Day: 2}),
	}
	assert.Nil(t, FindToday(records, morning))
}

func TestFindTodayFirstMatchWins(t *testing.T) {
	d := calendar.LocalDateOf(morning)
	first, second := recordOn(d), recordOn(d)
	first.ID, second.ID = 10, 20

	today := FindToday([]models.AttendanceRecord{first, second}, morning)
	require.NotNil(t, today)
	assert.Equal(t, int64(10), today.ID)
}

func TestFindTodayPointsIntoSlice(t *testing.T) {
	records := []models.AttendanceRecord{recordOn(calendar.LocalDateOf(morning))}
	today := FindToday(records, morning)
	require.NotNil(t, today)
	assert.Same(t, &records[0], today)
}

// presence flags for the six nullable timestamps
type presence struct {
	clockIn, clockOut, breakStart, breakEnd, outStart, outEnd bool
}

func (p presence) valid() bool {
	return (!p.clockOut || p.clockIn) &&
		(!p.breakEnd || p.breakStart) &&
		(!p.outEnd || p.outStart)
}

func (p presence) record() *models.AttendanceRecord {
	rec := recordOn(calendar.LocalDateOf(morning))
	if p.clockIn {
		rec.ClockIn = at(9, 0)
	}
	if p.breakStart {
		rec.BreakStart = at(12, 0)
	}
	if p.breakEnd {
		rec.BreakEnd = at(13, 0)
	}
	if p.outStart {
		rec.OutStart = at(14, 0)
	}
	if p.outEnd {
		rec.OutEnd = at(15, 0)
	}
	if p.clockOut {
		rec.ClockOut = at(18, 0)
	}
	return &rec
}

func allPresences() []presence {
	var out []presence
	for mask := 0; mask < 64; mask++ {
		p := presence{
			clockIn:    mask&1 != 0,
			clockOut:   mask&2 != 0,
			breakStart: mask&4 != 0,
			breakEnd:   mask&8 != 0,
			outStart:   mask&16 != 0,
			outEnd:     mask&32 != 0,
		}
		if p.valid() {
			out = append(out, p)
		}
	}
	return out
}

func TestDeriveStatusTotalOverValidCombinations(t *testing.T) {
	combos := allPresences()
	require.Len(t, combos, 27)

	for _, p := range combos {
		t.Run(fmt.Sprintf("%+v", p), func(t *testing.T) {
			var want models.Status
			switch {
			case !p.clockIn:
				want = models.StatusNotStarted
			case p.clockOut:
				want = models.StatusFinished
			case p.breakStart && !p.breakEnd:
				want = models.StatusOnBreak
			case p.outStart && !p.outEnd:
				want = models.StatusOut
			default:
				want = models.StatusWorking
			}
			assert.Equal(t, want, DeriveStatus(p.record()))
		})
	}
}

func TestPermittedActionsOverValidCombinations(t *testing.T) {
	for _, p := range allPresences() {
		t.Run(fmt.Sprintf("%+v", p), func(t *testing.T) {
			set := PermittedActions(p.record())
			onBreak := p.breakStart && !p.breakEnd
			out := p.outStart && !p.outEnd
			open := p.clockIn && !p.clockOut

			assert.True(t, set.Has(models.ActionToggleWorkMode))
			assert.Equal(t, !p.clockIn, set.Has(models.ActionClockIn))
			assert.Equal(t, open && !onBreak && !out && !p.breakEnd, set.Has(models.ActionBreakStart))
			assert.Equal(t, open && onBreak, set.Has(models.ActionBreakEnd))
			assert.Equal(t, open && !onBreak && !out && !p.outEnd, set.Has(models.ActionStepOut))
			assert.Equal(t, open && out, set.Has(models.ActionReturn))
			assert.Equal(t, open && !onBreak && !out, set.Has(models.ActionClockOut))
		})
	}
}

func TestBreakAndStepOutAreSingleUse(t *testing.T) {
	rec := presence{clockIn: true, breakStart: true, breakEnd: true, outStart: true, outEnd: true}.record()

	set := PermittedActions(rec)
	assert.Equal(t, models.StatusWorking, DeriveStatus(rec))
	assert.False(t, set.Has(models.ActionBreakStart))
	assert.False(t, set.Has(models.ActionStepOut))
	assert.True(t, set.Has(models.ActionClockOut))
}

func TestClockOutBlockedByOpenIntervals(t *testing.T) {
	onBreak := presence{clockIn: true, breakStart: true}.record()
	out := presence{clockIn: true, outStart: true}.record()

	assert.False(t, PermittedActions(onBreak).Has(models.ActionClockOut))
	assert.False(t, PermittedActions(out).Has(models.ActionClockOut))
	assert.False(t, PermittedActions(onBreak).Has(models.ActionStepOut))
	assert.False(t, PermittedActions(out).Has(models.ActionBreakStart))
}

func TestFinishedDayOnlyToggles(t *testing.T) {
	rec := presence{clockIn: true, clockOut: true}.record()
	assert.Equal(t, []models.Action{models.ActionToggleWorkMode}, PermittedActions(rec).List())
}
