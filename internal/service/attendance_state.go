package service

import (
	"time"

	"timetrack-web/internal/models"
	"timetrack-web/pkg/calendar"
)

// AttendanceState is what the dashboard needs to know about today.
type AttendanceState struct {
	Today     *models.AttendanceRecord
	Status    models.Status
	Permitted models.ActionSet
}

// FindToday returns the first record whose date is now's local calendar day,
// or nil.
func FindToday(records []models.AttendanceRecord, now time.Time) *models.AttendanceRecord {
	today := calendar.LocalDateOf(now)
	for i := range records {
		if records[i].Date.Equal(today) {
			return &records[i]
		}
	}
	return nil
}

// DeriveStatus applies the status rules in order: not clocked in, clocked
// out, open break, open step-out, working.
func DeriveStatus(today *models.AttendanceRecord) models.Status {
	switch {
	case !today.HasClockedIn():
		return models.StatusNotStarted
	case today.HasClockedOut():
		return models.StatusFinished
	case today.OnBreak():
		return models.StatusOnBreak
	case today.IsOut():
		return models.StatusOut
	default:
		return models.StatusWorking
	}
}

// PermittedActions computes the next valid actions. Break and step-out are
// single-use per day: once ended they are never offered again that day.
func PermittedActions(today *models.AttendanceRecord) models.ActionSet {
	set := models.NewActionSet(models.ActionToggleWorkMode)

	if !today.HasClockedIn() {
		set[models.ActionClockIn] = struct{}{}
		return set
	}
	if today.HasClockedOut() {
		return set
	}

	onBreak, out := today.OnBreak(), today.IsOut()
	idle := !onBreak && !out

	if idle && !today.BreakUsed() {
		set[models.ActionBreakStart] = struct{}{}
	}
	if onBreak {
		set[models.ActionBreakEnd] = struct{}{}
	}
	if idle && !today.OutUsed() {
		set[models.ActionStepOut] = struct{}{}
	}
	if out {
		set[models.ActionReturn] = struct{}{}
	}
	if idle {
		set[models.ActionClockOut] = struct{}{}
	}

	return set
}

// DeriveState is a pure function of records and now; call it again after
// every change to records.
func DeriveState(records []models.AttendanceRecord, now time.Time) AttendanceState {
	today := FindToday(records, now)
	return AttendanceState{
		Today:     today,
		Status:    DeriveStatus(today),
		Permitted: PermittedActions(today),
	}
}
