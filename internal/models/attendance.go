package models

import (
	"time"

	"timetrack-web/pkg/calendar"
)

type WorkMode string

const (
	WorkModeOffice WorkMode = "office"
	WorkModeRemote WorkMode = "remote"
)

// Label returns the dashboard label; an absent mode counts as office.
func (m WorkMode) Label() string {
	if m == WorkModeRemote {
		return "在宅"
	}
	return "出社"
}

// Toggled returns the mode a toggle switches to: remote goes back to office,
// anything else (office or unset) goes to remote.
func (m WorkMode) Toggled() WorkMode {
	if m == WorkModeRemote {
		return WorkModeOffice
	}
	return WorkModeRemote
}

// AttendanceRecord is one employee's attendance for one calendar day, as
// returned by the attendance backend.
type AttendanceRecord struct {
	ID           int64         `json:"id"`
	Date         calendar.Date `json:"date"`
	ClockIn      *time.Time    `json:"clock_in"`
	ClockOut     *time.Time    `json:"clock_out"`
	BreakStart   *time.Time    `json:"break_start"`
	BreakEnd     *time.Time    `json:"break_end"`
	OutStart     *time.Time    `json:"out_start"`
	OutEnd       *time.Time    `json:"out_end"`
	BreakMinutes *int          `json:"break_time"`
	Note         *string       `json:"note"`
	WorkMode     *WorkMode     `json:"work_mode"`
}

// Mode returns the record's work mode, office when absent.
func (a *AttendanceRecord) Mode() WorkMode {
	if a == nil || a.WorkMode == nil || *a.WorkMode == "" {
		return WorkModeOffice
	}
	return *a.WorkMode
}

func (a *AttendanceRecord) HasClockedIn() bool {
	return a != nil && a.ClockIn != nil
}

func (a *AttendanceRecord) HasClockedOut() bool {
	return a != nil && a.ClockOut != nil
}

// OnBreak reports an open break: started and not yet ended.
func (a *AttendanceRecord) OnBreak() bool {
	return a != nil && a.BreakStart != nil && a.BreakEnd == nil
}

// IsOut reports an open step-out: started and not yet returned.
func (a *AttendanceRecord) IsOut() bool {
	return a != nil && a.OutStart != nil && a.OutEnd == nil
}

// BreakUsed reports that today's single break cycle has been completed.
func (a *AttendanceRecord) BreakUsed() bool {
	return a != nil && a.BreakEnd != nil
}

// OutUsed reports that today's single out cycle has been completed.
func (a *AttendanceRecord) OutUsed() bool {
	return a != nil && a.OutEnd != nil
}

// AttendanceList is the envelope of GET /api/v1/attendance/me.
type AttendanceList struct {
	Data []AttendanceRecord `json:"data"`
}
