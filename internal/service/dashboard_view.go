package service

import (
	"time"

	"timetrack-web/internal/models"
)

type TimelineEntry struct {
	Label string
	Time  string
}

type ActionButton struct {
	Action models.Action
	Label  string
}

// DashboardView is everything the employee page renders.
type DashboardView struct {
	Status        models.Status
	StatusLabel   string
	ClockIn       string
	WorkModeLabel string
	Timeline      []TimelineEntry
	Actions       []ActionButton
	HasToday      bool
	Busy          bool
	Error         string
	NonWorkingDay bool
}

const timeLayout = "15:04"

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.In(time.Local).Format(timeLayout)
}

// BuildView turns a snapshot into render-ready values. Buttons come only from
// the permitted action set.
func BuildView(snap Snapshot) DashboardView {
	today := snap.State.Today
	view := DashboardView{
		Status:        snap.State.Status,
		StatusLabel:   snap.State.Status.Label(),
		ClockIn:       "-",
		WorkModeLabel: today.Mode().Label(),
		HasToday:      today != nil,
		Busy:          snap.Loading,
		Error:         snap.Error,
	}

	for _, a := range snap.State.Permitted.List() {
		label := a.Label()
		if a == models.ActionToggleWorkMode {
			label = "勤務形態: " + view.WorkModeLabel + "（切替）"
		}
		view.Actions = append(view.Actions, ActionButton{Action: a, Label: label})
	}

	if today == nil {
		return view
	}
	if today.ClockIn != nil {
		view.ClockIn = formatTime(today.ClockIn)
	}

	steps := []struct {
		label string
		at    *time.Time
	}{
		{"Clock In", today.ClockIn},
		{"Break Start", today.BreakStart},
		{"Break End", today.BreakEnd},
		{"Out", today.OutStart},
		{"Return", today.OutEnd},
		{"Clock Out", today.ClockOut},
	}
	for _, s := range steps {
		if s.at != nil {
			view.Timeline = append(view.Timeline, TimelineEntry{Label: s.label, Time: formatTime(s.at)})
		}
	}
	return view
}
