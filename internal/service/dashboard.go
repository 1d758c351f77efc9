package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"timetrack-web/internal/logsink"
	"timetrack-web/internal/models"

	"github.com/sirupsen/logrus"
)

var (
	ErrActionNotPermitted = errors.New("action is not permitted in the current state")
	ErrBusy               = errors.New("another attendance action is in progress")
)

// AttendanceAPI is the slice of the attendance backend the dashboard uses.
type AttendanceAPI interface {
	Mine(ctx context.Context, limit int) ([]models.AttendanceRecord, error)
	Submit(ctx context.Context, action models.Action, mode models.WorkMode) (*models.AttendanceRecord, error)
}

type ActionObserver interface {
	ObserveAction(action string, err error)
}

// Dashboard holds one signed-in user's cached records between page loads.
// The cache is rebuilt by Load and patched with each action's response.
type Dashboard struct {
	api      AttendanceAPI
	sink     logsink.Recorder
	observer ActionObserver
	limit    int
	logger   *logrus.Logger
	now      func() time.Time

	mu      sync.Mutex
	records []models.AttendanceRecord
	lastErr string
	loading bool
	loaded  bool
}

type DashboardDeps struct {
	API      AttendanceAPI
	Sink     logsink.Recorder
	Observer ActionObserver
	Limit    int
	Logger   *logrus.Logger
}

func NewDashboard(deps DashboardDeps) *Dashboard {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Dashboard{
		api:      deps.API,
		sink:     deps.Sink,
		observer: deps.Observer,
		limit:    deps.Limit,
		logger:   logger,
		now:      time.Now,
	}
}

// Load replaces the cache with the latest records. A failure keeps the
// previous cache and is surfaced through Snapshot.
func (d *Dashboard) Load(ctx context.Context) error {
	if !d.begin() {
		return ErrBusy
	}

	records, err := d.api.Mine(ctx, d.limit)

	d.mu.Lock()
	d.loading = false
	if err != nil {
		d.lastErr = err.Error()
	} else {
		d.records = records
		d.lastErr = ""
		d.loaded = true
	}
	d.mu.Unlock()

	if err != nil {
		d.logger.WithError(err).Warn("Failed to load attendance records")
		d.record(ctx, "employee_fetch_failed", map[string]any{"error": err.Error()})
	}
	return err
}

// Dispatch sends one action if the derived state permits it and merges the
// returned record into the cache.
func (d *Dashboard) Dispatch(ctx context.Context, action models.Action) error {
	d.mu.Lock()
	needsLoad := !d.loaded
	d.mu.Unlock()
	if needsLoad {
		if err := d.Load(ctx); err != nil {
			return err
		}
	}

	d.mu.Lock()
	if d.loading {
		d.mu.Unlock()
		return ErrBusy
	}
	state := DeriveState(d.records, d.now())
	if !state.Permitted.Has(action) {
		d.mu.Unlock()
		return ErrActionNotPermitted
	}
	mode := state.Today.Mode().Toggled()
	d.loading = true
	d.mu.Unlock()

	updated, err := d.api.Submit(ctx, action, mode)
	if d.observer != nil {
		d.observer.ObserveAction(string(action), err)
	}

	d.mu.Lock()
	d.loading = false
	if err != nil {
		d.lastErr = err.Error()
	} else {
		d.records = mergeRecord(d.records, *updated)
		d.lastErr = ""
	}
	d.mu.Unlock()

	if err != nil {
		d.logger.WithError(err).WithField("action", action).Warn("Attendance action failed")
		event, fields := failureEvent(action, err)
		d.record(ctx, event, fields)
		return err
	}

	d.logger.WithFields(logrus.Fields{
		"action": action,
		"date":   updated.Date.String(),
	}).Info("Attendance action applied")
	return nil
}

// Snapshot is a consistent read of the dashboard for rendering.
type Snapshot struct {
	Records []models.AttendanceRecord
	State   AttendanceState
	Error   string
	Loading bool
}

func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	records := make([]models.AttendanceRecord, len(d.records))
	copy(records, d.records)
	return Snapshot{
		Records: records,
		State:   DeriveState(records, d.now()),
		Error:   d.lastErr,
		Loading: d.loading,
	}
}

func (d *Dashboard) begin() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loading {
		return false
	}
	d.loading = true
	return true
}

func (d *Dashboard) record(ctx context.Context, message string, fields map[string]any) {
	if d.sink == nil {
		return
	}
	ev := logsink.Event{Level: logsink.LevelError, Message: message, Context: fields}
	if err := d.sink.Record(ctx, ev); err != nil {
		d.logger.WithError(err).Debug("Failed to record diagnostic event")
	}
}

// failureEvent names the diagnostic event the same way per action family.
func failureEvent(action models.Action, err error) (string, map[string]any) {
	switch action {
	case models.ActionClockIn:
		return "employee_clock_failed", map[string]any{"action": "in", "error": err.Error()}
	case models.ActionClockOut:
		return "employee_clock_failed", map[string]any{"action": "out", "error": err.Error()}
	case models.ActionToggleWorkMode:
		return "employee_workmode_failed", map[string]any{"error": err.Error()}
	default:
		return "employee_action_failed", map[string]any{"action": string(action), "error": err.Error()}
	}
}

// mergeRecord replaces the record for updated's local day, or prepends it.
func mergeRecord(records []models.AttendanceRecord, updated models.AttendanceRecord) []models.AttendanceRecord {
	next := make([]models.AttendanceRecord, 0, len(records)+1)
	for i := range records {
		if records[i].Date.Equal(updated.Date) {
			next = append(next, records...)
			next[i] = updated
			return next
		}
	}
	next = append(next, updated)
	return append(next, records...)
}

