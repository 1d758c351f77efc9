package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"timetrack-web/internal/logging"
	"timetrack-web/internal/logsink"
	"timetrack-web/internal/models"
	"timetrack-web/pkg/calendar"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu        sync.Mutex
	records   []models.AttendanceRecord
	mineErr   error
	submitErr error
	submitted []models.Action
	modes     []models.WorkMode
	reply     func(models.Action) models.AttendanceRecord
	block     chan struct{}
}

func (f *fakeAPI) Mine(context.Context, int) ([]models.AttendanceRecord, error) {
	if f.mineErr != nil {
		return nil, f.mineErr
	}
	return append([]models.AttendanceRecord(nil), f.records...), nil
}

func (f *fakeAPI) Submit(_ context.Context, action models.Action, mode models.WorkMode) (*models.AttendanceRecord, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.submitted = append(f.submitted, action)
	f.modes = append(f.modes, mode)
	f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	rec := f.reply(action)
	return &rec, nil
}

type memorySink struct {
	mu     sync.Mutex
	events []logsink.Event
}

func (m *memorySink) Record(_ context.Context, ev logsink.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

type countingObserver struct {
	ok, failed int
}

func (c *countingObserver) ObserveAction(_ string, err error) {
	if err != nil {
		c.failed++
		return
	}
	c.ok++
}

var dashNow = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.Local)

func todayDate() calendar.Date { return calendar.LocalDateOf(dashNow) }

func newTestDashboard(api *fakeAPI, sink *memorySink) *Dashboard {
	d := NewDashboard(DashboardDeps{API: api, Sink: sink, Limit: 20, Logger: logging.Discard()})
	d.now = func() time.Time { return dashNow }
	return d
}

func TestDashboardClockInPrependsTodaysRecord(t *testing.T) {
	yesterday := models.AttendanceRecord{ID: 1, Date: calendar.Date{Year: 2023, Month: time.December, Day: 31}}
	api := &fakeAPI{
		records: []models.AttendanceRecord{yesterday},
		reply: func(models.Action) models.AttendanceRecord {
			return models.AttendanceRecord{ID: 2, Date: todayDate(), ClockIn: &dashNow}
		},
	}
	d := newTestDashboard(api, &memorySink{})
	ctx := context.Background()

	require.NoError(t, d.Load(ctx))
	assert.Equal(t, models.StatusNotStarted, d.Snapshot().State.Status)

	require.NoError(t, d.Dispatch(ctx, models.ActionClockIn))

	snap := d.Snapshot()
	require.Len(t, snap.Records, 2)
	assert.Equal(t, int64(2), snap.Records[0].ID)
	assert.Equal(t, models.StatusWorking, snap.State.Status)
	assert.True(t, snap.State.Permitted.Has(models.ActionClockOut))
	assert.False(t, snap.Loading)
}

func TestDashboardMergeReplacesSameDay(t *testing.T) {
	clockIn := dashNow
	breakStart := dashNow.Add(3 * time.Hour)
	api := &fakeAPI{
		records: []models.AttendanceRecord{{ID: 5, Date: todayDate(), ClockIn: &clockIn}},
		reply: func(models.Action) models.AttendanceRecord {
			return models.AttendanceRecord{ID: 5, Date: todayDate(), ClockIn: &clockIn, BreakStart: &breakStart}
		},
	}
	d := newTestDashboard(api, &memorySink{})

	require.NoError(t, d.Dispatch(context.Background(), models.ActionBreakStart))

	snap := d.Snapshot()
	require.Len(t, snap.Records, 1)
	assert.Equal(t, models.StatusOnBreak, snap.State.Status)
	assert.Equal(t, []models.Action{models.ActionBreakEnd, models.ActionToggleWorkMode}, snap.State.Permitted.List())
}

func TestDashboardRejectsActionsNotPermitted(t *testing.T) {
	api := &fakeAPI{}
	d := newTestDashboard(api, &memorySink{})

	err := d.Dispatch(context.Background(), models.ActionClockOut)
	assert.ErrorIs(t, err, ErrActionNotPermitted)
	assert.Empty(t, api.submitted)
}

func TestDashboardLoadFailureIsSurfaced(t *testing.T) {
	api := &fakeAPI{mineErr: errors.New("HTTP error! status: 500")}
	sink := &memorySink{}
	d := newTestDashboard(api, sink)

	err := d.Load(context.Background())
	require.Error(t, err)

	snap := d.Snapshot()
	assert.Equal(t, "HTTP error! status: 500", snap.Error)
	assert.False(t, snap.Loading)
	require.Len(t, sink.events, 1)
	assert.Equal(t, "employee_fetch_failed", sink.events[0].Message)
	assert.Equal(t, logsink.LevelError, sink.events[0].Level)
}

func TestDashboardActionFailureKeepsState(t *testing.T) {
	clockIn := dashNow
	api := &fakeAPI{
		records:   []models.AttendanceRecord{{ID: 5, Date: todayDate(), ClockIn: &clockIn}},
		submitErr: errors.New("HTTP error! status: 409"),
	}
	sink := &memorySink{}
	obs := &countingObserver{}
	d := NewDashboard(DashboardDeps{API: api, Sink: sink, Observer: obs, Limit: 20, Logger: logging.Discard()})
	d.now = func() time.Time { return dashNow }

	ctx := context.Background()
	require.NoError(t, d.Load(ctx))
	require.Error(t, d.Dispatch(ctx, models.ActionStepOut))

	snap := d.Snapshot()
	assert.Equal(t, models.StatusWorking, snap.State.Status)
	assert.Equal(t, "HTTP error! status: 409", snap.Error)
	require.Len(t, sink.events, 1)
	assert.Equal(t, "employee_action_failed", sink.events[0].Message)
	assert.Equal(t, "step-out", sink.events[0].Context["action"])
	assert.Equal(t, 1, obs.failed)
}

func TestFailureEventNames(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		action models.Action
		event  string
	}{
		{models.ActionClockIn, "employee_clock_failed"},
		{models.ActionClockOut, "employee_clock_failed"},
		{models.ActionBreakEnd, "employee_action_failed"},
		{models.ActionReturn, "employee_action_failed"},
		{models.ActionToggleWorkMode, "employee_workmode_failed"},
	}
	for _, tt := range tests {
		event, fields := failureEvent(tt.action, boom)
		assert.Equal(t, tt.event, event, tt.action)
		assert.Equal(t, "boom", fields["error"])
	}
}

func TestDashboardToggleSendsNextMode(t *testing.T) {
	remote := models.WorkModeRemote
	api := &fakeAPI{
		records: []models.AttendanceRecord{{ID: 1, Date: todayDate(), WorkMode: &remote}},
		reply: func(models.Action) models.AttendanceRecord {
			office := models.WorkModeOffice
			return models.AttendanceRecord{ID: 1, Date: todayDate(), WorkMode: &office}
		},
	}
	d := newTestDashboard(api, &memorySink{})
	ctx := context.Background()

	require.NoError(t, d.Dispatch(ctx, models.ActionToggleWorkMode))
	require.NoError(t, d.Dispatch(ctx, models.ActionToggleWorkMode))

	assert.Equal(t, []models.WorkMode{models.WorkModeOffice, models.WorkModeRemote}, api.modes)
}

func TestDashboardToggleWithoutTodayGoesRemote(t *testing.T) {
	api := &fakeAPI{reply: func(models.Action) models.AttendanceRecord {
		remote := models.WorkModeRemote
		return models.AttendanceRecord{ID: 1, Date: todayDate(), WorkMode: &remote}
	}}
	d := newTestDashboard(api, &memorySink{})

	require.NoError(t, d.Dispatch(context.Background(), models.ActionToggleWorkMode))
	assert.Equal(t, []models.WorkMode{models.WorkModeRemote}, api.modes)
	assert.Equal(t, models.WorkModeRemote, d.Snapshot().State.Today.Mode())
}

func TestDashboardBusyWhileInFlight(t *testing.T) {
	api := &fakeAPI{
		block: make(chan struct{}),
		reply: func(models.Action) models.AttendanceRecord {
			return models.AttendanceRecord{ID: 1, Date: todayDate(), ClockIn: &dashNow}
		},
	}
	d := newTestDashboard(api, &memorySink{})
	ctx := context.Background()
	require.NoError(t, d.Load(ctx))

	done := make(chan error, 1)
	go func() { done <- d.Dispatch(ctx, models.ActionClockIn) }()

	require.Eventually(t, func() bool { return d.Snapshot().Loading }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, d.Dispatch(ctx, models.ActionToggleWorkMode), ErrBusy)
	assert.ErrorIs(t, d.Load(ctx), ErrBusy)

	close(api.block)
	require.NoError(t, <-done)
	assert.False(t, d.Snapshot().Loading)
}

func TestMergeRecordDoesNotAliasInput(t *testing.T) {
	day := todayDate()
	records := []models.AttendanceRecord{{ID: 1, Date: day}}
	merged := mergeRecord(records, models.AttendanceRecord{ID: 9, Date: day})

	assert.Equal(t, int64(1), records[0].ID)
	assert.Equal(t, int64(9), merged[0].ID)
}
