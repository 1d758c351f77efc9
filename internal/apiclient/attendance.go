package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"timetrack-web/internal/models"
)

const attendancePath = "/api/v1/attendance"

// submitQuery maps dashboard actions to the backend's action parameter.
// Clock-in is the bare endpoint.
var submitQuery = map[models.Action]string{
	models.ActionClockIn:        "",
	models.ActionClockOut:       "clock_out",
	models.ActionBreakStart:     "break_start",
	models.ActionBreakEnd:       "break_end",
	models.ActionStepOut:        "out",
	models.ActionReturn:         "return",
	models.ActionToggleWorkMode: "workmode",
}

type AttendanceClient struct {
	api *Client
}

func NewAttendanceClient(api *Client) *AttendanceClient {
	return &AttendanceClient{api: api}
}

// Mine returns the caller's most recent records, newest first as the backend
// orders them.
func (c *AttendanceClient) Mine(ctx context.Context, limit int) ([]models.AttendanceRecord, error) {
	var list models.AttendanceList
	endpoint := attendancePath + "/me?limit=" + strconv.Itoa(limit)
	if err := c.api.Get(ctx, endpoint, Options{Auth: true}, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// Submit sends one action and returns the updated record. mode is only used
// by the work-mode toggle.
func (c *AttendanceClient) Submit(ctx context.Context, action models.Action, mode models.WorkMode) (*models.AttendanceRecord, error) {
	query, ok := submitQuery[action]
	if !ok {
		return nil, fmt.Errorf("unknown action %q", action)
	}

	endpoint := attendancePath
	if query != "" {
		endpoint += "?" + url.Values{"action": {query}}.Encode()
	}

	body := map[string]any{}
	if action == models.ActionToggleWorkMode {
		body["mode"] = mode
	}

	var rec models.AttendanceRecord
	if err := c.api.Post(ctx, endpoint, body, Options{Auth: true}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Health calls the backend liveness probe and returns its raw JSON.
func (c *AttendanceClient) Health(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.api.Get(ctx, "/health", Options{}, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
