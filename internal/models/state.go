package models

// Status is today's attendance state as shown on the dashboard.
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusWorking    Status = "working"
	StatusOnBreak    Status = "on-break"
	StatusOut        Status = "out"
	StatusFinished   Status = "finished"
)

func (s Status) Label() string {
	switch s {
	case StatusWorking:
		return "勤務中"
	case StatusOnBreak:
		return "休憩中"
	case StatusOut:
		return "外出中"
	case StatusFinished:
		return "退勤済"
	default:
		return "勤務前"
	}
}

// Action is a user-triggered attendance transition.
type Action string

const (
	ActionClockIn        Action = "clock-in"
	ActionBreakStart     Action = "break-start"
	ActionBreakEnd       Action = "break-end"
	ActionStepOut        Action = "step-out"
	ActionReturn         Action = "return"
	ActionClockOut       Action = "clock-out"
	ActionToggleWorkMode Action = "toggle-work-mode"
)

// AllActions lists actions in button order.
var AllActions = []Action{
	ActionClockIn,
	ActionBreakStart,
	ActionBreakEnd,
	ActionStepOut,
	ActionReturn,
	ActionClockOut,
	ActionToggleWorkMode,
}

func ParseAction(s string) (Action, bool) {
	for _, a := range AllActions {
		if string(a) == s {
			return a, true
		}
	}
	return "", false
}

func (a Action) Label() string {
	switch a {
	case ActionClockIn:
		return "出勤"
	case ActionBreakStart:
		return "休憩開始"
	case ActionBreakEnd:
		return "休憩終了"
	case ActionStepOut:
		return "外出"
	case ActionReturn:
		return "戻り"
	case ActionClockOut:
		return "退勤"
	case ActionToggleWorkMode:
		return "勤務形態切替"
	default:
		return string(a)
	}
}

// ActionSet is a set of permitted actions.
type ActionSet map[Action]struct{}

func NewActionSet(actions ...Action) ActionSet {
	set := make(ActionSet, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return set
}

func (s ActionSet) Has(a Action) bool {
	_, ok := s[a]
	return ok
}

// List returns the members in button order.
func (s ActionSet) List() []Action {
	out := make([]Action, 0, len(s))
	for _, a := range AllActions {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}
