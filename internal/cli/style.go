package cli

import (
	"github.com/fatih/color"

	"github.com/HendryAvila/taskroute/internal/route"
	"github.com/HendryAvila/taskroute/internal/task"
)

// Sprint color functions for building styled strings.
var (
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// statusLabel returns a colored status string for table display.
func statusLabel(s task.Status) string {
	switch s {
	case task.StatusDone:
		return green(string(s))
	case task.StatusInProgress, task.StatusInReview:
		return cyan(string(s))
	case task.StatusBlocked:
		return red(string(s))
	case route.StatusUnknown:
		return yellow(string(s))
	default:
		return string(s)
	}
}

// stateLabel returns a colored readiness string for route display.
func stateLabel(s route.StepState) string {
	switch s {
	case route.StateDone:
		return green("done")
	case route.StateReady:
		return cyan("ready")
	default:
		return red("blocked")
	}
}
