package formatting

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"commoners/internal/config"
	"commoners/internal/planner"
	"commoners/internal/services"
	pkgstrings "commoners/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// newTable creates a table with the standard styling.
func newTable(w io.Writer, headers ...string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	row := make(table.Row, len(headers))
	for i, h := range headers {
		row[i] = text.FgHiCyan.Sprint(h)
	}
	t.AppendHeader(row)
	return t
}

func emptyMessage(w io.Writer, message string) {
	fmt.Fprintf(w, "%s\n", text.FgYellow.Sprint(message))
}

// PlanTable prints the steps of a build plan.
func PlanTable(w io.Writer, plan *planner.Plan) {
	fmt.Fprintf(w, "%s %s %s %s\n",
		text.FgHiBlue.Sprint("Build plan for"),
		text.FgHiWhite.Sprint(plan.Target),
		text.FgHiBlue.Sprint("on"),
		text.FgHiWhite.Sprint(plan.Platform))

	t := newTable(w, "#", "STEP", "SERVICE", "COMMAND")
	for i, s := range plan.Steps {
		t.AppendRow(table.Row{
			i + 1,
			s.Kind,
			s.Service,
			pkgstrings.Truncate(s.Command, pkgstrings.DefaultCommandMaxLen),
		})
	}
	t.Render()
}

// stateColor picks a color for a service state.
func stateColor(state services.ServiceState) text.Color {
	switch state {
	case services.StateRunning:
		return text.FgGreen
	case services.StateFailed:
		return text.FgRed
	case services.StateStarting, services.StateStopping:
		return text.FgYellow
	default:
		return text.FgHiBlack
	}
}

// ServicesTable prints the status of running services.
func ServicesTable(w io.Writer, list []*services.ServiceProcess) {
	if len(list) == 0 {
		emptyMessage(w, "No services running")
		return
	}
	t := newTable(w, "SERVICE", "STATE", "PID", "URL", "UPTIME")
	for _, sp := range list {
		state := sp.GetState()
		pid := ""
		if p := sp.Pid(); p > 0 {
			pid = strconv.Itoa(p)
		}
		uptime := ""
		if state == services.StateRunning {
			uptime = sp.Uptime().Round(time.Second).String()
		}
		t.AppendRow(table.Row{
			sp.GetName(),
			stateColor(state).Sprint(state),
			pid,
			sp.URL(),
			uptime,
		})
	}
	t.Render()
}

// ConfigTable prints a summary of a resolved configuration: services with
// their commands, then plugins with their support per target.
func ConfigTable(w io.Writer, cfg *config.ResolvedConfig, targets []string) {
	fmt.Fprintf(w, "%s %s\n", text.FgHiBlue.Sprint("Name:"), cfg.Name)
	fmt.Fprintf(w, "%s %s\n", text.FgHiBlue.Sprint("App ID:"), cfg.AppID)
	fmt.Fprintf(w, "%s %s\n", text.FgHiBlue.Sprint("Version:"), cfg.Version)
	fmt.Fprintf(w, "%s %s\n", text.FgHiBlue.Sprint("Output:"), cfg.OutDir)

	if len(cfg.Services) == 0 {
		emptyMessage(w, "No services configured")
	} else {
		t := newTable(w, "SERVICE", "PORT", "LAUNCH", "BUILD")
		for _, name := range cfg.ServiceNames() {
			svc := cfg.Services[name]
			port := ""
			if svc.Port > 0 {
				port = strconv.Itoa(svc.Port)
			}
			t.AppendRow(table.Row{
				name,
				port,
				pkgstrings.Truncate(svc.Launch, pkgstrings.DefaultCommandMaxLen),
				pkgstrings.Truncate(svc.BuildCommand, pkgstrings.DefaultCommandMaxLen),
			})
		}
		t.Render()
	}

	if len(cfg.Plugins) == 0 {
		emptyMessage(w, "No plugins configured")
		return
	}
	headers := append([]string{"PLUGIN"}, targets...)
	t := newTable(w, headers...)
	for _, p := range cfg.Plugins {
		row := table.Row{p.Name}
		for _, target := range targets {
			if p.SupportedOn(target) {
				row = append(row, text.FgGreen.Sprint("yes"))
			} else {
				row = append(row, text.FgRed.Sprint("no"))
			}
		}
		t.AppendRow(row)
	}
	t.Render()
}
