package ui

import (
	"fmt"

	"github.com/mkulik-rh/rpm/pkg/header"
	"github.com/mkulik-rh/rpm/pkg/types"
	"github.com/pterm/pterm"
)

// eventStyle returns the pterm style used for a notification
func eventStyle(what types.CallbackType) *pterm.Style {
	switch what {
	case types.CallbackInstStart:
		return pterm.NewStyle(pterm.FgCyan)
	case types.CallbackUninstStart, types.CallbackUninstStop:
		return pterm.NewStyle(pterm.FgYellow)
	case types.CallbackScriptError:
		return pterm.NewStyle(pterm.FgRed, pterm.Bold)
	default:
		return pterm.NewStyle(pterm.FgGray)
	}
}

// describe returns the progress line of an event, or "" for events that
// are not shown
func describe(ev Event) string {
	switch ev.What {
	case types.CallbackInstStart:
		return "installing " + ev.NEVRA
	case types.CallbackUninstStart:
		return "erasing " + ev.NEVRA
	case types.CallbackUninstStop:
		return "erased " + ev.NEVRA
	case types.CallbackScriptError:
		return fmt.Sprintf("%s scriptlet of %s failed with status %d",
			header.Tag(ev.Amount).Name(), ev.NEVRA, ev.Total)
	default:
		return ""
	}
}

// Event prints a progress line. Structured formats print nothing.
func (r *Renderer) Event(ev Event) {
	if r.format != FormatTerminal && r.format != FormatText {
		return
	}
	line := describe(ev)
	if line == "" {
		return
	}
	if r.format == FormatTerminal {
		line = eventStyle(ev.What).Sprint(line)
	}
	fmt.Fprintln(r.w, line)
}
