package deploy

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleCompleted = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleFailed    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	stylePending   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleDim       = lipgloss.NewStyle().Faint(true)
)

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "completed":
		return styleCompleted
	case "failed":
		return styleFailed
	default:
		return stylePending
	}
}

// FormatDeployment renders one deployment for the CLI. With styled=false
// the output is plain text suitable for pipes and tests.
func FormatDeployment(d Deployment, styled bool) string {
	status := d.Status
	if styled {
		status = statusStyle(d.Status).Render(d.Status)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Deployment %s\n", d.ID)
	fmt.Fprintf(&b, "  Status:      %s\n", status)
	if d.URL != "" {
		fmt.Fprintf(&b, "  URL:         %s\n", d.URL)
	}
	if d.Environment != "" {
		fmt.Fprintf(&b, "  Environment: %s\n", d.Environment)
	}
	if !d.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "  Created:     %s\n", d.CreatedAt.Format(time.RFC3339))
	}
	if d.Actor != "" {
		fmt.Fprintf(&b, "  By:          %s\n", d.Actor)
	}
	return b.String()
}

// FormatDeploymentList renders deployments as a compact table, newest
// first, matching the `vitrin list` output.
func FormatDeploymentList(deps []Deployment, styled bool) string {
	if len(deps) == 0 {
		return "No deployments yet.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-14s  %-10s  %-20s  %s\n", "ID", "STATUS", "CREATED", "URL")
	for _, d := range deps {
		status := d.Status
		if styled {
			status = statusStyle(d.Status).Render(fmt.Sprintf("%-10s", d.Status))
		} else {
			status = fmt.Sprintf("%-10s", d.Status)
		}
		created := ""
		if !d.CreatedAt.IsZero() {
			created = d.CreatedAt.Format("2006-01-02 15:04:05")
		}
		line := fmt.Sprintf("%-14s  %s  %-20s  %s", d.ID, status, created, d.URL)
		if styled && d.Status == "failed" {
			line = styleDim.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
