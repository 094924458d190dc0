package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the monitor
func (m Model) View() string {
	if !m.ready {
		return "Connecting to logtap..."
	}
	if m.mode == ModeHelp {
		return m.helpView()
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.footerView())
	return b.String()
}

// headerView renders the subscription summary and stats lines
func (m Model) headerView() string {
	title := "logtap"
	if m.status != nil && m.status.Paused {
		title += " " + pausedStyle.Render("[PAUSED]")
	}
	if m.connectionError != nil {
		title += " " + failedStyle.Render("[connection error]")
	} else if m.streamClosed {
		title += " " + failedStyle.Render("[stream closed]")
	}

	var subs []string
	for _, s := range m.subscriptions {
		subs = append(subs, fmt.Sprintf("%s %s",
			subscriptionStyle(s.ID).Render(s.Name),
			stateStyle(s.State).Render(s.State)))
	}
	subLine := "no subscriptions"
	if len(subs) > 0 {
		subLine = strings.Join(subs, "  ")
	}

	statsLine := ""
	if m.stats != nil {
		statsLine = fmt.Sprintf("%d events today  %.1f/s  %.1f%% errors",
			m.stats.TotalToday, m.stats.EventsPerSecond, m.stats.ErrorRate*100)
	}
	if m.status != nil && m.status.UnreadAlerts > 0 {
		statsLine += failedStyle.Render(fmt.Sprintf("  %d unread alerts", m.status.UnreadAlerts))
	}

	header := lipgloss.JoinVertical(lipgloss.Left,
		title,
		subLine,
		dimStyle.Render(statsLine),
	)
	return headerStyle.Width(m.width).Render(header)
}

// footerView renders the status bar, or the search input while searching
func (m Model) footerView() string {
	if m.mode == ModeSearch {
		return statusStyle.Width(m.width).Render("/" + m.textInput.View())
	}

	left := fmt.Sprintf("%d entries", len(m.visibleLogs()))
	if m.searchQuery != "" {
		left += fmt.Sprintf("  search: %q", m.searchQuery)
	}
	if !m.autoScroll {
		left += "  " + pausedStyle.Render("scroll")
	}
	right := "q quit  p pause  / search  a read alerts  ? help"

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return statusStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + dimStyle.Render(right))
}

// renderLogs renders the visible entries for the viewport
func (m Model) renderLogs() string {
	entries := m.visibleLogs()
	if len(entries) == 0 {
		return dimStyle.Render("waiting for logs...")
	}

	var b strings.Builder
	for _, e := range entries {
		ts := e.Timestamp
		if t, err := time.Parse(time.RFC3339Nano, e.Timestamp); err == nil {
			ts = t.Format("15:04:05")
		}

		origin := e.Subscription
		if e.Source != "" {
			origin += "/" + e.Source
		}

		levelStyle, ok := levelStyles[e.Level]
		if !ok {
			levelStyle = dimStyle
		}

		b.WriteString(fmt.Sprintf("%s %s %s %s\n",
			dimStyle.Render(ts),
			levelStyle.Render(fmt.Sprintf("%-8s", e.Level)),
			subscriptionStyle(e.Subscription).Render(origin),
			e.Message))
	}
	return b.String()
}

// helpView renders the help overlay
func (m Model) helpView() string {
	help := `logtap monitor

  q, ctrl+c   Quit (server keeps running)
  p, space    Pause / resume the stream
  /           Search visible entries
  c           Clear the search
  a           Mark all alerts read
  g / G       Scroll to top / bottom (G re-enables follow)
  ?           Close this help

Press any key to return`
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		helpStyle.Render(help))
}
