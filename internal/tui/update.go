package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/logtap/logtap/internal/api"
)

// headerHeight is the number of lines above the viewport
const headerHeight = 4

// footerHeight is the number of lines below the viewport
const footerHeight = 2

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		contentHeight := msg.Height - headerHeight - footerHeight
		if contentHeight < 1 {
			contentHeight = 1
		}
		if !m.ready {
			m.viewport = newViewport(msg.Width, contentHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = contentHeight
		}
		m.refreshViewport()

	case LogEntryMsg:
		m.logs = append(m.logs, api.LogEntryResponse(msg))
		if len(m.logs) > maxVisibleLogs {
			m.logs = m.logs[len(m.logs)-maxVisibleLogs:]
		}
		m.refreshViewport()

	case RefreshMsg:
		m.status = msg.Status
		m.subscriptions = msg.Subscriptions
		m.stats = msg.Stats
		m.connectionError = nil

	case ClientErrorMsg:
		m.connectionError = msg.Err

	case ActionResultMsg:
		if msg.Err != nil {
			m.connectionError = msg.Err
		}
		cmds = append(cmds, m.fetchState())

	case StreamClosedMsg:
		m.streamClosed = true
		if msg.Err != nil {
			m.connectionError = msg.Err
		}

	case TickMsg:
		cmds = append(cmds, m.fetchState(), tickCmd())
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	if m.mode == ModeSearch {
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKey processes keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeSearch:
		switch msg.String() {
		case "enter":
			m.searchQuery = strings.TrimSpace(m.textInput.Value())
			m.mode = ModeNormal
			m.textInput.Blur()
			m.refreshViewport()
		case "esc":
			m.mode = ModeNormal
			m.textInput.Blur()
		default:
			var cmd tea.Cmd
			m.textInput, cmd = m.textInput.Update(msg)
			return m, cmd
		}
		return m, nil

	case ModeHelp:
		m.mode = ModeNormal
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "p", " ":
		return m, m.togglePause()

	case "a":
		return m, m.markAlertsRead()

	case "/":
		m.mode = ModeSearch
		m.textInput.SetValue(m.searchQuery)
		m.textInput.Focus()
		return m, nil

	case "c":
		m.searchQuery = ""
		m.refreshViewport()
		return m, nil

	case "?":
		m.mode = ModeHelp
		return m, nil

	case "g":
		m.autoScroll = false
		m.viewport.GotoTop()
		return m, nil

	case "G", "end":
		m.autoScroll = true
		m.viewport.GotoBottom()
		return m, nil

	case "up", "k", "pgup":
		m.autoScroll = false
		return m, nil
	}

	return m, nil
}

// refreshViewport re-renders the visible log lines
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderLogs())
	if m.autoScroll {
		m.viewport.GotoBottom()
	}
}

// visibleLogs applies the local search query
func (m *Model) visibleLogs() []api.LogEntryResponse {
	if m.searchQuery == "" {
		return m.logs
	}
	query := strings.ToLower(m.searchQuery)
	var out []api.LogEntryResponse
	for _, e := range m.logs {
		if strings.Contains(strings.ToLower(e.Message), query) ||
			strings.Contains(strings.ToLower(e.Source), query) ||
			strings.Contains(strings.ToLower(e.Service), query) {
			out = append(out, e)
		}
	}
	return out
}
