package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/logtap/logtap/internal/api"
)

// Mode represents the current monitor mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeHelp
)

// maxVisibleLogs bounds the entries kept for rendering; the server
// retains the full buffer
const maxVisibleLogs = 2000

// refreshInterval is how often status and stats are refetched
const refreshInterval = time.Second

// Model is the bubbletea model for the monitor
type Model struct {
	client MonitorClient

	// Layout
	width    int
	height   int
	ready    bool
	viewport viewport.Model

	// Mode state
	mode        Mode
	textInput   textinput.Model
	searchQuery string

	// Data
	logs          []api.LogEntryResponse
	subscriptions []api.SubscriptionResponse
	stats         *api.StatsResponse
	status        *api.StatusResponse
	autoScroll    bool

	// Connection state
	connectionError error
	streamClosed    bool
}

// NewModel creates a new monitor model
func NewModel(client MonitorClient) Model {
	ti := textinput.New()
	ti.Placeholder = "search"
	ti.CharLimit = 128

	return Model{
		client:     client,
		textInput:  ti,
		autoScroll: true,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchState(),
		tickCmd(),
	)
}

// RefreshMsg carries the latest server state
type RefreshMsg struct {
	Status        *api.StatusResponse
	Subscriptions []api.SubscriptionResponse
	Stats         *api.StatsResponse
}

// ClientErrorMsg is sent when an API call fails
type ClientErrorMsg struct {
	Err error
}

// ActionResultMsg is sent when a pause/resume toggle completes
type ActionResultMsg struct {
	Err error
}

// fetchState returns a command that refetches status, subscriptions and
// stats in one round
func (m Model) fetchState() tea.Cmd {
	return func() tea.Msg {
		status, err := m.client.GetStatus()
		if err != nil {
			return ClientErrorMsg{Err: err}
		}
		subs, err := m.client.GetSubscriptions()
		if err != nil {
			return ClientErrorMsg{Err: err}
		}
		stats, err := m.client.GetStats()
		if err != nil {
			return ClientErrorMsg{Err: err}
		}
		return RefreshMsg{
			Status:        status,
			Subscriptions: subs.Subscriptions,
			Stats:         stats,
		}
	}
}

// togglePause flips the stream pause state via the API
func (m Model) togglePause() tea.Cmd {
	paused := m.status != nil && m.status.Paused
	return func() tea.Msg {
		var err error
		if paused {
			err = m.client.Resume()
		} else {
			err = m.client.Pause()
		}
		return ActionResultMsg{Err: err}
	}
}

// markAlertsRead marks all alerts read via the API
func (m Model) markAlertsRead() tea.Cmd {
	return func() tea.Msg {
		return ActionResultMsg{Err: m.client.MarkAllAlertsRead()}
	}
}

// tickCmd returns a command that ticks periodically
func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
