package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/logtap/logtap/internal/api"
)

// MonitorClient is the interface for the API interactions the monitor
// needs. It is satisfied by the CLI client.
type MonitorClient interface {
	GetStatus() (*api.StatusResponse, error)
	GetSubscriptions() (*api.SubscriptionListResponse, error)
	GetStats() (*api.StatsResponse, error)
	Pause() error
	Resume() error
	MarkAllAlertsRead() error
	StreamLogsChannel() (<-chan api.LogEntryResponse, error)
}

// Run starts the monitor connected to a running server
func Run(client MonitorClient) error {
	model := NewModel(client)
	p := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())

	go forwardLogs(ctx, p, client)

	_, err := p.Run()
	cancel()
	return err
}

// forwardLogs streams log entries from the API into the TUI program. It
// exits when the context is cancelled or the stream closes.
func forwardLogs(ctx context.Context, p *tea.Program, client MonitorClient) {
	ch, err := client.StreamLogsChannel()
	if err != nil {
		p.Send(StreamClosedMsg{Err: err})
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-ch:
			if !ok {
				p.Send(StreamClosedMsg{})
				return
			}
			p.Send(LogEntryMsg(entry))
		}
	}
}

// StreamClosedMsg is sent when the live log stream ends
type StreamClosedMsg struct {
	Err error
}

// LogEntryMsg is sent when a new log entry arrives
type LogEntryMsg api.LogEntryResponse

// TickMsg drives the periodic status refresh
type TickMsg time.Time
