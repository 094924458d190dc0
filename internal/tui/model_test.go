package tui

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logtap/logtap/internal/api"
)

// fakeClient records monitor API calls
type fakeClient struct {
	paused    bool
	pauses    int
	resumes   int
	readAll   int
	statusErr error
}

func (f *fakeClient) GetStatus() (*api.StatusResponse, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &api.StatusResponse{Status: "running", Paused: f.paused}, nil
}

func (f *fakeClient) GetSubscriptions() (*api.SubscriptionListResponse, error) {
	return &api.SubscriptionListResponse{}, nil
}

func (f *fakeClient) GetStats() (*api.StatsResponse, error) {
	return &api.StatsResponse{}, nil
}

func (f *fakeClient) Pause() error  { f.pauses++; return nil }
func (f *fakeClient) Resume() error { f.resumes++; return nil }

func (f *fakeClient) MarkAllAlertsRead() error { f.readAll++; return nil }

func (f *fakeClient) StreamLogsChannel() (<-chan api.LogEntryResponse, error) {
	ch := make(chan api.LogEntryResponse)
	close(ch)
	return ch, nil
}

func entryMsg(i int) LogEntryMsg {
	return LogEntryMsg{ID: fmt.Sprintf("e%d", i), Message: fmt.Sprintf("message %d", i), Level: "INFO"}
}

func updated(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model
}

func TestLogEntriesAppendAndTrim(t *testing.T) {
	m := NewModel(&fakeClient{})
	m = updated(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	for i := 0; i < maxVisibleLogs+50; i++ {
		m = updated(t, m, entryMsg(i))
	}

	assert.Len(t, m.logs, maxVisibleLogs)
	assert.Equal(t, "message 50", m.logs[0].Message, "oldest entries are dropped")
}

func TestSearchFiltersVisibleLogs(t *testing.T) {
	m := NewModel(&fakeClient{})
	m = updated(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updated(t, m, LogEntryMsg{Message: "connection refused", Source: "db"})
	m = updated(t, m, LogEntryMsg{Message: "request served", Source: "web"})

	m.searchQuery = "refused"
	visible := m.visibleLogs()
	require.Len(t, visible, 1)
	assert.Equal(t, "connection refused", visible[0].Message)

	// Source matches too
	m.searchQuery = "web"
	visible = m.visibleLogs()
	require.Len(t, visible, 1)
	assert.Equal(t, "request served", visible[0].Message)

	m.searchQuery = ""
	assert.Len(t, m.visibleLogs(), 2)
}

func TestSearchModeKeys(t *testing.T) {
	m := NewModel(&fakeClient{})
	m = updated(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	m = updated(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	assert.Equal(t, ModeSearch, m.mode)

	for _, r := range "boom" {
		m = updated(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m = updated(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "boom", m.searchQuery)

	// c clears the search
	m = updated(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	assert.Empty(t, m.searchQuery)
}

func TestSearchModeEscape(t *testing.T) {
	m := NewModel(&fakeClient{})
	m = updated(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	require.Equal(t, ModeSearch, m.mode)

	m = updated(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeNormal, m.mode)
}

func TestHelpMode(t *testing.T) {
	m := NewModel(&fakeClient{})
	m = updated(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	assert.Equal(t, ModeHelp, m.mode)

	// Any key leaves help
	m = updated(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Equal(t, ModeNormal, m.mode)
}

func TestQuitKey(t *testing.T) {
	m := NewModel(&fakeClient{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestTogglePauseCallsClient(t *testing.T) {
	client := &fakeClient{}
	m := NewModel(client)
	m.status = &api.StatusResponse{Paused: false}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 1, client.pauses)

	m.status = &api.StatusResponse{Paused: true}
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	cmd()
	assert.Equal(t, 1, client.resumes)
}

func TestMarkAlertsReadKey(t *testing.T) {
	client := &fakeClient{}
	m := NewModel(client)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 1, client.readAll)
}

func TestRefreshMsgClearsConnectionError(t *testing.T) {
	m := NewModel(&fakeClient{})
	m = updated(t, m, ClientErrorMsg{Err: fmt.Errorf("boom")})
	assert.Error(t, m.connectionError)

	m = updated(t, m, RefreshMsg{Status: &api.StatusResponse{Status: "running"}})
	assert.NoError(t, m.connectionError)
	require.NotNil(t, m.status)
	assert.Equal(t, "running", m.status.Status)
}

func TestStreamClosedMsg(t *testing.T) {
	m := NewModel(&fakeClient{})
	m = updated(t, m, StreamClosedMsg{Err: fmt.Errorf("stream ended")})
	assert.True(t, m.streamClosed)
	assert.Error(t, m.connectionError)
}
