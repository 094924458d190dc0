package api

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logtap/logtap/internal/domain"
)

func TestExportLogsJSON(t *testing.T) {
	ts := newTestServer(t, false)
	conn := ts.connect(t, "prod", 0)

	now := time.Now()
	ts.feedLogs(t, conn,
		logFrame(now.Add(-time.Second), "info", "first", "web"),
		logFrame(now, "error", "second", "db"),
	)

	w := ts.do(t, http.MethodGet, "/api/v1/export/logs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=logs-")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".json")

	var entries []LogEntryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Message, "export is newest-first")
}

func TestExportLogsCSV(t *testing.T) {
	ts := newTestServer(t, false)
	conn := ts.connect(t, "prod", 0)
	ts.feedLogs(t, conn, logFrame(time.Now(), "error", "boom, with comma", "db"))

	w := ts.do(t, http.MethodGet, "/api/v1/export/logs?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))

	records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"timestamp", "level", "subscription", "source", "service", "message"}, records[0])
	assert.Equal(t, "ERROR", records[1][1])
	assert.Equal(t, "prod", records[1][2])
	assert.Equal(t, "boom, with comma", records[1][5])
}

func TestExportAlertsCSV(t *testing.T) {
	ts := newTestServer(t, false)
	conn := ts.connect(t, "prod", 0)

	conn.push(alertFrame(time.Now(), "high", "too many errors"))
	require.Eventually(t, func() bool {
		return ts.controller.UnreadAlerts() == 1
	}, 2*time.Second, time.Millisecond)

	w := ts.do(t, http.MethodGet, "/api/v1/export/alerts?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)

	records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"timestamp", "severity", "type", "subscription", "read", "message"}, records[0])
	assert.Equal(t, "high", records[1][1])
	assert.Equal(t, "false", records[1][4])
	assert.Equal(t, "too many errors", records[1][5])
}

func TestExportUnsupportedFormat(t *testing.T) {
	ts := newTestServer(t, false)

	for _, target := range []string{
		"/api/v1/export/logs?format=xml",
		"/api/v1/export/alerts?format=yaml",
	} {
		w := ts.do(t, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Equal(t, domain.ErrCodeUnsupportedFormat, decode[ErrorResponse](t, w).Code, target)
	}
}

func TestExportFormatCaseInsensitive(t *testing.T) {
	ts := newTestServer(t, false)

	w := ts.do(t, http.MethodGet, "/api/v1/export/logs?format=CSV", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
}
