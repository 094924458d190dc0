package api

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/logtap/logtap/internal/domain"
)

// ExportLogs handles GET /api/v1/export/logs. The format parameter
// selects json (default) or csv.
func (h *Handlers) ExportLogs(w http.ResponseWriter, r *http.Request) {
	logs, _ := h.controller.Export()

	switch exportFormat(r) {
	case "json":
		entries := make([]LogEntryResponse, len(logs))
		for i, e := range logs {
			entries[i] = ToLogEntryResponse(e)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", attachment("logs", "json"))
		_ = json.NewEncoder(w).Encode(entries)

	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", attachment("logs", "csv"))
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"timestamp", "level", "subscription", "source", "service", "message"})
		for _, e := range logs {
			_ = cw.Write([]string{
				e.Timestamp.Format(time.RFC3339Nano),
				string(e.Level),
				e.SubscriptionID,
				e.Source,
				e.Service,
				e.Message,
			})
		}
		cw.Flush()

	default:
		writeUnsupportedFormat(w, r)
	}
}

// ExportAlerts handles GET /api/v1/export/alerts
func (h *Handlers) ExportAlerts(w http.ResponseWriter, r *http.Request) {
	_, alerts := h.controller.Export()

	switch exportFormat(r) {
	case "json":
		resp := make([]AlertResponse, len(alerts))
		for i, a := range alerts {
			resp[i] = ToAlertResponse(a)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", attachment("alerts", "json"))
		_ = json.NewEncoder(w).Encode(resp)

	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", attachment("alerts", "csv"))
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"timestamp", "severity", "type", "subscription", "read", "message"})
		for _, a := range alerts {
			_ = cw.Write([]string{
				a.Timestamp.Format(time.RFC3339Nano),
				string(a.Severity),
				string(a.Type),
				a.SubscriptionID,
				strconv.FormatBool(a.IsRead),
				a.Message,
			})
		}
		cw.Flush()

	default:
		writeUnsupportedFormat(w, r)
	}
}

func writeUnsupportedFormat(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error: fmt.Sprintf("unsupported export format %q", r.URL.Query().Get("format")),
		Code:  domain.ErrCodeUnsupportedFormat,
	})
}

func exportFormat(r *http.Request) string {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		return "json"
	}
	return format
}

func attachment(kind, ext string) string {
	return fmt.Sprintf("attachment; filename=%s-%s.%s", kind, time.Now().Format("20060102-150405"), ext)
}
