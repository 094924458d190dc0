package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/logtap/logtap/internal/constants"
	"github.com/logtap/logtap/internal/domain"
	"github.com/logtap/logtap/internal/stream"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	controller *stream.Controller
	configFile string
	startedAt  time.Time
	shutdownFn func()
	log        *zap.Logger
}

// NewHandlers creates new HTTP handlers
func NewHandlers(controller *stream.Controller, configFile string, shutdownFn func(), log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		controller: controller,
		configFile: configFile,
		startedAt:  time.Now(),
		shutdownFn: shutdownFn,
		log:        log,
	}
}

// GetStatus handles GET /api/v1/status
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	statuses := h.controller.StatusAll()
	connected := 0
	for _, s := range statuses {
		if s.State == domain.ConnStateConnected {
			connected++
		}
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:        "running",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		ConfigFile:    h.configFile,
		Paused:        h.controller.Paused(),
		Subscriptions: len(statuses),
		Connected:     connected,
		UnreadAlerts:  h.controller.UnreadAlerts(),
		APIVersion:    "v1",
	})
}

// GetSubscriptions handles GET /api/v1/subscriptions
func (h *Handlers) GetSubscriptions(w http.ResponseWriter, r *http.Request) {
	statuses := h.controller.StatusAll()
	resp := SubscriptionListResponse{
		Subscriptions: make([]SubscriptionResponse, len(statuses)),
	}
	for i, s := range statuses {
		resp.Subscriptions[i] = ToSubscriptionResponse(s)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSubscription handles GET /api/v1/subscriptions/{id}
func (h *Handlers) GetSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, err := h.controller.Status(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ToSubscriptionResponse(status))
}

// StartSubscription handles POST /api/v1/subscriptions/{id}/start
func (h *Handlers) StartSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.controller.Start(id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// StopSubscription handles POST /api/v1/subscriptions/{id}/stop
func (h *Handlers) StopSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.controller.Stop(id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// PauseStream handles POST /api/v1/stream/pause
func (h *Handlers) PauseStream(w http.ResponseWriter, r *http.Request) {
	h.controller.Pause()
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// ResumeStream handles POST /api/v1/stream/resume
func (h *Handlers) ResumeStream(w http.ResponseWriter, r *http.Request) {
	h.controller.Resume()
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// GetFilter handles GET /api/v1/filter
func (h *Handlers) GetFilter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ToFilterResponse(h.controller.Criteria()))
}

// SetFilter handles PUT /api/v1/filter
func (h *Handlers) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("%w: %v", domain.ErrInvalidCriteria, err))
		return
	}
	criteria, err := criteriaFromRequest(req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.controller.SetCriteria(criteria)
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// GetLogs handles GET /api/v1/logs. Query parameters override the
// stored filter criteria when present.
func (h *Handlers) GetLogs(w http.ResponseWriter, r *http.Request) {
	criteria, explicit, err := parseCriteriaParams(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !explicit {
		criteria = h.controller.Criteria()
	}

	limit := parseLimit(r)
	entries := h.controller.Query(criteria, limit)

	resp := LogsResponse{
		Logs:          make([]LogEntryResponse, len(entries)),
		FilteredCount: len(entries),
		TotalCount:    h.controller.BufferedCount(),
	}
	for i, e := range entries {
		resp.Logs[i] = ToLogEntryResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ClearLogs handles DELETE /api/v1/logs
func (h *Handlers) ClearLogs(w http.ResponseWriter, r *http.Request) {
	h.controller.ClearBuffers()
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// GetAlerts handles GET /api/v1/alerts
func (h *Handlers) GetAlerts(w http.ResponseWriter, r *http.Request) {
	query, err := parseAlertQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	alerts := h.controller.Alerts(query)
	resp := AlertsResponse{
		Alerts:      make([]AlertResponse, len(alerts)),
		UnreadCount: h.controller.UnreadAlerts(),
	}
	for i, a := range alerts {
		resp.Alerts[i] = ToAlertResponse(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

// MarkAlertRead handles POST /api/v1/alerts/{id}/read
func (h *Handlers) MarkAlertRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.controller.MarkAlertRead(id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// MarkAllAlertsRead handles POST /api/v1/alerts/read_all
func (h *Handlers) MarkAllAlertsRead(w http.ResponseWriter, r *http.Request) {
	h.controller.MarkAllAlertsRead()
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// DismissAlert handles DELETE /api/v1/alerts/{id}
func (h *Handlers) DismissAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.controller.DismissAlert(id); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// GetStats handles GET /api/v1/stats
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ToStatsResponse(h.controller.Stats()))
}

// Shutdown handles POST /api/v1/shutdown
func (h *Handlers) Shutdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})

	// Trigger shutdown asynchronously so the response completes
	go func() {
		time.Sleep(100 * time.Millisecond)
		if h.shutdownFn != nil {
			h.shutdownFn()
		}
	}()
}

// parseCriteriaParams extracts filter criteria from query parameters.
// The second return value reports whether any criteria parameter was
// present at all.
func parseCriteriaParams(r *http.Request) (domain.FilterCriteria, bool, error) {
	q := r.URL.Query()
	criteria := domain.FilterCriteria{}
	explicit := false

	if levels := q.Get("levels"); levels != "" {
		explicit = true
		for _, s := range strings.Split(levels, ",") {
			level, ok := domain.ParseLevel(strings.TrimSpace(s))
			if !ok {
				return criteria, false, fmt.Errorf("%w: unknown level %q", domain.ErrInvalidCriteria, s)
			}
			criteria.Levels = append(criteria.Levels, level)
		}
	}
	if query := q.Get("q"); query != "" {
		explicit = true
		criteria.Query = query
	}
	if source := q.Get("source"); source != "" {
		explicit = true
		criteria.Source = source
	}
	if last := q.Get("last"); last != "" {
		explicit = true
		d, err := time.ParseDuration(last)
		if err != nil {
			return criteria, false, fmt.Errorf("%w: invalid last window %q", domain.ErrInvalidCriteria, last)
		}
		criteria.Last = d
	}
	if from := q.Get("from"); from != "" {
		explicit = true
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return criteria, false, fmt.Errorf("%w: invalid from time %q", domain.ErrInvalidCriteria, from)
		}
		criteria.From = t
	}
	if to := q.Get("to"); to != "" {
		explicit = true
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return criteria, false, fmt.Errorf("%w: invalid to time %q", domain.ErrInvalidCriteria, to)
		}
		criteria.To = t
	}
	return criteria, explicit, nil
}

// criteriaFromRequest converts the JSON filter body into criteria
func criteriaFromRequest(req FilterResponse) (domain.FilterCriteria, error) {
	criteria := domain.FilterCriteria{
		Query:  req.Query,
		Source: req.Source,
	}
	for _, s := range req.Levels {
		level, ok := domain.ParseLevel(s)
		if !ok {
			return criteria, fmt.Errorf("%w: unknown level %q", domain.ErrInvalidCriteria, s)
		}
		criteria.Levels = append(criteria.Levels, level)
	}
	if req.Last != "" {
		d, err := time.ParseDuration(req.Last)
		if err != nil {
			return criteria, fmt.Errorf("%w: invalid last window %q", domain.ErrInvalidCriteria, req.Last)
		}
		criteria.Last = d
	}
	if req.From != "" {
		t, err := time.Parse(time.RFC3339, req.From)
		if err != nil {
			return criteria, fmt.Errorf("%w: invalid from time %q", domain.ErrInvalidCriteria, req.From)
		}
		criteria.From = t
	}
	if req.To != "" {
		t, err := time.Parse(time.RFC3339, req.To)
		if err != nil {
			return criteria, fmt.Errorf("%w: invalid to time %q", domain.ErrInvalidCriteria, req.To)
		}
		criteria.To = t
	}
	return criteria, nil
}

// parseAlertQuery extracts alert query parameters
func parseAlertQuery(r *http.Request) (stream.AlertQuery, error) {
	q := r.URL.Query()
	query := stream.AlertQuery{}

	if unread := q.Get("unread"); unread != "" {
		v := unread == "true"
		query.Unread = &v
	}
	if severity := q.Get("severity"); severity != "" {
		s, ok := domain.ParseSeverity(severity)
		if !ok {
			return query, fmt.Errorf("%w: unknown severity %q", domain.ErrInvalidCriteria, severity)
		}
		query.Severity = s
	}
	if min := q.Get("min_severity"); min != "" {
		s, ok := domain.ParseSeverity(min)
		if !ok {
			return query, fmt.Errorf("%w: unknown severity %q", domain.ErrInvalidCriteria, min)
		}
		query.MinSeverity = s
	}
	if sub := q.Get("subscription"); sub != "" {
		query.SubscriptionID = sub
	}
	if typ := q.Get("type"); typ != "" {
		query.Type = domain.AlertType(typ)
	}
	return query, nil
}

// parseLimit extracts the limit parameter (default 100, capped to
// prevent memory exhaustion)
func parseLimit(r *http.Request) int {
	limit := constants.DefaultLogLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
			if limit > constants.MaxLogLimit {
				limit = constants.MaxLogLimit
			}
		}
	}
	return limit
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"
	message := "an internal error occurred"

	switch {
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		status = http.StatusNotFound
		code = domain.ErrCodeSubscriptionNotFound
		message = err.Error()
	case errors.Is(err, domain.ErrAlertNotFound):
		status = http.StatusNotFound
		code = domain.ErrCodeAlertNotFound
		message = err.Error()
	case errors.Is(err, domain.ErrInvalidCriteria):
		status = http.StatusBadRequest
		code = domain.ErrCodeInvalidCriteria
		message = err.Error()
	case errors.Is(err, domain.ErrShutdownInProgress):
		status = http.StatusServiceUnavailable
		code = domain.ErrCodeShutdownInProgress
		message = err.Error()
	default:
		// For unknown errors, log the actual error but return a sanitized
		// message to avoid leaking internals
		h.log.Error("internal error", zap.Error(err))
	}

	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
