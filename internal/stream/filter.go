package stream

import (
	"strings"
	"time"

	"github.com/logtap/logtap/internal/domain"
)

// Apply derives a filtered view from a buffer snapshot and the given
// criteria. All active predicates are combined with logical AND. The
// relative time window is resolved against now exactly once per call,
// so re-running with identical inputs is deterministic. Apply never
// mutates the snapshot.
func Apply(entries []domain.LogEntry, criteria domain.FilterCriteria, now time.Time) []domain.LogEntry {
	if criteria.IsEmpty() {
		result := make([]domain.LogEntry, len(entries))
		copy(result, entries)
		return result
	}

	m := newMatcher(criteria, now)
	result := make([]domain.LogEntry, 0, len(entries))
	for _, entry := range entries {
		if m.matches(entry) {
			result = append(result, entry)
		}
	}
	return result
}

// matcher holds criteria with the derived values (lowercased query,
// resolved window cutoff) computed once per Apply call.
type matcher struct {
	criteria domain.FilterCriteria
	query    string
	cutoff   time.Time
}

func newMatcher(criteria domain.FilterCriteria, now time.Time) matcher {
	m := matcher{
		criteria: criteria,
		query:    strings.ToLower(criteria.Query),
	}
	if criteria.Last > 0 {
		m.cutoff = now.Add(-criteria.Last)
	}
	return m
}

func (m matcher) matches(entry domain.LogEntry) bool {
	if !m.criteria.AcceptsLevel(entry.Level) {
		return false
	}
	if m.query != "" && !containsFold(entry, m.query) {
		return false
	}
	if m.criteria.Source != "" && !strings.Contains(entry.Source, m.criteria.Source) {
		return false
	}
	if !m.cutoff.IsZero() && entry.Timestamp.Before(m.cutoff) {
		return false
	}
	if !m.criteria.From.IsZero() && entry.Timestamp.Before(m.criteria.From) {
		return false
	}
	if !m.criteria.To.IsZero() && entry.Timestamp.After(m.criteria.To) {
		return false
	}
	return true
}

// containsFold matches the lowercased query against message, source and
// service.
func containsFold(entry domain.LogEntry, query string) bool {
	return strings.Contains(strings.ToLower(entry.Message), query) ||
		strings.Contains(strings.ToLower(entry.Source), query) ||
		strings.Contains(strings.ToLower(entry.Service), query)
}
