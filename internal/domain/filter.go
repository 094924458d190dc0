package domain

import "time"

// FilterCriteria defines criteria for filtering log entries. All set
// predicates are combined with logical AND.
//
// An empty Levels set means "accept all levels". This is a deliberate,
// documented convention: callers express "no level filter" by leaving
// the set empty rather than enumerating every level.
type FilterCriteria struct {
	Levels []Level       // Accepted levels; empty accepts all
	Query  string        // Case-insensitive substring over message, source and service
	Source string        // Substring match on the source field only
	Last   time.Duration // Relative window: accept entries newer than now-Last
	From   time.Time     // Absolute window start (zero = unbounded)
	To     time.Time     // Absolute window end (zero = unbounded)
}

// IsEmpty returns true if no filters are set
func (c FilterCriteria) IsEmpty() bool {
	return len(c.Levels) == 0 && c.Query == "" && c.Source == "" &&
		c.Last == 0 && c.From.IsZero() && c.To.IsZero()
}

// AcceptsLevel returns true if the level passes the level filter.
// An empty level set accepts every level.
func (c FilterCriteria) AcceptsLevel(l Level) bool {
	if len(c.Levels) == 0 {
		return true
	}
	for _, lv := range c.Levels {
		if lv == l {
			return true
		}
	}
	return false
}
