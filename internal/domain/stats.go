package domain

// ErrorCount is one entry in the ranked list of most frequent error messages
type ErrorCount struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// AggregateStats is a read-only snapshot of the rolling counters
// maintained by the stats aggregator.
type AggregateStats struct {
	// TotalToday is the number of log events received since local midnight
	TotalToday int64 `json:"total_today"`
	// EventsPerSecond is the throughput over the trailing throughput window
	EventsPerSecond float64 `json:"events_per_second"`
	// ErrorRate is (ERROR+CRITICAL)/total over the trailing error window,
	// in the range [0, 1]. Zero when no events fall inside the window.
	ErrorRate float64 `json:"error_rate"`
	// TopErrors ranks the most frequent distinct error messages,
	// bounded to the configured top-N
	TopErrors []ErrorCount `json:"top_errors"`
}
