package cli

import (
	"fmt"
	"time"

	"github.com/logtap/logtap/internal/api"
	"github.com/logtap/logtap/internal/constants"
	"github.com/logtap/logtap/internal/domain"
)

// LogPrinter handles consistent log formatting and color assignment
type LogPrinter struct {
	colors     map[string]string
	colorIndex int
}

// NewLogPrinter creates a new LogPrinter
func NewLogPrinter() *LogPrinter {
	return &LogPrinter{
		colors: make(map[string]string),
	}
}

// PrintEntry prints a log entry with consistent color assignment
func (lp *LogPrinter) PrintEntry(entry domain.LogEntry) {
	lp.print(entry.Timestamp, string(entry.Level), entry.SubscriptionID, entry.Source, entry.Message)
}

// PrintAPIEntry prints an API log entry response
func (lp *LogPrinter) PrintAPIEntry(entry api.LogEntryResponse) {
	ts, err := time.Parse(time.RFC3339Nano, entry.Timestamp)
	if err != nil {
		ts = time.Now()
	}
	lp.print(ts, entry.Level, entry.Subscription, entry.Source, entry.Message)
}

func (lp *LogPrinter) print(ts time.Time, level, subscription, source, message string) {
	subColor := lp.getColor(subscription)
	levelColor := constants.LevelColors[level]

	origin := subscription
	if source != "" {
		origin = subscription + "/" + source
	}

	fmt.Printf("%s %s%-8s%s %s%-12s%s | %s\n",
		ts.Format("15:04:05"),
		levelColor, level, constants.ColorReset,
		subColor, origin, constants.ColorReset,
		message)
}

func (lp *LogPrinter) getColor(subscription string) string {
	color, ok := lp.colors[subscription]
	if !ok {
		color = constants.SubscriptionColors[lp.colorIndex%len(constants.SubscriptionColors)]
		lp.colors[subscription] = color
		lp.colorIndex++
	}
	return color
}
