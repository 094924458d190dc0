package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/logtap/logtap/internal/api"
	"github.com/logtap/logtap/internal/constants"
)

var (
	logsLevels string
	logsQuery  string
	logsSource string
	logsLast   string
	logsLimit  int
	logsFollow bool
	jsonOutput bool

	alertsUnread      bool
	alertsSeverity    string
	alertsMinSeverity string
	alertsReadID      string
	alertsReadAll     bool
	alertsDismissID   string

	filterLevels string
	filterQuery  string
	filterSource string
	filterLast   string
	filterClear  bool

	exportFormat string
	exportOutput string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(apiAddr)
		status, err := client.GetStatus()
		if err != nil {
			return serverError(err)
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(status)
		}

		fmt.Printf("Status: %s\n", status.Status)
		fmt.Printf("Uptime: %s\n", formatDuration(time.Duration(status.UptimeSeconds)*time.Second))
		fmt.Printf("Config: %s\n", status.ConfigFile)
		fmt.Printf("Subscriptions: %d (%d connected)\n", status.Subscriptions, status.Connected)
		if status.Paused {
			fmt.Println("Stream: paused")
		} else {
			fmt.Println("Stream: live")
		}
		if status.UnreadAlerts > 0 {
			fmt.Printf("Unread alerts: %d\n", status.UnreadAlerts)
		}
		return nil
	},
}

var subsCmd = &cobra.Command{
	Use:   "subs",
	Short: "List subscriptions",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(apiAddr)
		subs, err := client.GetSubscriptions()
		if err != nil {
			return serverError(err)
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(subs)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPROVIDER\tSTATE\tEVENTS/S\tBUFFERED\tLAST SYNC")
		fmt.Fprintln(w, "--\t----\t--------\t-----\t--------\t--------\t---------")
		for _, s := range subs.Subscriptions {
			lastSync := "-"
			if s.LastSync != "" {
				if ts, err := time.Parse(time.RFC3339, s.LastSync); err == nil {
					lastSync = formatDuration(time.Since(ts)) + " ago"
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\t%d\t%s\n",
				s.ID, s.Name, s.Provider, s.State, s.EventsPerSecond, s.BufferedLogs, lastSync)
		}
		return w.Flush()
	},
}

var startSubCmd = &cobra.Command{
	Use:               "start-sub <id>",
	Short:             "Start streaming for a subscription",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeSubscriptionIDs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := NewClient(apiAddr).StartSubscription(args[0]); err != nil {
			return serverError(err)
		}
		fmt.Printf("Started subscription: %s\n", args[0])
		return nil
	},
}

var stopSubCmd = &cobra.Command{
	Use:               "stop-sub <id>",
	Short:             "Stop streaming for a subscription",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeSubscriptionIDs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := NewClient(apiAddr).StopSubscription(args[0]); err != nil {
			return serverError(err)
		}
		fmt.Printf("Stopped subscription: %s\n", args[0])
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show buffered logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := LogParams{
			Query:  logsQuery,
			Source: logsSource,
			Last:   logsLast,
			Limit:  logsLimit,
		}
		if logsLevels != "" {
			params.Levels = strings.Split(logsLevels, ",")
		}

		client := NewClient(apiAddr)

		if logsFollow {
			printer := NewLogPrinter()
			return client.StreamLogs(params, func(entry api.LogEntryResponse) {
				if jsonOutput {
					json.NewEncoder(os.Stdout).Encode(entry) //nolint:errcheck
				} else {
					printer.PrintAPIEntry(entry)
				}
			})
		}

		logs, err := client.GetLogs(params)
		if err != nil {
			return serverError(err)
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(logs)
		}

		// Buffered entries arrive newest-first; print oldest-first for
		// natural terminal reading
		printer := NewLogPrinter()
		for i := len(logs.Logs) - 1; i >= 0; i-- {
			printer.PrintAPIEntry(logs.Logs[i])
		}
		if logs.FilteredCount < logs.TotalCount {
			fmt.Printf("\n(showing %d of %d entries)\n", logs.FilteredCount, logs.TotalCount)
		}
		return nil
	},
}

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow the live log stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := LogParams{
			Query:  logsQuery,
			Source: logsSource,
		}
		if logsLevels != "" {
			params.Levels = strings.Split(logsLevels, ",")
		}

		printer := NewLogPrinter()
		return NewClient(apiAddr).StreamLogs(params, func(entry api.LogEntryResponse) {
			if jsonOutput {
				json.NewEncoder(os.Stdout).Encode(entry) //nolint:errcheck
			} else {
				printer.PrintAPIEntry(entry)
			}
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all buffered logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := NewClient(apiAddr).ClearLogs(); err != nil {
			return serverError(err)
		}
		fmt.Println("Buffers cleared")
		return nil
	},
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(apiAddr)

		switch {
		case alertsReadAll:
			if err := client.MarkAllAlertsRead(); err != nil {
				return serverError(err)
			}
			fmt.Println("All alerts marked read")
			return nil
		case alertsReadID != "":
			if err := client.MarkAlertRead(alertsReadID); err != nil {
				return serverError(err)
			}
			fmt.Printf("Alert marked read: %s\n", alertsReadID)
			return nil
		case alertsDismissID != "":
			if err := client.DismissAlert(alertsDismissID); err != nil {
				return serverError(err)
			}
			fmt.Printf("Alert dismissed: %s\n", alertsDismissID)
			return nil
		}

		alerts, err := client.GetAlerts(AlertParams{
			Unread:      alertsUnread,
			Severity:    alertsSeverity,
			MinSeverity: alertsMinSeverity,
		})
		if err != nil {
			return serverError(err)
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(alerts)
		}

		if len(alerts.Alerts) == 0 {
			fmt.Println("No alerts")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTIME\tSEVERITY\tTYPE\tSUBSCRIPTION\tMESSAGE")
		for _, a := range alerts.Alerts {
			marker := "*"
			if a.IsRead {
				marker = " "
			}
			ts := a.Timestamp
			if t, err := time.Parse(time.RFC3339Nano, a.Timestamp); err == nil {
				ts = t.Format("15:04:05")
			}
			fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t%s\t%s\n",
				marker, a.ID, ts, a.Severity, a.Type, a.SubscriptionID, a.Message)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if alerts.UnreadCount > 0 {
			fmt.Printf("\n%d unread\n", alerts.UnreadCount)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show streaming statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := NewClient(apiAddr).GetStats()
		if err != nil {
			return serverError(err)
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(stats)
		}

		fmt.Printf("Events today:   %d\n", stats.TotalToday)
		fmt.Printf("Throughput:     %.1f events/s\n", stats.EventsPerSecond)
		fmt.Printf("Error rate:     %.1f%%\n", stats.ErrorRate*100)
		if len(stats.TopErrors) > 0 {
			fmt.Println("\nTop errors:")
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, e := range stats.TopErrors {
				fmt.Fprintf(w, "  %d\t%s\n", e.Count, e.Message)
			}
			return w.Flush()
		}
		return nil
	},
}

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Show or set the stored filter",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(apiAddr)

		changed := filterClear || cmd.Flags().Changed("levels") ||
			cmd.Flags().Changed("query") || cmd.Flags().Changed("source") ||
			cmd.Flags().Changed("last")
		if changed {
			filter := api.FilterResponse{}
			if !filterClear {
				if filterLevels != "" {
					filter.Levels = strings.Split(filterLevels, ",")
				}
				filter.Query = filterQuery
				filter.Source = filterSource
				filter.Last = filterLast
			}
			if err := client.SetFilter(filter); err != nil {
				return serverError(err)
			}
			fmt.Println("Filter updated")
			return nil
		}

		filter, err := client.GetFilter()
		if err != nil {
			return serverError(err)
		}
		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(filter)
		}
		if len(filter.Levels) == 0 && filter.Query == "" && filter.Source == "" &&
			filter.Last == "" && filter.From == "" && filter.To == "" {
			fmt.Println("No filter set (all entries visible)")
			return nil
		}
		if len(filter.Levels) > 0 {
			fmt.Printf("Levels: %s\n", strings.Join(filter.Levels, ", "))
		}
		if filter.Query != "" {
			fmt.Printf("Query:  %s\n", filter.Query)
		}
		if filter.Source != "" {
			fmt.Printf("Source: %s\n", filter.Source)
		}
		if filter.Last != "" {
			fmt.Printf("Last:   %s\n", filter.Last)
		}
		if filter.From != "" {
			fmt.Printf("From:   %s\n", filter.From)
		}
		if filter.To != "" {
			fmt.Printf("To:     %s\n", filter.To)
		}
		return nil
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the stream view",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := NewClient(apiAddr).Pause(); err != nil {
			return serverError(err)
		}
		fmt.Println("Stream paused")
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume the stream view",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := NewClient(apiAddr).Resume(); err != nil {
			return serverError(err)
		}
		fmt.Println("Stream resumed")
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:       "export <logs|alerts>",
	Short:     "Export logs or alerts",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"logs", "alerts"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			out = f
		}
		if err := NewClient(apiAddr).Export(args[0], exportFormat, out); err != nil {
			return serverError(err)
		}
		if exportOutput != "" {
			fmt.Printf("Exported %s to %s\n", args[0], exportOutput)
		}
		return nil
	},
}

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Shut down the running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := NewClient(apiAddr).Shutdown(); err != nil {
			return serverError(err)
		}
		fmt.Println("Shutdown initiated")
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{statusCmd, subsCmd, logsCmd, tailCmd,
		alertsCmd, statsCmd, filterCmd, exportCmd} {
		cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	}

	logsCmd.Flags().StringVar(&logsLevels, "levels", "", "Comma-separated levels (e.g. ERROR,CRITICAL)")
	logsCmd.Flags().StringVarP(&logsQuery, "query", "q", "", "Case-insensitive text query")
	logsCmd.Flags().StringVar(&logsSource, "source", "", "Source filter")
	logsCmd.Flags().StringVar(&logsLast, "last", "", "Time window (e.g. 15m, 1h)")
	logsCmd.Flags().IntVarP(&logsLimit, "limit", "n", constants.DefaultLogLimit, "Max entries to return")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow the live stream")

	tailCmd.Flags().StringVar(&logsLevels, "levels", "", "Comma-separated levels (e.g. ERROR,CRITICAL)")
	tailCmd.Flags().StringVarP(&logsQuery, "query", "q", "", "Case-insensitive text query")
	tailCmd.Flags().StringVar(&logsSource, "source", "", "Source filter")

	alertsCmd.Flags().BoolVar(&alertsUnread, "unread", false, "Only unread alerts")
	alertsCmd.Flags().StringVar(&alertsSeverity, "severity", "", "Exact severity (low|medium|high|critical)")
	alertsCmd.Flags().StringVar(&alertsMinSeverity, "min-severity", "", "Minimum severity")
	alertsCmd.Flags().StringVar(&alertsReadID, "read", "", "Mark one alert read by id")
	alertsCmd.Flags().BoolVar(&alertsReadAll, "read-all", false, "Mark all alerts read")
	alertsCmd.Flags().StringVar(&alertsDismissID, "dismiss", "", "Dismiss one alert by id")

	filterCmd.Flags().StringVar(&filterLevels, "levels", "", "Comma-separated levels")
	filterCmd.Flags().StringVarP(&filterQuery, "query", "q", "", "Case-insensitive text query")
	filterCmd.Flags().StringVar(&filterSource, "source", "", "Source filter")
	filterCmd.Flags().StringVar(&filterLast, "last", "", "Time window (e.g. 15m, 1h)")
	filterCmd.Flags().BoolVar(&filterClear, "clear", false, "Clear the stored filter")

	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Export format (json|csv)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")

	rootCmd.AddCommand(statusCmd, subsCmd, startSubCmd, stopSubCmd, logsCmd,
		tailCmd, clearCmd, alertsCmd, statsCmd, filterCmd, pauseCmd, resumeCmd,
		exportCmd, shutdownCmd)
}

// completeSubscriptionIDs provides shell completion for subscription ids
func completeSubscriptionIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return subscriptionIDs(), cobra.ShellCompDirectiveNoFileComp
}

// serverError decorates connection failures with a hint
func serverError(err error) error {
	if strings.Contains(err.Error(), "connection refused") {
		return fmt.Errorf("%v\nIs logtap running? Try 'logtap serve' first", err)
	}
	return err
}

// formatDuration formats a duration nicely
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
