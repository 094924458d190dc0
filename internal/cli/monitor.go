package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/logtap/logtap/internal/tui"
)

// monitorCmd attaches the interactive monitor to a running server
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive monitor for a running server",
	Long: `Opens a full-screen monitor showing the live log stream,
subscription states and statistics of a running logtap server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(apiAddr)

		if _, err := client.GetStatus(); err != nil {
			return fmt.Errorf("%v\nIs logtap running? Try 'logtap serve' first", err)
		}
		return tui.Run(client)
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}
