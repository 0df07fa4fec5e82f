package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := apiClient.Health().Ready(cmd.Context())
			if err != nil {
				return fmt.Errorf("server not ready: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(status)
			}

			t := NewTable("COMPONENT", "STATUS")
			for component, state := range status {
				t.AddRow(component, formatStatus(state))
			}
			t.Render()
			return nil
		},
	}
}
