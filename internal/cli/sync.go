package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync [account-id]",
		Short: "Sync cost data for all accounts, or one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid account id: %s", args[0])
				}
				result, err := apiClient.Sync().Account(cmd.Context(), id)
				if err != nil {
					return err
				}
				if getOutputFormat() != "table" {
					return printOutput(result)
				}
				status := formatStatus(result.Status)
				if result.Error != nil {
					status += " " + result.Error.Message
				}
				fmt.Printf("Account %d (%s): %s, %d anomalies\n",
					result.AccountID, result.ProviderID, status, result.AnomaliesFound)
				return nil
			}

			summary, err := apiClient.Sync().All(cmd.Context())
			if err != nil {
				return err
			}
			if getOutputFormat() != "table" {
				return printOutput(summary)
			}

			t := NewTable("ACCOUNT", "PROVIDER", "STATUS", "ANOMALIES", "CACHED")
			for _, r := range summary.Results {
				status := r.Status
				if r.Error != nil {
					status = fmt.Sprintf("%s (%s)", r.Status, r.Error.Code)
				}
				t.AddRow(
					strconv.FormatInt(r.AccountID, 10),
					r.ProviderID,
					formatStatus(status),
					strconv.Itoa(r.AnomaliesFound),
					strconv.FormatBool(r.FromCache),
				)
			}
			t.Render()
			fmt.Printf("\n%d total: %d succeeded, %d skipped, %d failed\n",
				summary.Total, summary.Succeeded, summary.Skipped, summary.Failed)
			return nil
		},
	}
	return cmd
}
