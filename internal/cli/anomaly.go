package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/costpulse/costpulse/pkg/client"
)

func newAnomalyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anomaly",
		Short: "Review and resolve cost anomalies",
	}

	cmd.AddCommand(newAnomalyListCmd())
	cmd.AddCommand(newAnomalyShowCmd())
	cmd.AddCommand(newAnomalyStatusCmd())

	return cmd
}

func newAnomalyListCmd() *cobra.Command {
	var (
		accountID int64
		status    string
		severity  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List anomaly events",
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := apiClient.Anomalies().List(cmd.Context(), client.AnomalyFilter{
				AccountID: accountID,
				Status:    status,
				Severity:  severity,
			})
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(page)
			}

			t := NewTable("ID", "DATE", "SERVICE", "TYPE", "SEVERITY", "VARIANCE", "STATUS")
			for _, ev := range page.Data {
				t.AddRow(
					ev.ID[:8],
					ev.DetectedDate.Format("2006-01-02"),
					ev.ServiceName,
					ev.AnomalyType,
					formatSeverity(ev.Severity),
					fmt.Sprintf("%+.1f%%", ev.VariancePercent),
					formatStatus(ev.ResolutionStatus),
				)
			}
			t.Render()
			fmt.Printf("\n%d of %d events\n", len(page.Data), page.TotalItems)
			return nil
		},
	}

	cmd.Flags().Int64Var(&accountID, "account", 0, "filter by account ID")
	cmd.Flags().StringVar(&status, "status", "", "filter by resolution status")
	cmd.Flags().StringVar(&severity, "severity", "", "filter by severity")

	return cmd
}

func newAnomalyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one anomaly event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := apiClient.Anomalies().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(ev)
			}

			fmt.Printf("%s %s on %s/%s (%s)\n", formatSeverity(ev.Severity), ev.AnomalyType,
				ev.ProviderID, ev.ServiceName, ev.DetectedDate.Format("2006-01-02"))
			fmt.Printf("Expected $%.2f, actual $%.2f (%+.1f%%), status %s\n\n",
				ev.ExpectedCost, ev.ActualCost, ev.VariancePercent, ev.ResolutionStatus)

			if len(ev.ContributingServices) > 0 {
				t := NewTable("SERVICE", "DELTA", "CURRENT")
				for _, sc := range ev.ContributingServices {
					t.AddRow(sc.Name, fmt.Sprintf("%+.2f", sc.Delta), fmt.Sprintf("$%.2f", sc.CurrentCost))
				}
				t.Render()
			}
			return nil
		},
	}
}

func newAnomalyStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "resolve <id> <status>",
		Short:     "Move an anomaly through the resolution workflow",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"acknowledged", "investigating", "resolved", "false_positive"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := apiClient.Anomalies().UpdateStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Anomaly %s is now %s\n", ev.ID[:8], ev.ResolutionStatus)
			return nil
		},
	}
}
