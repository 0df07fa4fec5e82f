package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/costpulse/costpulse/pkg/client"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage billing accounts",
	}

	cmd.AddCommand(newAccountListCmd())
	cmd.AddCommand(newAccountAddCmd())
	cmd.AddCommand(newAccountDeleteCmd())
	cmd.AddCommand(newAccountCostsCmd())
	cmd.AddCommand(newAccountProvidersCmd())

	return cmd
}

func newAccountListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := apiClient.Accounts().List(cmd.Context())
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(accounts)
			}

			t := NewTable("ID", "PROVIDER", "NAME", "LAST SYNCED")
			for _, a := range accounts {
				lastSynced := "never"
				if a.LastSyncedAt != nil {
					lastSynced = a.LastSyncedAt.Format(time.RFC3339)
				}
				t.AddRow(strconv.FormatInt(a.ID, 10), a.ProviderID, a.Name, lastSynced)
			}
			t.Render()
			return nil
		},
	}
}

// credentialKeys lists the credential fields prompted for per provider.
var credentialKeys = map[string][]string{
	"aws":          {"access_key_id", "secret_access_key", "region"},
	"azure":        {"tenant_id", "client_id", "client_secret", "subscription_id"},
	"gcp":          {"project_id", "billing_table", "service_account_json"},
	"digitalocean": {"api_token"},
	"linode":       {"api_token"},
	"vercel":       {"api_token", "team_id"},
	"openai":       {"api_key", "organization_id"},
}

func newAccountAddCmd() *cobra.Command {
	var (
		providerID string
		name       string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a billing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, ok := credentialKeys[providerID]
			if !ok {
				return fmt.Errorf("unknown provider: %s", providerID)
			}

			reader := bufio.NewReader(os.Stdin)
			creds := make(map[string]string, len(keys))
			for _, key := range keys {
				// Secret-looking fields are read without echo
				if strings.Contains(key, "secret") || strings.Contains(key, "token") || strings.Contains(key, "key") {
					fmt.Printf("%s: ", key)
					raw, err := term.ReadPassword(int(os.Stdin.Fd()))
					fmt.Println()
					if err != nil {
						return fmt.Errorf("failed to read %s: %w", key, err)
					}
					creds[key] = string(raw)
				} else {
					fmt.Printf("%s: ", key)
					value, _ := reader.ReadString('\n')
					creds[key] = strings.TrimSpace(value)
				}
			}

			account, err := apiClient.Accounts().Create(cmd.Context(), client.CreateAccountRequest{
				ProviderID:  providerID,
				Name:        name,
				Credentials: creds,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Account %d registered for %s\n", account.ID, account.ProviderID)
			return nil
		},
	}

	cmd.Flags().StringVar(&providerID, "provider", "", "provider ID (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newAccountDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account and all derived data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid account id: %s", args[0])
			}
			if err := apiClient.Accounts().Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("Account %d deleted\n", id)
			return nil
		},
	}
}

func newAccountCostsCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "costs <id>",
		Short: "Show an account's latest snapshot and daily costs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid account id: %s", args[0])
			}

			snap, err := apiClient.Accounts().LatestSnapshot(cmd.Context(), id)
			if err != nil {
				return err
			}

			if getOutputFormat() != "table" {
				return printOutput(snap)
			}

			fmt.Printf("Provider: %s  Month-to-date: $%.2f  Last month: $%.2f  Forecast: $%.2f\n\n",
				snap.ProviderID, snap.CurrentMonthCost, snap.LastMonthCost, snap.ForecastCost)

			t := NewTable("SERVICE", "COST", "CHANGE")
			for _, svc := range snap.Services {
				t.AddRow(svc.Name, fmt.Sprintf("$%.2f", svc.Cost), fmt.Sprintf("%+.1f%%", svc.ChangePct))
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "trailing window for daily costs")
	return cmd
}

func newAccountProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			providers, err := apiClient.Accounts().Providers(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range providers {
				fmt.Println(p)
			}
			return nil
		},
	}
}
