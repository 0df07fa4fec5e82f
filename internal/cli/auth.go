package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/costpulse/costpulse/internal/auth"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage API authentication",
	}

	cmd.AddCommand(newAuthTokenCmd())
	cmd.AddCommand(newAuthMintCmd())

	return cmd
}

func newAuthTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Store an API token for subsequent commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print("Paste API token: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("failed to read token: %w", err)
			}
			if len(raw) == 0 {
				return fmt.Errorf("token is empty")
			}

			viper.Set("auth.token", string(raw))
			if err := writeConfig(); err != nil {
				return err
			}
			fmt.Println("Token saved")
			return nil
		},
	}
}

// newAuthMintCmd signs a token locally with the server's JWT secret. Meant
// for operators with access to the server environment, not end users.
func newAuthMintCmd() *cobra.Command {
	var (
		userID int64
		email  string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint an API token using the JWT secret from the environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}

			token, err := auth.MintToken(userID, email, secret, ttl)
			if err != nil {
				return fmt.Errorf("failed to mint token: %w", err)
			}

			viper.Set("auth.token", token)
			if err := writeConfig(); err != nil {
				return err
			}
			fmt.Println("Token minted and saved")
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user-id", 1, "user ID to embed in the token")
	cmd.Flags().StringVar(&email, "email", "", "email to embed in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	return cmd
}
