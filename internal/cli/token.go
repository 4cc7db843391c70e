package cli

import (
	"fmt"

	"github.com/readyresponse/dispatch/internal/auth"
	"github.com/readyresponse/dispatch/internal/models"
	"github.com/spf13/cobra"
)

func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue bearer tokens",
	}

	issue := &cobra.Command{
		Use:   "issue",
		Short: "Print a bearer token for an existing user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetUint("user-id")
			if userID == 0 {
				return fmt.Errorf("--user-id is required")
			}

			env, err := loadEnv()
			if err != nil {
				return err
			}

			if err := auth.InitJWTSecret(env.Config.JWTSecret); err != nil {
				return err
			}

			var user models.User
			if err := env.DB.First(&user, userID).Error; err != nil {
				return fmt.Errorf("user %d not found: %w", userID, err)
			}

			token, err := auth.GenerateJWT(user.ID, user.Role, env.Config.TokenTTL)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issue.Flags().Uint("user-id", 0, "id of the user the token is for")

	cmd.AddCommand(issue)
	return cmd
}
