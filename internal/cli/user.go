package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/readyresponse/dispatch/internal/models"
	"github.com/readyresponse/dispatch/internal/types"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func UserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account with a role",
		Args:  cobra.NoArgs,
		RunE:  runUserCreate,
	}
	create.Flags().String("name", "", "display name")
	create.Flags().String("email", "", "login email")
	create.Flags().String("password", "", "initial password")
	create.Flags().String("role", "", "community, agency or coordinator")
	create.Flags().String("org", "", "organization name (agencies)")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")
	_ = create.MarkFlagRequired("role")

	cmd.AddCommand(create)
	return cmd
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	role, _ := cmd.Flags().GetString("role")
	org, _ := cmd.Flags().GetString("org")

	if !types.IsRole(role) {
		return fmt.Errorf("invalid role: %s\nValid roles: %s", role, strings.Join(types.Roles, ", "))
	}

	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	env, err := loadEnv()
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		Role:         role,
		IsVerified:   true,
	}
	if org != "" {
		user.OrganizationName = &org
	}

	if err := env.DB.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s Created user %d: %s\n", okMark, user.ID, user.Name)
	fmt.Fprintf(out, "  Role: %s\n", user.Role)
	if user.OrganizationName == nil && role == types.RoleAgency {
		fmt.Fprintf(out, "  %s\n", warnText("no organization set"))
	}
	return nil
}
