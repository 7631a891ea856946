package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/pharmapos/internal/auth"
	authdomain "github.com/smallbiznis/pharmapos/internal/auth/domain"
	"github.com/smallbiznis/pharmapos/internal/migration"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// UserCreateOptions holds flags for the user create command.
type UserCreateOptions struct {
	*RootOptions
	Name     string
	Email    string
	Password string
	Role     string
}

func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}
	cmd.AddCommand(NewUserCreateCommand(rootOpts))
	return cmd
}

func NewUserCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UserCreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff account",
		Long: `Create a staff account with the given role.

Example:
  pharmapos user create --name "Maria Santos" --email maria@example.com --password s3cret! --role cashier`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := authdomain.ParseRole(strings.ToLower(strings.TrimSpace(opts.Role))); !ok {
				return fmt.Errorf("invalid role %q: must be one of admin, manager, cashier", opts.Role)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc authdomain.Service
			app := fx.New(
				infrastructure(opts.RootOptions),
				auth.Module,
				migration.Module,
				fx.Populate(&svc),
			)
			return runOnce(cmd.Context(), app, func(ctx context.Context) error {
				return createUser(ctx, cmd, svc, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&opts.Email, "email", "", "login email (required)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "initial password (required)")
	cmd.Flags().StringVar(&opts.Role, "role", string(authdomain.RoleCashier), "admin, manager or cashier")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func createUser(ctx context.Context, cmd *cobra.Command, svc authdomain.Service, opts *UserCreateOptions) error {
	user, err := svc.CreateUser(ctx, authdomain.CreateUserRequest{
		Name:     opts.Name,
		Email:    opts.Email,
		Password: opts.Password,
		Role:     strings.ToLower(strings.TrimSpace(opts.Role)),
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.Email, user.ID)
	return nil
}
