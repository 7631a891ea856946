package cli

import (
	"github.com/smallbiznis/pharmapos/internal/migration"
	"github.com/smallbiznis/pharmapos/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API.

The schema is migrated and the bootstrap admin is seeded before the
listener opens. Configuration comes from the environment or a .env file.

Example:
  HTTP_ADDR=:8080 DATABASE_TYPE=sqlite pharmapos serve`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				infrastructure(rootOpts),
				server.Module,
				migration.Module,
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}
