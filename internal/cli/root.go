package cli

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pharmapos/internal/clock"
	"github.com/smallbiznis/pharmapos/internal/config"
	"github.com/smallbiznis/pharmapos/internal/observability"
	"github.com/smallbiznis/pharmapos/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the pharmapos command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "pharmapos",
		Short: "Pharmacy point-of-sale backend",
		Long:  "Runs the pharmacy POS HTTP API and its maintenance tasks.",

		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "print dependency injection events")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))

	return cmd
}

// infrastructure is shared by every command that touches the database.
func infrastructure(opts *RootOptions) fx.Option {
	options := []fx.Option{
		config.Module,
		observability.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,
	}
	if opts == nil || !opts.Verbose {
		options = append(options, fx.NopLogger)
	}
	return fx.Options(options...)
}

func newSnowflakeNode(cfg config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.NodeID, err)
	}
	return node, nil
}
