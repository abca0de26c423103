// Package rootcmd wires the root cobra.Command for the shess CLI binary.
package rootcmd

import (
	"github.com/spf13/cobra"

	configcmd "github.com/go-ports/shess/cmd/shess/config"
	debugcmd "github.com/go-ports/shess/cmd/shess/debug"
	getcmd "github.com/go-ports/shess/cmd/shess/get"
	listcmd "github.com/go-ports/shess/cmd/shess/list"
	mcpcmd "github.com/go-ports/shess/cmd/shess/mcp"
	scopecmd "github.com/go-ports/shess/cmd/shess/scope"
	setcmd "github.com/go-ports/shess/cmd/shess/set"
	"github.com/go-ports/shess/cmd/shess/shared"
)

// New creates and returns the root cobra.Command for the shess CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "shess",
		Short:         "shess — key-value state scoped to the enclosing interactive shell",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	root.PersistentFlags().StringVar(
		&ctx.CacheDir, "cache-dir", "",
		"Override scope cache directory (default: $SHESS_CACHE_DIR env → persisted config → ~/.cache/shess)",
	)

	root.AddCommand(
		getcmd.New(ctx).Cmd(),
		setcmd.New(ctx).Cmd(),
		listcmd.New(ctx).Cmd(),
		scopecmd.New(ctx).Cmd(),
		debugcmd.New(ctx).Cmd(),
		configcmd.New(ctx).Cmd(),
		mcpcmd.New(ctx).Cmd(),
	)

	return root
}
