// Package debugcmd implements the `shess debug` command group.
package debugcmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/shess/cmd/shess/shared"
	"github.com/go-ports/shess/internal/service"
	"github.com/go-ports/shess/internal/shell"
)

// Command implements `shess debug`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the debug command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "debug",
		Short: "Debugging utilities",
		RunE:  func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}
	c.cmd.AddCommand(
		newParents(ctx),
		newClassify(),
	)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

// ---------------------------------------------------------------------------
// debug parents
// ---------------------------------------------------------------------------

func newParents(ctx *shared.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "parents",
		Short: "Print the resolved shell ancestry, one JSON record per line, nearest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := service.New(ctx.CacheDir)
			if err != nil {
				return err
			}
			parents, err := svc.Parents(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, p := range parents {
				if err := enc.Encode(p); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// debug classify
// ---------------------------------------------------------------------------

func newClassify() *cobra.Command {
	return &cobra.Command{
		Use:   "classify -- <argv0> [args...]",
		Short: "Dry-run the interactive-shell heuristic on a command line (use -- before dashed args)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), shell.Classify(args))
			return nil
		},
	}
}
