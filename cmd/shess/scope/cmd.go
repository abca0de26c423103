// Package scopecmd implements the `shess scope` command.
package scopecmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-ports/shess/cmd/shess/shared"
	"github.com/go-ports/shess/internal/service"
)

// Command implements `shess scope`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	inherit   bool
	noInherit bool
}

// New creates the scope command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "scope",
		Short: "Show the nearest shell scope, or toggle its inheritance",
		Long: `Show the nearest shell scope (pid, creation time, inheritance, keys).

With --no-inherit, lookups that miss in this scope stop here instead of
falling through to parent shells. --inherit restores fall-through.`,
		Args: cobra.NoArgs,
		RunE: c.run,
	}
	f := c.cmd.Flags()
	f.BoolVar(&c.inherit, "inherit", false, "Allow lookups to fall through to parent scopes (default for new scopes)")
	f.BoolVar(&c.noInherit, "no-inherit", false, "Stop lookups from falling through to parent scopes")
	c.cmd.MarkFlagsMutuallyExclusive("inherit", "no-inherit")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	svc, err := service.New(c.ctx.CacheDir)
	if err != nil {
		return err
	}

	if c.inherit || c.noInherit {
		if err := svc.SetInherit(cmd.Context(), c.inherit); err != nil {
			return err
		}
	}

	id, rec, ok, err := svc.Scope(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "pid:        %d\n", id.PID)
	fmt.Fprintf(out, "created at: %s\n", id.CreatedAt.Format(time.RFC3339))
	if !ok {
		fmt.Fprintln(out, "record:     none (no keys set in this scope yet)")
		return nil
	}

	fmt.Fprintf(out, "inherit:    %t\n", rec.Inherit)
	keys := make([]string, 0, len(rec.Data))
	for k := range rec.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(out, "keys:       %d\n", len(keys))
	for _, k := range keys {
		fmt.Fprintf(out, "  %s\n", k)
	}
	return nil
}
