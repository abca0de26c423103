// Package listcmd implements the `shess list` command.
package listcmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/go-ports/shess/cmd/shess/shared"
	"github.com/go-ports/shess/internal/service"
)

// Command implements `shess list`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	asJSON bool
}

// New creates the list command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "list",
		Short: "List all keys visible from the nearest shell scope",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().BoolVar(&c.asJSON, "json", false, "Print entries as a JSON array")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	svc, err := service.New(c.ctx.CacheDir)
	if err != nil {
		return err
	}

	entries, err := svc.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if c.asJSON {
		b, err := json.Marshal(entries)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No keys visible from the current scope.")
		return nil
	}

	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE\tSCOPE PID")
	for _, e := range entries {
		val, err := json.Marshal(e.Value)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%d\n", e.Key, val, e.PID)
	}
	return w.Flush()
}
