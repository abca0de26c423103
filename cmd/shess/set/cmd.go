// Package setcmd implements the `shess set` command.
package setcmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/shess/cmd/shess/shared"
	"github.com/go-ports/shess/internal/service"
)

// Command implements `shess set`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	raw bool
}

// New creates the set command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "set <key> [value]",
		Short: "Set the value of the given key in the nearest shell scope",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  c.run,
	}
	c.cmd.Flags().BoolVarP(&c.raw, "raw", "r", false, "Interpret the value as a raw string, not JSON")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	key := args[0]

	// An omitted value stores JSON null.
	var value any
	if len(args) == 2 {
		if c.raw {
			value = args[1]
		} else {
			if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
				return fmt.Errorf("value is not valid JSON: %w (use --raw to store it as a string)", err)
			}
		}
	}

	svc, err := service.New(c.ctx.CacheDir)
	if err != nil {
		return err
	}
	return svc.Set(cmd.Context(), key, value)
}
