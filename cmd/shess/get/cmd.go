// Package getcmd implements the `shess get` command.
package getcmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/shess/cmd/shess/shared"
	"github.com/go-ports/shess/internal/scope"
	"github.com/go-ports/shess/internal/service"
)

// Command implements `shess get`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	raw bool
}

// New creates the get command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "get <key>",
		Short: "Read the value of the given key from the enclosing shell's scope",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}
	c.cmd.Flags().BoolVarP(&c.raw, "raw", "r", false, "If the value is a string, print it without JSON encoding")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	key := args[0]

	svc, err := service.New(c.ctx.CacheDir)
	if err != nil {
		return err
	}

	value, err := svc.Get(cmd.Context(), key)
	if errors.Is(err, scope.ErrKeyNotFound) {
		return fmt.Errorf("no value found for key %q", key)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if c.raw {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("--raw can only be used with string values, key %q holds %T", key, value)
		}
		fmt.Fprintln(out, s)
		return nil
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(encoded))
	return nil
}
