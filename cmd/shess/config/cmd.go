// Package configcmd implements the `shess config` command group.
package configcmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-ports/shess/cmd/shess/shared"
	"github.com/go-ports/shess/internal/config"
)

// Command implements `shess config`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the config command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		RunE:  c.runShow,
	}
	c.cmd.AddCommand(
		newSetDir(),
		newClearDir(),
	)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) runShow(cmd *cobra.Command, _ []string) error {
	dir, source := config.ResolveCacheDir()
	if c.ctx.CacheDir != "" {
		dir = c.ctx.CacheDir
		source = "flag"
	}
	data := map[string]any{
		"cache_dir":        dir,
		"cache_dir_source": source,
	}
	b, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(b))
	return nil
}

// ---------------------------------------------------------------------------
// config set-dir
// ---------------------------------------------------------------------------

func newSetDir() *cobra.Command {
	return &cobra.Command{
		Use:   "set-dir <path>",
		Short: "Persist cache directory location (used when SHESS_CACHE_DIR is unset)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := config.SetPersistedCacheDir(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Persisted cache directory: %s\n", resolved)
			fmt.Fprintln(out, "Override anytime with SHESS_CACHE_DIR.")
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// config clear-dir
// ---------------------------------------------------------------------------

func newClearDir() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-dir",
		Short: "Remove persisted cache directory location from global config",
		RunE: func(cmd *cobra.Command, _ []string) error {
			changed, err := config.ClearPersistedCacheDir()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if changed {
				fmt.Fprintln(out, "Cleared persisted cache directory setting.")
			} else {
				fmt.Fprintln(out, "No persisted cache directory setting was found.")
			}
			return nil
		},
	}
}
