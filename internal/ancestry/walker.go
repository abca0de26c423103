// Package ancestry walks the live process tree upward to find the enclosing
// interactive shell session.
package ancestry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-ports/shess/internal/proc"
	"github.com/go-ports/shess/internal/shell"
)

// ErrNoInteractiveShell is returned when the walk reaches the tree root
// without collecting a single shell candidate or terminal boundary.
var ErrNoInteractiveShell = errors.New("no interactive shell found in process ancestry")

// Provider supplies per-pid process snapshots.
// proc.Table is the production implementation; tests use a synthetic table.
//
// Stat and Cmdline are separate queries on purpose: when a process exits
// between the two calls, the already-read Stat still carries the parent pid,
// so the walk can skip the vanished process and keep climbing.
type Provider interface {
	Stat(pid int) (proc.Stat, error)
	Cmdline(pid int) ([]string, error)
}

// ProcessState is one resolved ancestor, captured fresh from the live
// process table on every invocation and never cached across runs.
type ProcessState struct {
	PID                int       `json:"pid"`
	CreatedAt          time.Time `json:"created_at"`
	Cmdline            []string  `json:"cmdline"`
	IsShellCandidate   bool      `json:"is_shell_candidate"`
	IsTerminalBoundary bool      `json:"is_terminal_boundary"`
}

// Walker climbs parent links collecting shell candidates until it hits the
// terminal boundary or the tree root.
type Walker struct {
	table Provider
	log   *slog.Logger
}

// NewWalker creates a Walker over the given process table.
// A nil logger falls back to slog.Default.
func NewWalker(table Provider, log *slog.Logger) *Walker {
	if log == nil {
		log = slog.Default()
	}
	return &Walker{table: table, log: log}
}

// Walk resolves the ancestry chain starting at startPid, nearest first.
//
// Per visited process:
//   - pid 0 and 1 end the walk without being included.
//   - A failed stat read ends the walk: without the stat there is no parent
//     link left to follow. Reported, never fatal on its own.
//   - A failed cmdline read skips classification for that process but the
//     walk continues through its parent. Reported, never fatal.
//   - A process matching the interactive-shell heuristic is appended as a
//     shell candidate.
//   - The first process with no controlling terminal, seen after any
//     ancestor that had one, is the terminal boundary: it is appended
//     (possibly doubling as a shell candidate, one entry with both flags)
//     and the walk stops.
//
// An exhausted walk with zero collected entries fails with
// ErrNoInteractiveShell.
func (w *Walker) Walk(ctx context.Context, startPid int) ([]ProcessState, error) {
	var chain []ProcessState
	var lastTTY int64

	pid := startPid
	for pid > 1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stat, err := w.table.Stat(pid)
		if err != nil {
			// The process table mutates under us; a vanished ancestor is
			// expected, but its parent pid is unknown so the climb ends here.
			w.log.Warn("ancestry: stat failed, stopping walk", "pid", pid, "err", err)
			break
		}

		cmdline, err := w.table.Cmdline(pid)
		if err != nil {
			w.log.Warn("ancestry: cmdline failed, skipping process", "pid", pid, "err", err)
			cmdline = nil
		}

		state := ProcessState{
			PID:              pid,
			CreatedAt:        stat.StartTime,
			Cmdline:          cmdline,
			IsShellCandidate: len(cmdline) > 0 && shell.Classify(cmdline),
		}

		if !stat.HasTTY() && lastTTY != 0 {
			// Just past the last terminal-owning ancestor: this is probably
			// the terminal emulator. One entry even if it also classified
			// as a shell.
			state.IsTerminalBoundary = true
			chain = append(chain, state)
			break
		}
		if stat.HasTTY() {
			lastTTY = stat.TTYNr
		}

		if state.IsShellCandidate {
			chain = append(chain, state)
		}

		if stat.PPID == pid {
			// A self-parenting stat would loop forever.
			return nil, fmt.Errorf("ancestry: pid %d reports itself as parent", pid)
		}
		pid = stat.PPID
	}

	if len(chain) == 0 {
		return nil, ErrNoInteractiveShell
	}
	return chain, nil
}
