package ancestry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/shess/internal/ancestry"
	"github.com/go-ports/shess/internal/proc"
)

// fakeProc is a synthetic, fully controllable process table.
type fakeProc struct {
	stats       map[int]proc.Stat
	cmdlines    map[int][]string
	statErrs    map[int]error
	cmdlineErrs map[int]error
}

func newFakeProc() *fakeProc {
	return &fakeProc{
		stats:       make(map[int]proc.Stat),
		cmdlines:    make(map[int][]string),
		statErrs:    make(map[int]error),
		cmdlineErrs: make(map[int]error),
	}
}

func (f *fakeProc) add(pid, ppid int, tty int64, cmdline ...string) {
	f.stats[pid] = proc.Stat{
		PID:       pid,
		PPID:      ppid,
		StartTime: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(pid) * time.Second),
		TTYNr:     tty,
	}
	f.cmdlines[pid] = cmdline
}

func (f *fakeProc) Stat(pid int) (proc.Stat, error) {
	if err := f.statErrs[pid]; err != nil {
		return proc.Stat{}, err
	}
	s, ok := f.stats[pid]
	if !ok {
		return proc.Stat{}, proc.ErrNoSuchProcess
	}
	return s, nil
}

func (f *fakeProc) Cmdline(pid int) ([]string, error) {
	if err := f.cmdlineErrs[pid]; err != nil {
		return nil, err
	}
	if _, ok := f.stats[pid]; !ok {
		return nil, proc.ErrNoSuchProcess
	}
	return f.cmdlines[pid], nil
}

const pts3 = int64(34819)

func TestWalk_HappyPath(t *testing.T) {
	c := qt.New(t)

	// 1000 (this process) → 500 bash on a tty → 200 terminal emulator
	// (no tty) → 1 init.
	f := newFakeProc()
	f.add(1000, 500, pts3, "shess", "get", "k")
	f.add(500, 200, pts3, "bash")
	f.add(200, 1, 0, "gnome-terminal-server")
	f.add(1, 0, 0, "init")

	chain, err := ancestry.NewWalker(f, nil).Walk(context.Background(), 1000)
	c.Assert(err, qt.IsNil)
	c.Assert(chain, qt.HasLen, 2)

	c.Assert(chain[0].PID, qt.Equals, 500)
	c.Assert(chain[0].IsShellCandidate, qt.IsTrue)
	c.Assert(chain[0].IsTerminalBoundary, qt.IsFalse)
	c.Assert(chain[0].Cmdline, qt.DeepEquals, []string{"bash"})

	c.Assert(chain[1].PID, qt.Equals, 200)
	c.Assert(chain[1].IsShellCandidate, qt.IsFalse)
	c.Assert(chain[1].IsTerminalBoundary, qt.IsTrue)
}

func TestWalk_NestedShells(t *testing.T) {
	c := qt.New(t)

	// Two nested interactive shells under one terminal: both collected,
	// nearest first.
	f := newFakeProc()
	f.add(1000, 600, pts3, "shess", "get", "k")
	f.add(600, 500, pts3, "zsh", "-i")
	f.add(500, 200, pts3, "-bash")
	f.add(200, 1, 0, "xterm")

	chain, err := ancestry.NewWalker(f, nil).Walk(context.Background(), 1000)
	c.Assert(err, qt.IsNil)

	pids := make([]int, len(chain))
	for i, st := range chain {
		pids[i] = st.PID
	}
	c.Assert(pids, qt.DeepEquals, []int{600, 500, 200})
	c.Assert(chain[2].IsTerminalBoundary, qt.IsTrue)
}

func TestWalk_BoundaryIsAlsoShellCandidate(t *testing.T) {
	c := qt.New(t)

	// The tty-less ancestor classifies as a shell too (e.g. a login shell
	// that spawned the terminal): one entry, both flags, walk stops.
	f := newFakeProc()
	f.add(1000, 500, pts3, "shess")
	f.add(500, 300, pts3, "bash")
	f.add(300, 1, 0, "zsh")
	f.add(1, 0, 0, "init")

	chain, err := ancestry.NewWalker(f, nil).Walk(context.Background(), 1000)
	c.Assert(err, qt.IsNil)
	c.Assert(chain, qt.HasLen, 2)

	last := chain[1]
	c.Assert(last.PID, qt.Equals, 300)
	c.Assert(last.IsShellCandidate, qt.IsTrue)
	c.Assert(last.IsTerminalBoundary, qt.IsTrue)
}

func TestWalk_CmdlineFailureSkipsProcess(t *testing.T) {
	c := qt.New(t)

	// 600's cmdline vanished mid-walk: it is skipped but the walk keeps
	// climbing through its already-known parent.
	f := newFakeProc()
	f.add(1000, 600, pts3, "shess")
	f.add(600, 500, pts3, "bash")
	f.cmdlineErrs[600] = proc.ErrNoSuchProcess
	f.add(500, 200, pts3, "bash")
	f.add(200, 1, 0, "xterm")

	chain, err := ancestry.NewWalker(f, nil).Walk(context.Background(), 1000)
	c.Assert(err, qt.IsNil)
	c.Assert(chain, qt.HasLen, 2)
	c.Assert(chain[0].PID, qt.Equals, 500)
	c.Assert(chain[1].PID, qt.Equals, 200)
}

func TestWalk_StatFailureStopsWalk(t *testing.T) {
	c := qt.New(t)

	// Once a stat read fails there is no parent link left to follow; the
	// entries collected so far still form a valid chain.
	f := newFakeProc()
	f.add(1000, 500, pts3, "shess")
	f.add(500, 300, pts3, "bash")
	f.statErrs[300] = proc.ErrNoSuchProcess

	chain, err := ancestry.NewWalker(f, nil).Walk(context.Background(), 1000)
	c.Assert(err, qt.IsNil)
	c.Assert(chain, qt.HasLen, 1)
	c.Assert(chain[0].PID, qt.Equals, 500)
}

func TestWalk_NoInteractiveShell(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name  string
		setup func(f *fakeProc)
	}{
		{
			name: "no shells anywhere, no tty transition",
			setup: func(f *fakeProc) {
				f.add(1000, 400, 0, "shess")
				f.add(400, 1, 0, "cron")
			},
		},
		{
			name: "start process stat already gone",
			setup: func(f *fakeProc) {
				f.statErrs[1000] = proc.ErrNoSuchProcess
			},
		},
		{
			name: "shell ancestor is running a script",
			setup: func(f *fakeProc) {
				f.add(1000, 400, 0, "shess")
				f.add(400, 1, 0, "bash", "deploy.sh")
			},
		},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			f := newFakeProc()
			tc.setup(f)
			_, err := ancestry.NewWalker(f, nil).Walk(context.Background(), 1000)
			c.Assert(errors.Is(err, ancestry.ErrNoInteractiveShell), qt.IsTrue)
		})
	}
}

func TestWalk_StopsBeforeInit(t *testing.T) {
	c := qt.New(t)

	// init (pid 1) is a "shell candidate" by cmdline here, but pids 0 and 1
	// are never visited.
	f := newFakeProc()
	f.add(1000, 500, pts3, "shess")
	f.add(500, 1, pts3, "bash")
	f.add(1, 0, 0, "sh")

	chain, err := ancestry.NewWalker(f, nil).Walk(context.Background(), 1000)
	c.Assert(err, qt.IsNil)
	c.Assert(chain, qt.HasLen, 1)
	c.Assert(chain[0].PID, qt.Equals, 500)
}

func TestWalk_SelfParentingStat(t *testing.T) {
	c := qt.New(t)

	f := newFakeProc()
	f.add(1000, 1000, pts3, "shess")

	_, err := ancestry.NewWalker(f, nil).Walk(context.Background(), 1000)
	c.Assert(err, qt.IsNotNil)
	c.Assert(errors.Is(err, ancestry.ErrNoInteractiveShell), qt.IsFalse)
}

func TestWalk_ContextCancelled(t *testing.T) {
	c := qt.New(t)

	f := newFakeProc()
	f.add(1000, 500, pts3, "shess")
	f.add(500, 1, pts3, "bash")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ancestry.NewWalker(f, nil).Walk(ctx, 1000)
	c.Assert(errors.Is(err, context.Canceled), qt.IsTrue)
}
