package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/shess/internal/ancestry"
	"github.com/go-ports/shess/internal/proc"
	"github.com/go-ports/shess/internal/scope"
	"github.com/go-ports/shess/internal/service"
)

// fakeProc mirrors a small live process table:
//
//	1000 shess (this process, on pts) → 600 inner zsh → 500 outer bash
//	→ 200 terminal emulator (no tty) → 1 init
type fakeProc struct {
	stats    map[int]proc.Stat
	cmdlines map[int][]string
}

func (f *fakeProc) Stat(pid int) (proc.Stat, error) {
	s, ok := f.stats[pid]
	if !ok {
		return proc.Stat{}, proc.ErrNoSuchProcess
	}
	return s, nil
}

func (f *fakeProc) Cmdline(pid int) ([]string, error) {
	args, ok := f.cmdlines[pid]
	if !ok {
		return nil, proc.ErrNoSuchProcess
	}
	return args, nil
}

func newFakeProc() *fakeProc {
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	f := &fakeProc{
		stats:    make(map[int]proc.Stat),
		cmdlines: make(map[int][]string),
	}
	add := func(pid, ppid int, tty int64, cmdline ...string) {
		f.stats[pid] = proc.Stat{PID: pid, PPID: ppid, StartTime: t0.Add(time.Duration(pid) * time.Second), TTYNr: tty}
		f.cmdlines[pid] = cmdline
	}
	add(1000, 600, 34819, "shess", "set", "k", "v")
	add(600, 500, 34819, "zsh", "-i")
	add(500, 200, 34819, "-bash")
	add(200, 1, 0, "gnome-terminal-server")
	add(1, 0, 0, "init")
	return f
}

func newService(c *qt.C) *service.Service {
	svc, err := service.NewWithTable(c.TempDir(), newFakeProc(), 1000)
	c.Assert(err, qt.IsNil)
	return svc
}

func TestSetGet_HappyPath(t *testing.T) {
	c := qt.New(t)
	svc := newService(c)
	ctx := context.Background()

	c.Assert(svc.Set(ctx, "branch", "main"), qt.IsNil)

	val, err := svc.Get(ctx, "branch")
	c.Assert(err, qt.IsNil)
	c.Assert(val, qt.Equals, "main")
}

func TestGet_MissingKey(t *testing.T) {
	c := qt.New(t)
	svc := newService(c)

	_, err := svc.Get(context.Background(), "nope")
	c.Assert(errors.Is(err, scope.ErrKeyNotFound), qt.IsTrue)
}

func TestParents_ChainShape(t *testing.T) {
	c := qt.New(t)
	svc := newService(c)

	parents, err := svc.Parents(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(parents, qt.HasLen, 3)
	c.Assert(parents[0].PID, qt.Equals, 600)
	c.Assert(parents[1].PID, qt.Equals, 500)
	c.Assert(parents[2].PID, qt.Equals, 200)
	c.Assert(parents[2].IsTerminalBoundary, qt.IsTrue)
}

func TestSet_WritesNearestScopeOnly(t *testing.T) {
	c := qt.New(t)
	svc := newService(c)
	ctx := context.Background()

	c.Assert(svc.Set(ctx, "k", "v"), qt.IsNil)

	id, rec, ok, err := svc.Scope(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)
	c.Assert(id.PID, qt.Equals, 600)
	c.Assert(rec.Data["k"], qt.Equals, "v")
}

func TestSetInherit_SealsNearestScope(t *testing.T) {
	c := qt.New(t)

	// Two services over the same cache dir simulate two invocations from
	// nested shells: one running inside the outer bash (walk starts at 500),
	// one inside the inner zsh (walk starts at 1000).
	dir := c.TempDir()
	table := newFakeProc()

	outer, err := service.NewWithTable(dir, table, 500)
	c.Assert(err, qt.IsNil)
	inner, err := service.NewWithTable(dir, table, 1000)
	c.Assert(err, qt.IsNil)

	ctx := context.Background()
	c.Assert(outer.Set(ctx, "k", "from-outer"), qt.IsNil)

	// Inherited through the inner shell's empty scope.
	val, err := inner.Get(ctx, "k")
	c.Assert(err, qt.IsNil)
	c.Assert(val, qt.Equals, "from-outer")

	// Sever inheritance at the inner shell.
	c.Assert(inner.SetInherit(ctx, false), qt.IsNil)
	_, err = inner.Get(ctx, "k")
	c.Assert(errors.Is(err, scope.ErrKeyNotFound), qt.IsTrue)

	// The outer shell still sees its own value.
	val, err = outer.Get(ctx, "k")
	c.Assert(err, qt.IsNil)
	c.Assert(val, qt.Equals, "from-outer")
}

func TestList_AcrossScopes(t *testing.T) {
	c := qt.New(t)

	dir := c.TempDir()
	table := newFakeProc()

	outer, err := service.NewWithTable(dir, table, 500)
	c.Assert(err, qt.IsNil)
	inner, err := service.NewWithTable(dir, table, 1000)
	c.Assert(err, qt.IsNil)

	ctx := context.Background()
	c.Assert(outer.Set(ctx, "shared", "outer"), qt.IsNil)
	c.Assert(outer.Set(ctx, "outer-only", true), qt.IsNil)
	c.Assert(inner.Set(ctx, "shared", "inner"), qt.IsNil)

	entries, err := inner.List(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.DeepEquals, []scope.ListEntry{
		{Key: "outer-only", Value: true, PID: 500},
		{Key: "shared", Value: "inner", PID: 600},
	})
}

func TestNoInteractiveShell(t *testing.T) {
	c := qt.New(t)

	// A daemon context: no shells, no terminal transition anywhere.
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	table := &fakeProc{
		stats: map[int]proc.Stat{
			1000: {PID: 1000, PPID: 400, StartTime: t0, TTYNr: 0},
			400:  {PID: 400, PPID: 1, StartTime: t0, TTYNr: 0},
		},
		cmdlines: map[int][]string{
			1000: {"shess", "get", "k"},
			400:  {"cron"},
		},
	}

	svc, err := service.NewWithTable(c.TempDir(), table, 1000)
	c.Assert(err, qt.IsNil)

	_, err = svc.Get(context.Background(), "k")
	c.Assert(errors.Is(err, ancestry.ErrNoInteractiveShell), qt.IsTrue)
}
