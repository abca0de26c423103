// Package proc reads process snapshots from the /proc filesystem.
package proc

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrNoSuchProcess is returned when the queried pid has no /proc entry,
// i.e. the process exited or never existed.
var ErrNoSuchProcess = errors.New("no such process")

// userHZ is the kernel USER_HZ clock-tick rate used for the starttime field
// in /proc/<pid>/stat. Fixed at 100 on Linux regardless of CONFIG_HZ.
const userHZ = 100

// Stat holds the fields of /proc/<pid>/stat relevant to ancestry walking.
type Stat struct {
	PID  int
	PPID int
	// StartTime is the absolute process creation time (boot time + starttime
	// ticks). Two Stat reads of the same live process always agree, which is
	// what makes it usable for pid-reuse detection.
	StartTime time.Time
	// TTYNr is the controlling terminal device number; 0 means the process
	// has no controlling terminal.
	TTYNr int64
}

// HasTTY reports whether the process has a controlling terminal.
func (s Stat) HasTTY() bool { return s.TTYNr != 0 }

// Table reads process snapshots from a procfs mount.
type Table struct {
	root     string
	bootTime time.Time
}

// NewTable creates a Table over the standard /proc mount.
func NewTable() (*Table, error) {
	return NewTableAt("/proc")
}

// NewTableAt creates a Table over an alternate procfs root.
// The boot time is read once from <root>/stat; it does not change while
// the system is up.
func NewTableAt(root string) (*Table, error) {
	boot, err := readBootTime(filepath.Join(root, "stat"))
	if err != nil {
		return nil, fmt.Errorf("proc.NewTableAt: %w", err)
	}
	return &Table{root: root, bootTime: boot}, nil
}

// Stat reads and parses /proc/<pid>/stat.
func (t *Table) Stat(pid int) (Stat, error) {
	data, err := os.ReadFile(filepath.Join(t.root, strconv.Itoa(pid), "stat"))
	if err != nil {
		if os.IsNotExist(err) {
			return Stat{}, fmt.Errorf("proc.Stat pid %d: %w", pid, ErrNoSuchProcess)
		}
		return Stat{}, fmt.Errorf("proc.Stat pid %d: %w", pid, err)
	}
	s, err := parseStat(string(data), t.bootTime)
	if err != nil {
		return Stat{}, fmt.Errorf("proc.Stat pid %d: %w", pid, err)
	}
	return s, nil
}

// Cmdline reads the NUL-separated argument vector of pid.
// A live process with an empty cmdline (kernel threads, zombies) yields a
// nil slice and no error.
func (t *Table) Cmdline(pid int) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(t.root, strconv.Itoa(pid), "cmdline"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("proc.Cmdline pid %d: %w", pid, ErrNoSuchProcess)
		}
		return nil, fmt.Errorf("proc.Cmdline pid %d: %w", pid, err)
	}
	return splitCmdline(data), nil
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// parseStat extracts pid, ppid, tty_nr and starttime from a /proc/<pid>/stat
// line. The comm field (2) is enclosed in parentheses and may itself contain
// spaces and parentheses, so the line is split at the last ')'.
func parseStat(line string, bootTime time.Time) (Stat, error) {
	open := strings.IndexByte(line, '(')
	closing := strings.LastIndexByte(line, ')')
	if open < 0 || closing < 0 || closing < open {
		return Stat{}, fmt.Errorf("malformed stat line %q", line)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(line[:open]))
	if err != nil {
		return Stat{}, fmt.Errorf("malformed stat pid: %w", err)
	}

	// Fields after the comm, starting at field 3 (state).
	rest := strings.Fields(line[closing+1:])
	// starttime is field 22, i.e. index 19 in rest.
	if len(rest) < 20 {
		return Stat{}, fmt.Errorf("stat line has %d post-comm fields, need 20", len(rest))
	}

	ppid, err := strconv.Atoi(rest[1])
	if err != nil {
		return Stat{}, fmt.Errorf("malformed stat ppid: %w", err)
	}
	ttyNr, err := strconv.ParseInt(rest[4], 10, 64)
	if err != nil {
		return Stat{}, fmt.Errorf("malformed stat tty_nr: %w", err)
	}
	startTicks, err := strconv.ParseUint(rest[19], 10, 64)
	if err != nil {
		return Stat{}, fmt.Errorf("malformed stat starttime: %w", err)
	}

	// Whole seconds and leftover ticks separately; multiplying the full
	// tick count into nanoseconds overflows Duration on long uptimes.
	start := bootTime.
		Add(time.Duration(startTicks/userHZ) * time.Second).
		Add(time.Duration(startTicks%userHZ) * (time.Second / userHZ))
	return Stat{PID: pid, PPID: ppid, StartTime: start, TTYNr: ttyNr}, nil
}

// splitCmdline splits the NUL-separated cmdline buffer into arguments.
func splitCmdline(data []byte) []string {
	data = bytes.TrimRight(data, "\x00")
	if len(data) == 0 {
		return nil
	}
	parts := bytes.Split(data, []byte{0})
	args := make([]string, len(parts))
	for i, p := range parts {
		args[i] = string(p)
	}
	return args
}

// readBootTime scans <procfs>/stat for the btime line (seconds since epoch).
func readBootTime(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "btime ") {
			continue
		}
		secs, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, "btime ")), 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("malformed btime line %q: %w", line, err)
		}
		return time.Unix(secs, 0).UTC(), nil
	}
	if err := scanner.Err(); err != nil {
		return time.Time{}, err
	}
	return time.Time{}, errors.New("no btime line in procfs stat")
}
