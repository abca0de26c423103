// Package shell classifies command lines as interactive shell invocations.
//
// Classification is a heuristic over argv, not a guarantee. A shell started
// as `bash script.sh -i` is still non-interactive (false negative territory),
// and an interactive program that happens to be named like a shell is a
// false positive. Both are accepted: the result only steers which ancestor
// a scope attaches to.
package shell

import (
	"path/filepath"
	"strings"
)

// knownShells is the fixed set of recognised shell base names.
var knownShells = map[string]bool{
	"bash": true,
	"sh":   true,
	"zsh":  true,
	"csh":  true,
	"ksh":  true,
	"fish": true,
	"tcsh": true,
	"dash": true,
}

// longOptionAliases maps long option names to the short option they imply.
var longOptionAliases = map[string]string{
	"login":       "l",
	"interactive": "l",
}

// Classify reports whether cmdline looks like an interactive shell invocation.
//
// Rules, in order:
//  1. argv[0]'s base name, minus an optional leading "-" (login marker),
//     must be a known shell name.
//  2. An explicit -i token makes it interactive.
//  3. Otherwise it is interactive only when there are no non-option
//     arguments and no -c option (no script file, no inline command).
func Classify(cmdline []string) bool {
	if len(cmdline) == 0 {
		return false
	}

	name := filepath.Base(cmdline[0])
	name = strings.TrimPrefix(name, "-")
	if !knownShells[name] {
		return false
	}

	// Short options are collected as whole tokens: "-il" contributes "il",
	// which deliberately does not count as "-i". Token-level matching keeps
	// the heuristic predictable even if it misses bundled flags.
	shortOpts := make(map[string]bool)
	nonOptionArgs := 0
	for _, arg := range cmdline[1:] {
		switch {
		case strings.HasPrefix(arg, "--"):
			if short, ok := longOptionAliases[strings.TrimPrefix(arg, "--")]; ok {
				shortOpts[short] = true
			}
		case strings.HasPrefix(arg, "-"):
			shortOpts[strings.TrimLeft(arg, "-")] = true
		default:
			nonOptionArgs++
		}
	}

	if shortOpts["i"] {
		return true
	}
	return nonOptionArgs == 0 && !shortOpts["c"]
}
