// Package shared holds the context passed to all CLI commands.
package shared

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// CacheDir overrides the scope cache directory.
	// When empty, resolution falls through to SHESS_CACHE_DIR env var →
	// persisted config → ~/.cache/shess.
	CacheDir string
}
