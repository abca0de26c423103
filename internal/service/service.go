// Package service wires together configuration, the process table, the
// ancestry walker, and the scope store behind one entry point per operation.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-ports/shess/internal/ancestry"
	"github.com/go-ports/shess/internal/config"
	"github.com/go-ports/shess/internal/proc"
	"github.com/go-ports/shess/internal/scope"
)

// Service performs shess operations. Every call resolves the ancestry chain
// fresh from the live process table; nothing is cached across calls.
type Service struct {
	CacheDir string

	walker   *ancestry.Walker
	resolver *scope.Resolver
	selfPid  int
}

// New initialises a Service rooted at cacheDir, walking from the current
// process over the real /proc table.
// If cacheDir is empty it is resolved via config.GetCacheDir.
func New(cacheDir string) (*Service, error) {
	table, err := proc.NewTable()
	if err != nil {
		return nil, fmt.Errorf("service.New: open process table: %w", err)
	}
	return NewWithTable(cacheDir, table, os.Getpid())
}

// NewWithTable initialises a Service over an explicit process table and
// starting pid. Tests use it with a synthetic table.
func NewWithTable(cacheDir string, table ancestry.Provider, selfPid int) (*Service, error) {
	if cacheDir == "" {
		cacheDir = config.GetCacheDir()
	}

	store, err := scope.NewStore(cacheDir, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("service.NewWithTable: %w", err)
	}

	return &Service{
		CacheDir: cacheDir,
		walker:   ancestry.NewWalker(table, slog.Default()),
		resolver: scope.NewResolver(store),
		selfPid:  selfPid,
	}, nil
}

// chain resolves the current ancestry chain, nearest first.
func (s *Service) chain(ctx context.Context) ([]ancestry.ProcessState, error) {
	return s.walker.Walk(ctx, s.selfPid)
}

// Get returns the value of key resolved over the ancestry chain.
// Misses surface as scope.ErrKeyNotFound.
func (s *Service) Get(ctx context.Context, key string) (any, error) {
	chain, err := s.chain(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolver.Get(chain, key)
}

// Set writes key into the nearest scope.
func (s *Service) Set(ctx context.Context, key string, value any) error {
	chain, err := s.chain(ctx)
	if err != nil {
		return err
	}
	return s.resolver.Set(chain, key, value)
}

// SetInherit toggles whether lookups may pass the nearest scope on a miss.
func (s *Service) SetInherit(ctx context.Context, inherit bool) error {
	chain, err := s.chain(ctx)
	if err != nil {
		return err
	}
	return s.resolver.SetInherit(chain, inherit)
}

// List returns all keys visible from the nearest scope.
func (s *Service) List(ctx context.Context) ([]scope.ListEntry, error) {
	chain, err := s.chain(ctx)
	if err != nil {
		return nil, err
	}
	return s.resolver.List(chain), nil
}

// Parents returns the resolved ancestry chain, nearest first.
func (s *Service) Parents(ctx context.Context) ([]ancestry.ProcessState, error) {
	return s.chain(ctx)
}

// Scope returns the nearest scope's identity and record. ok is false when
// no record has been written yet.
func (s *Service) Scope(ctx context.Context) (scope.Identity, *scope.Record, bool, error) {
	chain, err := s.chain(ctx)
	if err != nil {
		return scope.Identity{}, nil, false, err
	}
	return s.resolver.Nearest(chain)
}
