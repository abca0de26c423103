package scope

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-ports/shess/internal/ancestry"
)

// ErrKeyNotFound is the normal negative result of Get: no scope along the
// ancestry chain holds the key (or inheritance was severed before one did).
var ErrKeyNotFound = errors.New("key not found in any ancestor scope")

// ListEntry is one visible key as reported by List.
type ListEntry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
	PID   int    `json:"pid"`
}

// Resolver implements get/set semantics over an ancestry chain and a Store.
type Resolver struct {
	store *Store
}

// NewResolver creates a Resolver over store.
func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// identity extracts the store Identity from a chain entry.
func identity(st ancestry.ProcessState) Identity {
	return Identity{PID: st.PID, CreatedAt: st.CreatedAt}
}

// Get looks key up starting at the nearest chain entry. Scopes without a
// record are skipped; a scope whose record lacks the key either passes the
// lookup to the next ancestor (inherit true) or ends it (inherit false).
func (r *Resolver) Get(chain []ancestry.ProcessState, key string) (any, error) {
	for _, st := range chain {
		rec, ok := r.store.Load(identity(st))
		if !ok {
			continue
		}
		if val, ok := rec.Data[key]; ok {
			return val, nil
		}
		if !rec.Inherit {
			// Inheritance explicitly severed at this scope.
			return nil, fmt.Errorf("scope pid %d: %w", st.PID, ErrKeyNotFound)
		}
	}
	return nil, ErrKeyNotFound
}

// Set writes key into the nearest scope, creating its record when absent.
// It never writes further up the chain, even when a farther ancestor
// already holds the key.
func (r *Resolver) Set(chain []ancestry.ProcessState, key string, value any) error {
	if len(chain) == 0 {
		return errors.New("scope.Set: empty ancestry chain")
	}
	nearest := identity(chain[0])
	rec, ok := r.store.Load(nearest)
	if !ok {
		rec = NewRecord(nearest)
	}
	rec.Data[key] = value
	return r.store.Save(rec)
}

// SetInherit persists the inherit flag on the nearest scope, creating its
// record when absent.
func (r *Resolver) SetInherit(chain []ancestry.ProcessState, inherit bool) error {
	if len(chain) == 0 {
		return errors.New("scope.SetInherit: empty ancestry chain")
	}
	nearest := identity(chain[0])
	rec, ok := r.store.Load(nearest)
	if !ok {
		rec = NewRecord(nearest)
	}
	rec.Inherit = inherit
	return r.store.Save(rec)
}

// Nearest loads the nearest scope's record. ok is false when no record
// exists yet; the returned Identity is valid either way.
func (r *Resolver) Nearest(chain []ancestry.ProcessState) (Identity, *Record, bool, error) {
	if len(chain) == 0 {
		return Identity{}, nil, false, errors.New("scope.Nearest: empty ancestry chain")
	}
	id := identity(chain[0])
	rec, ok := r.store.Load(id)
	return id, rec, ok, nil
}

// List returns every key visible from the nearest scope, nearest occupant
// winning on shadowed keys. Traversal follows the same inheritance rule as
// Get: a scope with inherit false is the last one consulted.
func (r *Resolver) List(chain []ancestry.ProcessState) []ListEntry {
	seen := make(map[string]bool)
	var entries []ListEntry
	for _, st := range chain {
		rec, ok := r.store.Load(identity(st))
		if !ok {
			continue
		}
		for key, val := range rec.Data {
			if seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, ListEntry{Key: key, Value: val, PID: st.PID})
		}
		if !rec.Inherit {
			break
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}
