// Package pool is the portable form of a unit's constant pool: the
// deduplicated literals the cross-reference builder collected, with a
// canonical CBOR encoding and a content hash over that encoding.
package pool

import (
	"fmt"

	"github.com/chazu/kata/compiler"
)

// Version is the version prefix stored in every encoded pool.
// Bumping this invalidates all existing pool hashes.
const Version byte = 1

// Entry is one pooled constant.
type Entry struct {
	Key   int                   `cbor:"1,keyasint"`
	Type  compiler.ConstantType `cbor:"2,keyasint"`
	Value string                `cbor:"3,keyasint"`
}

// Pool holds the constants of one unit in key order.
type Pool struct {
	Version byte    `cbor:"1,keyasint"`
	Entries []Entry `cbor:"2,keyasint"`
}

// FromScope copies the constant pool of scope. Keys are dense and start at
// zero, so the entry for key k is Entries[k].
func FromScope(scope *compiler.Scope) Pool {
	constants := scope.Constants()
	p := Pool{Version: Version, Entries: make([]Entry, len(constants))}
	for i, c := range constants {
		p.Entries[i] = Entry{Key: c.Key, Type: c.Type, Value: c.Value}
	}
	return p
}

// Lookup returns the entry stored under key.
func (p Pool) Lookup(key int) (Entry, bool) {
	if key < 0 || key >= len(p.Entries) {
		return Entry{}, false
	}
	return p.Entries[key], true
}

// Len returns the number of entries.
func (p Pool) Len() int { return len(p.Entries) }

func (e Entry) String() string {
	return fmt.Sprintf("#%d %s %q", e.Key, e.Type, e.Value)
}

// validate checks the invariants FromScope guarantees, for pools that
// arrive from outside.
func (p Pool) validate() error {
	if p.Version != Version {
		return fmt.Errorf("pool: unsupported version %d", p.Version)
	}
	seen := make(map[Entry]bool, len(p.Entries))
	for i, e := range p.Entries {
		if e.Key != i {
			return fmt.Errorf("pool: entry %d has key %d", i, e.Key)
		}
		if e.Type < compiler.ConstNumber || e.Type > compiler.ConstRegEx {
			return fmt.Errorf("pool: entry %d has unknown type %d", i, e.Type)
		}
		dup := Entry{Type: e.Type, Value: e.Value}
		if seen[dup] {
			return fmt.Errorf("pool: entry %d duplicates %s %q", i, e.Type, e.Value)
		}
		seen[dup] = true
	}
	return nil
}
