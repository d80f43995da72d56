package encode

import (
	"fmt"
	"sort"
)

// Binding identifies one versioned variable: a name bound at a scope
// level, optionally inside a function namespace.
type Binding struct {
	Level int
	Name  string
	// Space is the owning function namespace, empty for global and block
	// scopes.
	Space string
}

// Versioned is a binding at a specific version.
type Versioned struct {
	Binding
	Version int
}

// Scope tracks the live version of every variable. Plain tables are
// keyed by level; each function namespace has one private table bound
// at its definition level plus one.
//
// Restoring a snapshot rewinds live versions only. Every write takes a
// version above the highest one ever allocated for its binding, so the
// two sides of a branch never share a version.
type Scope struct {
	levels map[int]map[string]int
	spaces map[string]map[string]int
	// spaceLevel is the level of each namespace's private table.
	spaceLevel map[string]int
	high       map[Binding]int
}

// NewScope creates an empty versioning store.
func NewScope() *Scope {
	return &Scope{
		levels:     make(map[int]map[string]int),
		spaces:     make(map[string]map[string]int),
		spaceLevel: make(map[string]int),
		high:       make(map[Binding]int),
	}
}

func (s *Scope) bump(b Binding, table map[string]int) int {
	next := s.high[b] + 1
	s.high[b] = next
	table[b.Name] = next
	return next
}

// OpenSpace creates the private table of a function namespace at level.
func (s *Scope) OpenSpace(space string, level int) {
	s.spaces[space] = make(map[string]int)
	s.spaceLevel[space] = level
}

// Declare binds name at version 0. Inside a namespace the binding goes
// to the namespace's private table, otherwise to the table of level. A
// name that is already bound there keeps its current version and
// existed is true.
func (s *Scope) Declare(name string, level int, space string) (v Versioned, existed bool) {
	table, at := s.table(level, space)
	if cur, ok := table[name]; ok {
		return Versioned{Binding: Binding{Level: at, Name: name, Space: space}, Version: cur}, true
	}
	table[name] = 0
	b := Binding{Level: at, Name: name, Space: space}
	if _, seen := s.high[b]; !seen {
		s.high[b] = 0
	}
	return Versioned{Binding: b}, false
}

func (s *Scope) table(level int, space string) (map[string]int, int) {
	if space != "" {
		return s.spaces[space], s.spaceLevel[space]
	}
	t, ok := s.levels[level]
	if !ok {
		t = make(map[string]int)
		s.levels[level] = t
	}
	return t, level
}

// Resolve finds the live version of name. The namespace's private table
// is searched first, then plain tables from level down to 0. A write
// allocates a new version at the level where the name is bound before
// returning it. ok is false when no binding exists.
func (s *Scope) Resolve(name string, level int, space string, write bool) (v Versioned, ok bool) {
	if space != "" {
		if table, found := s.spaces[space]; found {
			if cur, bound := table[name]; bound {
				b := Binding{Level: s.spaceLevel[space], Name: name, Space: space}
				if write {
					cur = s.bump(b, table)
				}
				return Versioned{Binding: b, Version: cur}, true
			}
		}
	}
	for l := level; l >= 0; l-- {
		table, found := s.levels[l]
		if !found {
			continue
		}
		if cur, bound := table[name]; bound {
			b := Binding{Level: l, Name: name}
			if write {
				cur = s.bump(b, table)
			}
			return Versioned{Binding: b, Version: cur}, true
		}
	}
	return Versioned{}, false
}

// Close unbinds every plain name declared at level or deeper. Function
// namespaces are not affected.
func (s *Scope) Close(level int) {
	for l := range s.levels {
		if l >= level {
			delete(s.levels, l)
		}
	}
}

// Current returns the version of an exact binding.
func (s *Scope) Current(b Binding) (int, bool) {
	var table map[string]int
	if b.Space != "" {
		table = s.spaces[b.Space]
	} else {
		table = s.levels[b.Level]
	}
	v, ok := table[b.Name]
	return v, ok
}

// Globals returns the level-0 names in sorted order.
func (s *Scope) Globals() []string {
	names := make([]string, 0, len(s.levels[0]))
	for name := range s.levels[0] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot is a copy of every version counter.
type Snapshot map[Binding]int

// Snapshot copies the full versioning state.
func (s *Scope) Snapshot() Snapshot {
	snap := make(Snapshot)
	for level, table := range s.levels {
		for name, v := range table {
			snap[Binding{Level: level, Name: name}] = v
		}
	}
	for space, table := range s.spaces {
		level := s.spaceLevel[space]
		for name, v := range table {
			snap[Binding{Level: level, Name: name, Space: space}] = v
		}
	}
	return snap
}

// Restore rewinds live versions to snap. Names bound after the snapshot
// are unbound again; allocated versions are never reused.
func (s *Scope) Restore(snap Snapshot) {
	s.levels = make(map[int]map[string]int)
	for space := range s.spaces {
		s.spaces[space] = make(map[string]int)
	}
	for b, v := range snap {
		if b.Space != "" {
			if _, ok := s.spaces[b.Space]; !ok {
				s.spaces[b.Space] = make(map[string]int)
				s.spaceLevel[b.Space] = b.Level
			}
			s.spaces[b.Space][b.Name] = v
			continue
		}
		table, ok := s.levels[b.Level]
		if !ok {
			table = make(map[string]int)
			s.levels[b.Level] = table
		}
		table[b.Name] = v
	}
}

// Change is a binding whose version differs between two snapshots.
type Change struct {
	Binding
	Before int
	After  int
}

func (c Change) String() string {
	return fmt.Sprintf("%s@%d %s: %d -> %d", c.Name, c.Level, c.Space, c.Before, c.After)
}

// Diff lists the bindings present in both snapshots whose versions
// differ, in a deterministic order.
func Diff(before, after Snapshot) []Change {
	var changes []Change
	for b, v := range before {
		w, ok := after[b]
		if !ok || w == v {
			continue
		}
		changes = append(changes, Change{Binding: b, Before: v, After: w})
	}
	sort.Slice(changes, func(i, j int) bool {
		a, b := changes[i], changes[j]
		if a.Space != b.Space {
			return a.Space < b.Space
		}
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		return a.Name < b.Name
	})
	return changes
}
