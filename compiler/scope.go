package compiler

import (
	"sort"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Scope: lexical name tables, assignment history and the constant pool
// ---------------------------------------------------------------------------

// Assignment records a resolved assignment.
type Assignment struct {
	Left  Expr
	Right Expr
}

// Constant is one entry of the constant pool.
type Constant struct {
	Key   int
	Value string
	Type  ConstantType
}

type constantKey struct {
	value string
	typ   ConstantType
}

// frame is one lexical table. Frames live in the Scope's arena and point to
// their parent by index; the root frame has parent -1.
type frame struct {
	parent int
	names  map[string]Expr
}

// Scope is the state shared by the resolver and the cross-reference builder
// for one compilation. It is not safe for concurrent use.
type Scope struct {
	ID uuid.UUID

	frames     []frame
	current    int
	allocating bool

	assignments []Assignment
	tags        map[*AssignExpr]int

	constants []Constant
	index     map[constantKey]int
}

// NewScope creates a scope whose root frame defines "this" and globals.
func NewScope(globals ...string) *Scope {
	s := &Scope{
		ID:     uuid.New(),
		frames: []frame{{parent: -1, names: make(map[string]Expr)}},
		tags:   make(map[*AssignExpr]int),
		index:  make(map[constantKey]int),
	}
	s.Define("this", &IdentifierExpr{Name: "this"})
	for _, g := range globals {
		s.Define(g, &IdentifierExpr{Name: g})
	}
	return s
}

// Push enters a new innermost frame.
func (s *Scope) Push() {
	s.frames = append(s.frames, frame{parent: s.current, names: make(map[string]Expr)})
	s.current = len(s.frames) - 1
}

// Pop leaves the innermost frame. Popping the root frame is a programming
// error and panics.
func (s *Scope) Pop() {
	parent := s.frames[s.current].parent
	if parent < 0 {
		panic("compiler: Pop of root scope")
	}
	s.current = parent
}

// Depth returns the number of frames between the current frame and the
// root; the root frame has depth 0.
func (s *Scope) Depth() int {
	d := 0
	for i := s.frames[s.current].parent; i >= 0; i = s.frames[i].parent {
		d++
	}
	return d
}

// Define binds name to def in the current frame. It returns false if the
// current frame already binds name.
func (s *Scope) Define(name string, def Expr) bool {
	names := s.frames[s.current].names
	if _, dup := names[name]; dup {
		return false
	}
	names[name] = def
	return true
}

// Lookup finds name in the current frame or the nearest enclosing frame
// that binds it.
func (s *Scope) Lookup(name string) (Expr, bool) {
	for i := s.current; i >= 0; i = s.frames[i].parent {
		if def, ok := s.frames[i].names[name]; ok {
			return def, true
		}
	}
	return nil, false
}

// Names returns every name visible from the current frame, sorted.
func (s *Scope) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for i := s.current; i >= 0; i = s.frames[i].parent {
		for name := range s.frames[i].names {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// SetAllocating switches allocation mode and returns the previous setting.
// In allocation mode identifiers are declarations rather than uses.
func (s *Scope) SetAllocating(on bool) bool {
	prev := s.allocating
	s.allocating = on
	return prev
}

// Allocating reports whether allocation mode is on.
func (s *Scope) Allocating() bool {
	return s.allocating
}

// AddAssignment appends a resolved assignment to the history and tags node
// with it.
func (s *Scope) AddAssignment(node *AssignExpr) {
	s.tags[node] = len(s.assignments)
	s.assignments = append(s.assignments, Assignment{Left: node.Left, Right: node.Right})
}

// retag gives a rebuilt assignment node the tag of the node it replaces.
func (s *Scope) retag(old, rebuilt *AssignExpr) {
	if i, ok := s.tags[old]; ok {
		s.tags[rebuilt] = i
	}
}

// Assignments returns the assignment history in resolution order.
func (s *Scope) Assignments() []Assignment {
	return s.assignments
}

// AssignmentFor returns the assignment node was tagged with. Untagged nodes
// are assignments whose target did not resolve.
func (s *Scope) AssignmentFor(node *AssignExpr) (Assignment, bool) {
	i, ok := s.tags[node]
	if !ok {
		return Assignment{}, false
	}
	return s.assignments[i], true
}

// AddConstant returns the pool key for (value, typ), allocating the next
// key if the pair is new. Keys start at 0.
func (s *Scope) AddConstant(value string, typ ConstantType) int {
	k := constantKey{value: value, typ: typ}
	if key, ok := s.index[k]; ok {
		return key
	}
	key := len(s.constants)
	s.index[k] = key
	s.constants = append(s.constants, Constant{Key: key, Value: value, Type: typ})
	return key
}

// Constants returns the pool in key order.
func (s *Scope) Constants() []Constant {
	out := make([]Constant, len(s.constants))
	copy(out, s.constants)
	return out
}

// Constant returns the pool entry for key.
func (s *Scope) Constant(key int) (Constant, bool) {
	if key < 0 || key >= len(s.constants) {
		return Constant{}, false
	}
	return s.constants[key], true
}
