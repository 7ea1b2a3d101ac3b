// Package constraints accumulates the constraints of an inference run
package constraints

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/qualinfer/frontend/model"
	"github.com/cottand/qualinfer/frontend/qerr"
)

// Store is an append-only list of constraints. Duplicates are kept and
// order is only meaningful for diagnostics.
//
// It is not safe for concurrent use.
type Store struct {
	list *immutable.List[model.Constraint]
}

func NewStore() *Store {
	return &Store{list: immutable.NewList[model.Constraint]()}
}

// Add appends c. Constraints with a nil operand abort the run.
func (s *Store) Add(c model.Constraint) {
	if c == nil {
		qerr.Abort(qerr.InvariantViolation, "adding a nil constraint")
	}
	for i, op := range c.Operands() {
		if op == nil {
			qerr.Abort(qerr.InvariantViolation, "operand %d of %s constraint is nil", i, c.Kind())
		}
	}
	s.list = s.list.Append(c)
}

// All returns a snapshot of the constraints added so far.
// Later calls to Add do not change a snapshot.
func (s *Store) All() *immutable.List[model.Constraint] {
	return s.list
}

func (s *Store) Len() int {
	return s.list.Len()
}

// Slice copies the snapshot into a slice, in insertion order
func (s *Store) Slice() []model.Constraint {
	return ToSlice(s.list)
}

func ToSlice(list *immutable.List[model.Constraint]) []model.Constraint {
	out := make([]model.Constraint, 0, list.Len())
	itr := list.Iterator()
	for !itr.Done() {
		_, c := itr.Next()
		out = append(out, c)
	}
	return out
}

// Counts returns how many constraints of each kind were added
func (s *Store) Counts() map[string]int {
	counts := make(map[string]int)
	itr := s.list.Iterator()
	for !itr.Done() {
		_, c := itr.Next()
		counts[c.Kind()]++
	}
	return counts
}

// Summary formats Counts as "kind=n" pairs sorted by kind
func (s *Store) Summary() string {
	counts := s.Counts()
	parts := make([]string, 0, len(counts))
	for _, kind := range slices.Sorted(maps.Keys(counts)) {
		parts = append(parts, fmt.Sprintf("%s=%d", kind, counts[kind]))
	}
	return strings.Join(parts, " ")
}
