// Package problem is what an inference run hands to the solver: every slot
// and every constraint, under a run id.
package problem

import (
	"io"
	"sort"
	"strconv"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/qualinfer/frontend/constraints"
	"github.com/cottand/qualinfer/frontend/model"
	"github.com/cottand/qualinfer/frontend/slots"
	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/xtgo/set"
	"gopkg.in/yaml.v3"
)

type Problem struct {
	RunID     uuid.UUID
	Hierarchy string
	// Slots are the variable slots in registration order followed by the
	// constants handed out during the run
	Slots       []model.Slot
	Constraints *immutable.List[model.Constraint]
}

// New snapshots registry and store. Later additions to either are not
// seen by the Problem.
func New(registry *slots.Registry, store *constraints.Store) *Problem {
	return &Problem{
		RunID:       uuid.New(),
		Hierarchy:   registry.Hierarchy().Name(),
		Slots:       registry.Slots(),
		Constraints: store.All(),
	}
}

func (p *Problem) ConstraintSlice() []model.Constraint {
	return constraints.ToSlice(p.Constraints)
}

// Dangling lists, in increasing order, the identities constraints refer to
// that no registered slot has. A well-formed problem has none.
func (p *Problem) Dangling() []int {
	var referenced []int
	for _, c := range p.ConstraintSlice() {
		for _, op := range c.Operands() {
			referenced = appendIDs(referenced, op)
		}
	}
	sort.Ints(referenced)
	referenced = referenced[:set.Uniq(sort.IntSlice(referenced))]

	var registered []int
	for _, s := range p.Slots {
		if v, ok := s.(model.VariableSlot); ok {
			registered = append(registered, v.ID())
		}
	}
	sort.Ints(registered)
	registered = registered[:set.Uniq(sort.IntSlice(registered))]

	data := append(referenced, registered...)
	return data[:set.Diff(sort.IntSlice(data), len(referenced))]
}

// appendIDs appends the identity of s and of the slots it is built from
func appendIDs(ids []int, s model.Slot) []int {
	switch s := s.(type) {
	case *model.Refinement:
		return appendIDs(append(ids, s.ID()), s.Refined)
	case *model.Existential:
		return appendIDs(appendIDs(append(ids, s.ID()), s.Potential), s.Alternative)
	case *model.Combination:
		return appendIDs(appendIDs(append(ids, s.ID()), s.First), s.Second)
	case model.VariableSlot:
		return append(ids, s.ID())
	}
	return ids
}

type document struct {
	Run         string       `yaml:"run"`
	Hierarchy   string       `yaml:"hierarchy"`
	Slots       []slotEntry  `yaml:"slots"`
	Constants   []string     `yaml:"constants"`
	Constraints []constraint `yaml:"constraints"`
}

type slotEntry struct {
	ID   int      `yaml:"id"`
	Kind string   `yaml:"kind"`
	At   string   `yaml:"at,omitempty"`
	Refs []string `yaml:"refs,omitempty"`
}

type constraint struct {
	Kind     string   `yaml:"kind"`
	Operands []string `yaml:"operands"`
}

// ref names a slot in the YAML listing: variables by identity, constants
// by their annotation
func ref(s model.Slot) string {
	if v, ok := s.(model.VariableSlot); ok {
		return strconv.Itoa(v.ID())
	}
	return s.String()
}

func refs(slots ...model.Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, ref(s))
	}
	return out
}

// WriteYAML writes the problem in a solver-neutral listing
func (p *Problem) WriteYAML(w io.Writer) error {
	doc := document{Run: p.RunID.String(), Hierarchy: p.Hierarchy}
	for _, s := range p.Slots {
		v, ok := s.(model.VariableSlot)
		if !ok {
			doc.Constants = append(doc.Constants, s.String())
			continue
		}
		entry := slotEntry{ID: v.ID(), Kind: model.KindOf(v)}
		if v.Location().IsKnown() {
			entry.At = v.Location().String()
		}
		switch v := v.(type) {
		case *model.Refinement:
			entry.Refs = refs(v.Refined)
		case *model.Existential:
			entry.Refs = refs(v.Potential, v.Alternative)
		case *model.Combination:
			entry.Refs = refs(v.First, v.Second)
		}
		doc.Slots = append(doc.Slots, entry)
	}
	for _, c := range p.ConstraintSlice() {
		doc.Constraints = append(doc.Constraints, constraint{Kind: c.Kind(), Operands: refs(c.Operands()...)})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return errors.Wrapf(err, "writing problem %s", p.RunID)
	}
	return errors.Wrap(enc.Close(), "closing problem encoder")
}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Dump writes every slot and constraint with their full structure, for debugging
func (p *Problem) Dump(w io.Writer) {
	dumpConfig.Fdump(w, p.Slots, p.ConstraintSlice())
}
