// Package slots issues slot identities and converts slots to and from the
// annotations written on type positions.
package slots

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/cottand/qualinfer/frontend/model"
	"github.com/cottand/qualinfer/frontend/qerr"
	"github.com/cottand/qualinfer/frontend/qual"
	"github.com/cottand/qualinfer/internal/log"
	"github.com/hashicorp/go-set/v3"
)

var logger = log.DefaultLogger.With("section", "registry")

// FirstID is the identity of the first slot of a run.
// 0 is never issued: solvers use it as a sentinel.
const FirstID = 1

// MarkerName is the annotation carrying a slot identity on a type position
const MarkerName = "VarAnnot"

const markerElement = "value"

// tags keep the slot variant in the encoded form
const (
	tagVariable    = ""
	tagRefinement  = "r"
	tagExistential = "e"
	tagCombination = "c"
)

type Option func(*Registry)

// WithDegraded makes inconsistencies that would abort the run log a warning
// and carry on with a best-effort answer instead
func WithDegraded() Option {
	return func(r *Registry) { r.degraded = true }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// Registry owns the slots of one inference run: it is the only issuer of
// identities and the only writer of the identity table.
// It is not safe for concurrent use.
type Registry struct {
	hierarchy qual.Hierarchy
	real      *set.Set[string]
	next      int
	byID      map[int]model.VariableSlot
	order     []model.VariableSlot
	constants []*model.Constant
	seenConst *set.Set[string]
	degraded  bool
	logger    *slog.Logger
}

// NewRegistry returns an empty Registry recognising the real qualifiers of h
func NewRegistry(h qual.Hierarchy, opts ...Option) *Registry {
	r := &Registry{
		hierarchy: h,
		real:      set.New[string](len(h.Qualifiers())),
		next:      FirstID,
		byID:      make(map[int]model.VariableSlot),
		seenConst: set.New[string](len(h.Qualifiers())),
		logger:    logger,
	}
	for _, q := range h.Qualifiers() {
		r.real.Insert(q.Name)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Hierarchy() qual.Hierarchy { return r.hierarchy }
func (r *Registry) Degraded() bool            { return r.degraded }

// NextID returns an identity that was never issued before
func (r *Registry) NextID() int {
	id := r.next
	r.next++
	return id
}

// Register stores s under its identity. Registering the same slot twice is
// allowed, registering a different slot under a taken identity is not.
func (r *Registry) Register(s model.VariableSlot) {
	if s == nil || s.ID() < FirstID {
		qerr.Abort(qerr.InvariantViolation, "registering a slot without identity: %v", s)
	}
	if s.ID() >= r.next {
		qerr.Abort(qerr.InvariantViolation, "registering slot %s whose identity was never issued", s)
	}
	if existing, ok := r.byID[s.ID()]; ok {
		if existing != s {
			qerr.Abort(qerr.InvariantViolation, "identity %d is already taken by %s, cannot register %s", s.ID(), existing, s)
		}
		return
	}
	r.byID[s.ID()] = s
	r.order = append(r.order, s)
	r.logger.Debug("registered slot", "slot", s.String(), "kind", model.KindOf(s), "at", s.Location().String())
}

func (r *Registry) Lookup(id int) (model.VariableSlot, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Encode returns the annotation standing for s. Constants encode as the
// qualifier they wrap, variables as a marker carrying their identity.
func (r *Registry) Encode(s model.Slot) ast.Annotation {
	switch s := s.(type) {
	case *model.Constant:
		return s.Value
	case model.VariableSlot:
		return ast.NewAnnotation(MarkerName).WithValue(markerElement, tagOf(s)+strconv.Itoa(s.ID()))
	}
	qerr.Abort(qerr.InvariantViolation, "cannot encode slot %v", s)
	return ast.Annotation{}
}

func tagOf(s model.VariableSlot) string {
	switch s.(type) {
	case *model.Refinement:
		return tagRefinement
	case *model.Existential:
		return tagExistential
	case *model.Combination:
		return tagCombination
	}
	return tagVariable
}

// Decode is the inverse of Encode. A marker decodes to the registered slot
// it names and a real qualifier to a fresh Constant.
//
// Markers without an identity, identities nobody registered, and annotations
// that are neither markers nor real qualifiers abort the run. In degraded
// mode they log a warning instead: the first two decode to nil and the last
// one to the top qualifier.
func (r *Registry) Decode(a ast.Annotation, at ast.Positioner) model.Slot {
	if a.Name == MarkerName {
		return r.decodeMarker(a, at)
	}
	if r.real.Contains(a.Name) {
		return r.Constant(a)
	}
	if r.degraded {
		top := r.hierarchy.Top()
		r.logger.Warn("unrecognized annotation, using top qualifier", "annotation", a.String(), "top", top.String(), "at", ast.PosOf(at).String())
		return r.Constant(top)
	}
	qerr.Abort(qerr.UnrecognizedAnnotation, "%s: %s is neither a slot marker nor a qualifier of %s", ast.PosOf(at), a, r.hierarchy.Name())
	return nil
}

func (r *Registry) decodeMarker(a ast.Annotation, at ast.Positioner) model.Slot {
	payload, _ := a.Value(markerElement)
	tag := strings.TrimRightFunc(payload, func(c rune) bool { return c >= '0' && c <= '9' })
	id, err := strconv.Atoi(strings.TrimPrefix(payload, tag))
	if payload == "" || err != nil {
		r.fail(qerr.MissingSlot, "%s: marker %s carries no slot identity", ast.PosOf(at), a)
		return nil
	}
	s, ok := r.Lookup(id)
	if !ok {
		r.fail(qerr.MissingSlot, "%s: no slot is registered with identity %d", ast.PosOf(at), id)
		return nil
	}
	if tagOf(s) != tag {
		r.fail(qerr.InvariantViolation, "%s: marker %s does not match the %s registered as %d", ast.PosOf(at), a, model.KindOf(s), id)
		return nil
	}
	return s
}

// Constant returns a fresh Constant slot wrapping q
func (r *Registry) Constant(q ast.Annotation) *model.Constant {
	c := model.NewConstant(q)
	if r.seenConst.Insert(q.String()) {
		r.constants = append(r.constants, c)
	}
	return c
}

// VariableSlotOf decodes the marker on the primary position of t.
//
// Positions the hierarchy does not annotate have no slot, and nil is
// returned for them. A position that should carry a marker but does not
// aborts the run, or returns nil in degraded mode.
func (r *Registry) VariableSlotOf(t ast.Type) model.VariableSlot {
	if t == nil {
		return nil
	}
	if !r.hierarchy.Annotates(t) {
		return nil
	}
	marker, ok := t.Annotations().Get(MarkerName)
	if !ok {
		r.fail(qerr.MissingSlot, "type %s carries no slot marker", t)
		return nil
	}
	s, _ := r.Decode(marker, nil).(model.VariableSlot)
	return s
}

// Annotate puts the marker of s on the primary position of t
func (r *Registry) Annotate(t ast.Type, s model.VariableSlot) {
	t.Annotations().Replace(r.Encode(s))
}

// Slots returns every variable slot in registration order, followed by one
// Constant for each qualifier value handed out so far
func (r *Registry) Slots() []model.Slot {
	all := make([]model.Slot, 0, len(r.order)+len(r.constants))
	for _, s := range r.order {
		all = append(all, s)
	}
	for _, c := range r.constants {
		all = append(all, c)
	}
	return all
}

// VariableSlots returns every registered slot in registration order
func (r *Registry) VariableSlots() []model.VariableSlot {
	return append([]model.VariableSlot(nil), r.order...)
}

func (r *Registry) NewVariable(loc ast.Position) *model.Variable {
	s := model.NewVariable(r.NextID(), loc)
	r.Register(s)
	return s
}

func (r *Registry) NewRefinement(loc ast.Position, refined model.VariableSlot) *model.Refinement {
	s := model.NewRefinement(r.NextID(), loc, refined)
	r.Register(s)
	return s
}

func (r *Registry) NewExistential(loc ast.Position, potential, alternative model.VariableSlot) *model.Existential {
	s := model.NewExistential(r.NextID(), loc, potential, alternative)
	r.Register(s)
	return s
}

func (r *Registry) NewCombination(loc ast.Position, first, second model.Slot) *model.Combination {
	s := model.NewCombination(r.NextID(), loc, first, second)
	r.Register(s)
	return s
}

func (r *Registry) fail(code qerr.ErrCode, format string, args ...any) {
	if r.degraded {
		r.logger.Warn("continuing in degraded mode: "+fmt.Sprintf(format, args...), "code", code.String())
		return
	}
	qerr.Abort(code, format, args...)
}
