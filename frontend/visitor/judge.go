package visitor

import (
	"github.com/cottand/qualinfer/frontend/ast"
	"github.com/cottand/qualinfer/frontend/qerr"
	"github.com/cottand/qualinfer/frontend/qual"
)

var _ Relations = (*Judge)(nil)

// Judge decides relations against the qualifiers written on, or defaulted
// onto, the types it is given. Failures become diagnostics.
type Judge struct {
	hierarchy qual.Hierarchy
	classes   *ast.Classes
	diags     *diagnostics
}

func newJudge(h qual.Hierarchy, classes *ast.Classes, diags *diagnostics) *Judge {
	return &Judge{hierarchy: h, classes: classes, diags: diags}
}

// effective is the qualifier a position holds in checking mode: the one
// written on it, or the default when the position is qualified at all
func (j *Judge) effective(t ast.Type) (ast.Annotation, bool) {
	t = ast.Primary(t)
	if t == nil {
		return ast.Annotation{}, false
	}
	if q, ok := qual.Effective(j.hierarchy, t); ok {
		return q, true
	}
	if j.hierarchy.Annotates(t) {
		return j.hierarchy.Default(), true
	}
	return ast.Annotation{}, false
}

func (j *Judge) relate(sub, super ast.Type, equal bool) bool {
	q1, ok1 := j.effective(sub)
	q2, ok2 := j.effective(super)
	if !ok1 || !ok2 {
		return true
	}
	if equal {
		return q1.Name == q2.Name
	}
	return j.hierarchy.IsSubtype(q1, q2)
}

func (j *Judge) AssertAbsent(t ast.Type, forbidden []ast.Annotation, key string, at ast.Node) {
	forbiddenNames := names(forbidden)
	for _, occ := range occurrences(t) {
		q, ok := qual.Effective(j.hierarchy, occ)
		if !ok || !forbiddenNames.Contains(q.Name) {
			continue
		}
		j.diags.report(qerr.NewForbiddenQualifier{
			Positioner: at,
			MsgKey:     key,
			Type:       t.String(),
			Qualifier:  q.String(),
			Tree:       at.String(),
		})
		return
	}
}

func (j *Judge) AssertExact(t ast.Type, q ast.Annotation, key string, at ast.Node) {
	if eff, ok := j.effective(t); ok && eff.Name == q.Name {
		return
	}
	j.diags.report(qerr.NewRequiredQualifier{
		Positioner: at,
		MsgKey:     key,
		Type:       t.String(),
		Qualifier:  q.String(),
		Tree:       at.String(),
	})
}

func (j *Judge) AssertNoneOf(t ast.Type, forbidden []ast.Annotation, key string, at ast.Node) {
	eff, ok := j.effective(t)
	if !ok || !names(forbidden).Contains(eff.Name) {
		return
	}
	j.diags.report(qerr.NewForbiddenQualifier{
		Positioner: at,
		MsgKey:     key,
		Type:       t.String(),
		Qualifier:  eff.String(),
		Tree:       at.String(),
	})
}

func (j *Judge) AssertSubtypeOf(t ast.Type, q ast.Annotation, key string, at ast.Node) {
	if eff, ok := j.effective(t); ok && j.hierarchy.IsSubtype(eff, q) {
		return
	}
	j.diags.report(qerr.NewRequiredQualifier{
		Positioner: at,
		MsgKey:     key,
		Type:       t.String(),
		Qualifier:  q.String(),
		Tree:       at.String(),
	})
}

func (j *Judge) AssertComparable(a, b ast.Type, key string, at ast.Node) {
	q1, ok1 := j.effective(a)
	q2, ok2 := j.effective(b)
	if !ok1 || !ok2 || qual.Comparable(j.hierarchy, q1, q2) {
		return
	}
	j.diags.report(qerr.NewNotComparable{Positioner: at, MsgKey: key, First: a.String(), Second: b.String()})
}

func (j *Judge) AssertEqual(a, b ast.Type, key string, at ast.Node) {
	if newStructure(j.classes, j.hierarchy, j.relate).equal(a, b) {
		return
	}
	j.diags.report(qerr.NewNotEqual{Positioner: at, MsgKey: key, First: a.String(), Second: b.String()})
}

func (j *Judge) IsSubtype(sub, super ast.Type) bool {
	return newStructure(j.classes, j.hierarchy, j.relate).subtype(sub, super)
}

// Refine never applies in checking mode
func (j *Judge) Refine(_, _ ast.Type) bool {
	return false
}
