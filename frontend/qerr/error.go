package qerr

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/cottand/qualinfer/frontend/ast"
)

// enableDebugErrorPrinting makes errors include where they were reported when printed
const enableDebugErrorPrinting bool = false

type ErrCode int

const (
	None ErrCode = iota
	AssignmentIncompatible
	TypeArgumentIncompatible
	QualifierForbidden
	QualifierRequired
	NotComparable
	NotEqual
	Unassignable

	// codes below are fatal for the whole run

	UnrecognizedAnnotation
	MissingSlot
	ArityMismatch
	UnexpectedAssignment
	InvariantViolation
)

func (c ErrCode) String() string {
	switch c {
	case AssignmentIncompatible:
		return "assignment-incompatible"
	case TypeArgumentIncompatible:
		return "type-argument-incompatible"
	case QualifierForbidden:
		return "qualifier-forbidden"
	case QualifierRequired:
		return "qualifier-required"
	case NotComparable:
		return "not-comparable"
	case NotEqual:
		return "not-equal"
	case Unassignable:
		return "unassignable"
	case UnrecognizedAnnotation:
		return "unrecognized-annotation"
	case MissingSlot:
		return "missing-slot"
	case ArityMismatch:
		return "arity-mismatch"
	case UnexpectedAssignment:
		return "unexpected-assignment"
	case InvariantViolation:
		return "invariant-violation"
	}
	return "none"
}

// Diagnostic is a located checking-mode failure. One program location
// produces at most one Diagnostic per check, and reporting one never
// stops the traversal.
type Diagnostic interface {
	Error() string
	Code() ErrCode
	// Key is the message key the check was made with, e.g. "assignment.type.incompatible"
	Key() string
	ast.Positioner

	withStack([]byte) Diagnostic
	getStack() []byte
}

func FormatWithCode(e Diagnostic) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := strings.Split(string(e.getStack()), "\n")
		at := ""
		if len(stack) > 6 {
			at = strings.TrimSpace(stack[6])
		}
		return fmt.Sprintf("%s:(Q%03d) %s", at, e.Code(), e.Error())
	}
	return fmt.Sprintf("(Q%03d) %s", e.Code(), e.Error())
}

// FormatWithPosition prefixes the formatted error with where it happened
func FormatWithPosition(e Diagnostic) string {
	return fmt.Sprintf("%s: %s", e.Pos(), FormatWithCode(e))
}

func New[E Diagnostic](err E) Diagnostic {
	return err.withStack(debug.Stack())
}

type NewIncompatibleAssignment struct {
	ast.Positioner
	MsgKey string
	Value  string
	Target string
	stack  []byte
}

func (e NewIncompatibleAssignment) Error() string {
	return fmt.Sprintf("%s: found '%s', required '%s'", e.MsgKey, e.Value, e.Target)
}
func (e NewIncompatibleAssignment) Code() ErrCode    { return AssignmentIncompatible }
func (e NewIncompatibleAssignment) Key() string      { return e.MsgKey }
func (e NewIncompatibleAssignment) getStack() []byte { return e.stack }
func (e NewIncompatibleAssignment) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

type NewIncompatibleTypeArgument struct {
	ast.Positioner
	MsgKey   string
	Argument string
	Bound    string
	stack    []byte
}

func (e NewIncompatibleTypeArgument) Error() string {
	return fmt.Sprintf("%s: type argument '%s' is not within bound '%s'", e.MsgKey, e.Argument, e.Bound)
}
func (e NewIncompatibleTypeArgument) Code() ErrCode    { return TypeArgumentIncompatible }
func (e NewIncompatibleTypeArgument) Key() string      { return e.MsgKey }
func (e NewIncompatibleTypeArgument) getStack() []byte { return e.stack }
func (e NewIncompatibleTypeArgument) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

type NewForbiddenQualifier struct {
	ast.Positioner
	MsgKey    string
	Type      string
	Qualifier string
	Tree      string
	stack     []byte
}

func (e NewForbiddenQualifier) Error() string {
	return fmt.Sprintf("%s: '%s' in type '%s' is not allowed here (%s)", e.MsgKey, e.Qualifier, e.Type, e.Tree)
}
func (e NewForbiddenQualifier) Code() ErrCode    { return QualifierForbidden }
func (e NewForbiddenQualifier) Key() string      { return e.MsgKey }
func (e NewForbiddenQualifier) getStack() []byte { return e.stack }
func (e NewForbiddenQualifier) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

type NewRequiredQualifier struct {
	ast.Positioner
	MsgKey    string
	Type      string
	Qualifier string
	Tree      string
	stack     []byte
}

func (e NewRequiredQualifier) Error() string {
	return fmt.Sprintf("%s: type '%s' must be '%s' (%s)", e.MsgKey, e.Type, e.Qualifier, e.Tree)
}
func (e NewRequiredQualifier) Code() ErrCode    { return QualifierRequired }
func (e NewRequiredQualifier) Key() string      { return e.MsgKey }
func (e NewRequiredQualifier) getStack() []byte { return e.stack }
func (e NewRequiredQualifier) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

type NewNotComparable struct {
	ast.Positioner
	MsgKey string
	First  string
	Second string
	stack  []byte
}

func (e NewNotComparable) Error() string {
	return fmt.Sprintf("%s: '%s' and '%s' are not comparable", e.MsgKey, e.First, e.Second)
}
func (e NewNotComparable) Code() ErrCode    { return NotComparable }
func (e NewNotComparable) Key() string      { return e.MsgKey }
func (e NewNotComparable) getStack() []byte { return e.stack }
func (e NewNotComparable) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

type NewNotEqual struct {
	ast.Positioner
	MsgKey string
	First  string
	Second string
	stack  []byte
}

func (e NewNotEqual) Error() string {
	return fmt.Sprintf("%s: '%s' and '%s' are not equal", e.MsgKey, e.First, e.Second)
}
func (e NewNotEqual) Code() ErrCode    { return NotEqual }
func (e NewNotEqual) Key() string      { return e.MsgKey }
func (e NewNotEqual) getStack() []byte { return e.stack }
func (e NewNotEqual) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}

type NewUnassignable struct {
	ast.Positioner
	Target string
	stack  []byte
}

func (e NewUnassignable) Error() string {
	return fmt.Sprintf("assignment.target.invalid: '%s' is not an assignable location", e.Target)
}
func (e NewUnassignable) Code() ErrCode    { return Unassignable }
func (e NewUnassignable) Key() string      { return "assignment.target.invalid" }
func (e NewUnassignable) getStack() []byte { return e.stack }
func (e NewUnassignable) withStack(stack []byte) Diagnostic {
	e.stack = stack
	return e
}
