package parser

import (
	"fmt"
)

// SyntaxError reports a malformed type expression
type SyntaxError struct {
	Source string
	Offset int
	Msg    string
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("syntax error in type %q at offset %d: %s", e.Source, e.Offset, e.Msg)
}
