//go:build js && wasm

package qualinfer

import (
	"context"
	"fmt"
	"strings"
	"syscall/js"

	"github.com/cottand/qualinfer/frontend/qerr"
	"github.com/cottand/qualinfer/frontend/typefactory"
)

// CheckProgram checks the YAML program in args[0] against the interning
// hierarchy and returns the diagnostics, one per line
func CheckProgram(_ js.Value, args []js.Value) (ret any) {
	defer func() {
		if r := recover(); r != nil {
			ret = "checker panicked: " + fmt.Sprint(r)
		}
	}()

	result, err := runSource(args[0].String(), typefactory.Checking)
	if err != nil {
		return fmt.Sprintf("the checker encountered a failure:\n\n%s", err)
	}
	if !result.Diagnostics.HasError() {
		return "no qualifier errors"
	}
	sb := strings.Builder{}
	sb.WriteString("the program has the following errors:\n")
	for _, d := range result.Diagnostics.Errors() {
		sb.WriteString(qerr.FormatWithPosition(d))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// InferProgram generates the constraints of the YAML program in args[0].
//
// output: { error: string } | { problem: string }
func InferProgram(_ js.Value, args []js.Value) (ret any) {
	errorObj := func(err string) any {
		return js.ValueOf(map[string]any{
			"error": err,
		})
	}
	defer func() {
		if r := recover(); r != nil {
			ret = errorObj("inference panicked: " + fmt.Sprint(r))
		}
	}()

	result, err := runSource(args[0].String(), typefactory.Inference)
	if err != nil {
		return errorObj(err.Error())
	}
	sb := &strings.Builder{}
	if err := result.Problem.WriteYAML(sb); err != nil {
		return errorObj(err.Error())
	}
	return js.ValueOf(map[string]any{
		"problem": sb.String(),
	})
}

func runSource(src string, mode typefactory.Mode) (Result, error) {
	prog, err := ParseProgram([]byte(src))
	if err != nil {
		return Result{}, err
	}
	return Run(context.Background(), prog, Settings{Mode: mode})
}
