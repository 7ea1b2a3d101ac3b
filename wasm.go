//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cottand/qualinfer/qualinfer"
)

func main() {
	js.Global().Set("CheckProgram", js.FuncOf(qualinfer.CheckProgram))
	js.Global().Set("InferProgram", js.FuncOf(qualinfer.InferProgram))

	// wait indefinitely so that Go does not terminate execution
	// and the functions remain available
	<-make(chan struct{})
}
