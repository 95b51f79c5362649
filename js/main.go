//go:build js && wasm

package main

import (
	"bytes"
	"syscall/js"

	"github.com/coyove/minilisp"
)

// run(src) evaluates src in a machine kept alive for the page and returns
// {result, stdout, error}.
func main() {
	out := &bytes.Buffer{}
	vm := minilisp.New(minilisp.WithStdout(out))
	js.Global().Set("run", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) != 1 {
			return map[string]interface{}{"error": "run expects one argument"}
		}
		out.Reset()
		v, err := vm.EvalString(args[0].String())
		res := map[string]interface{}{"result": v.String(), "stdout": out.String()}
		if err != nil {
			res["error"] = err.Error()
		}
		return res
	}))
	select {}
}
