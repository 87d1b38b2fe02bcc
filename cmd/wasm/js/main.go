//go:build js && wasm

// Command imagemath-wasm-js is the WebAssembly entrypoint for browser and Node.js.
//
// It exposes a global `imagemath` object with the following API:
//
//	imagemath.version()                   → string
//	imagemath.eval(expr, bindingsJSON)    → resultJSON  (throws on error)
//	imagemath.compile(expr)               → { eval(bindingsJSON) → resultJSON }  (throws on error)
//
// bindingsJSON is a JSON object mapping names to numbers or image objects
// ({"mode": "L", "width": 2, "height": 1, "pixels": [0, 255]}). Image
// results come back in the same shape.
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o imagemath.wasm ./cmd/wasm/js/
//
// Usage in Node.js:
//
//	const im = await load()
//	const out = im.eval('a * 2', JSON.stringify({a: 21}))
//	console.log(JSON.parse(out)) // 42
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/sandrolain/imagemath"
	"github.com/sandrolain/imagemath/pkg/evaluator"
	"github.com/sandrolain/imagemath/pkg/wire"
)

// jsThrow panics with a JS Error so the caller receives a thrown exception.
func jsThrow(msg string) {
	js.Global().Get("Error").New(msg)
	panic(msg)
}

func decodeBindings(fn, bindingsJSON string) map[string]any {
	var raw map[string]json.RawMessage
	if bindingsJSON != "" {
		if err := json.Unmarshal([]byte(bindingsJSON), &raw); err != nil {
			jsThrow(fmt.Sprintf("%s: invalid bindings JSON: %v", fn, err))
		}
	}
	bindings, err := wire.DecodeBindings(raw)
	if err != nil {
		jsThrow(fmt.Sprintf("%s: %v", fn, err))
	}
	return bindings
}

func encodeResult(fn string, result any) string {
	out, err := json.Marshal(wire.EncodeResult(result))
	if err != nil {
		jsThrow(fmt.Sprintf("%s: marshal result: %v", fn, err))
	}
	return string(out)
}

// jsEval implements imagemath.eval(expr, bindingsJSON) → resultJSON.
func jsEval(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		jsThrow("imagemath.eval requires an expression and optional bindings (JSON string)")
	}
	var bindingsJSON string
	if len(args) > 1 {
		bindingsJSON = args[1].String()
	}
	bindings := decodeBindings("imagemath.eval", bindingsJSON)

	result, err := imagemath.EvalWithContext(context.Background(), args[0].String(), bindings)
	if err != nil {
		jsThrow(fmt.Sprintf("imagemath.eval: %v", err))
	}
	return encodeResult("imagemath.eval", result)
}

// jsCompile implements imagemath.compile(expr) → { eval(bindingsJSON) → resultJSON }.
func jsCompile(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		jsThrow("imagemath.compile requires 1 argument: expression (string)")
	}

	expr, err := imagemath.Compile(args[0].String())
	if err != nil {
		jsThrow(fmt.Sprintf("imagemath.compile: %v", err))
	}

	ev := evaluator.New()

	evalFn := js.FuncOf(func(_ js.Value, innerArgs []js.Value) any {
		var bindingsJSON string
		if len(innerArgs) > 0 {
			bindingsJSON = innerArgs[0].String()
		}
		bindings := decodeBindings("compiled.eval", bindingsJSON)
		r, e := ev.Eval(context.Background(), expr, bindings)
		if e != nil {
			jsThrow(fmt.Sprintf("compiled.eval: %v", e))
		}
		return encodeResult("compiled.eval", r)
	})

	return js.ValueOf(map[string]any{"eval": evalFn})
}

func main() {
	api := map[string]any{
		"eval":    js.FuncOf(jsEval),
		"compile": js.FuncOf(jsCompile),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) any {
			return imagemath.Version()
		}),
	}
	js.Global().Set("imagemath", js.ValueOf(api))

	// Block forever: the JS event loop owns execution from here.
	select {}
}
