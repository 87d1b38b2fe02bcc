//go:build wasip1

// Command imagemath-wasi is the WASI (wasip1) entrypoint for use from any
// language that supports the WebAssembly System Interface.
//
// Protocol: single JSON object on stdin → single JSON object on stdout.
//
//	stdin:  { "expression": "<expr>", "bindings": { "<name>": <binding> } }
//	stdout: { "result": <value> }    on success
//	        { "error":  "<message>" } on failure (exit code 1)
//
// A binding is a number, a boolean, a string, or an image object
// { "mode": "L", "width": 2, "height": 1, "pixels": [0, 255] }. Image
// results are returned in the same shape.
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o imagemath.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"expression":"a * 2","bindings":{"a":21}}' | wasmtime imagemath.wasm
package main

import (
	"context"
	"io"
	"os"

	"github.com/sandrolain/imagemath"
	"github.com/sandrolain/imagemath/pkg/wire"
)

func writeResponse(r wire.Response, exitCode int) {
	out := wire.Marshal(r)
	_, _ = os.Stdout.Write(append(out, '\n'))
	os.Exit(exitCode)
}

func main() {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		writeResponse(wire.Response{Error: "read request: " + err.Error()}, 1)
	}
	req, err := wire.DecodeRequest(data)
	if err != nil {
		writeResponse(wire.Response{Error: err.Error()}, 1)
	}
	bindings, err := wire.DecodeBindings(req.Bindings)
	if err != nil {
		writeResponse(wire.Response{Error: err.Error()}, 1)
	}

	result, err := imagemath.EvalWithContext(context.Background(), req.Expression, bindings)
	if err != nil {
		writeResponse(wire.Response{Error: err.Error()}, 1)
	}
	writeResponse(wire.Response{Result: wire.EncodeResult(result)}, 0)
}
