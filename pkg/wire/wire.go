// Package wire is the JSON request and response format shared by the
// WebAssembly entrypoints.
//
// A binding is a JSON number, boolean, string or null, or an image object
// in the shape of image.Raw:
//
//	{"mode": "L", "width": 2, "height": 1, "pixels": [0, 255]}
//
// Integral numbers decode to int64, others to float64.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/sandrolain/imagemath/pkg/image"
)

// Request is an evaluation request.
type Request struct {
	Expression string                     `json:"expression"`
	Bindings   map[string]json.RawMessage `json:"bindings"`
}

// Response carries either a result or an error message.
type Response struct {
	Result any    `json:"result"`
	Error  string `json:"error,omitempty"`
}

// MarshalJSON writes {"error": ...} for failures and {"result": ...}
// otherwise, so a None result is encoded as "result": null.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Error})
	}
	return json.Marshal(struct {
		Result any `json:"result"`
	}{r.Result})
}

// DecodeRequest parses a request document.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("invalid request JSON: %w", err)
	}
	return req, nil
}

// DecodeBindings converts every raw binding. Errors name the binding; the
// first failing name in sorted order is reported.
func DecodeBindings(raw map[string]json.RawMessage) (map[string]any, error) {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]any, len(raw))
	for _, name := range names {
		v, err := DecodeValue(raw[name])
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// DecodeValue converts one JSON binding.
func DecodeValue(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var r image.Raw
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return image.FromRaw(r)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		return x.Float64()
	case bool, string, nil:
		return x, nil
	}
	return nil, fmt.Errorf("unsupported binding %s", raw)
}

// EncodeResult maps an evaluation result to its JSON form. Images become
// image.Raw objects.
func EncodeResult(v any) any {
	if im, ok := v.(*image.Image); ok {
		return im.Raw()
	}
	return v
}

// Marshal renders a response. A result that cannot be encoded (NaN, a
// function value) turns into an error response.
func Marshal(r Response) []byte {
	out, err := json.Marshal(r)
	if err != nil {
		out, _ = json.Marshal(Response{Error: "encode result: " + err.Error()})
	}
	return out
}
