// Package kernel holds the operation vocabulary and the registry of
// per-pixel kernels that implement it.
//
// Kernels are keyed by operation and input mode ("add_I", "min_F"). The
// registry is read-only after construction so it can be shared by any
// number of concurrent evaluations. Every kernel writes into a freshly
// allocated output image whose mode is chosen by the caller; values are
// converted to the output mode as they are stored.
package kernel

import (
	"sort"
	"sync"

	"github.com/sandrolain/imagemath/pkg/image"
	"github.com/sandrolain/imagemath/pkg/types"
)

// UnaryFunc computes out from in. Both images have the same size.
type UnaryFunc func(out, in *image.Image)

// BinaryFunc computes out from a and b. All three images have the same size.
type BinaryFunc func(out, a, b *image.Image)

// Kernel is a single registry entry.
type Kernel struct {
	Op     Op
	Mode   image.Mode
	Unary  UnaryFunc
	Binary BinaryFunc
}

// Name returns the registry key of the kernel, e.g. "add_I".
func (k Kernel) Name() string {
	return Key(k.Op, k.Mode)
}

// Call runs the kernel. in must hold one image for unary kernels and two
// for binary kernels.
func (k Kernel) Call(out *image.Image, in ...*image.Image) error {
	switch {
	case k.Unary != nil && len(in) == 1:
		k.Unary(out, in[0])
	case k.Binary != nil && len(in) == 2:
		k.Binary(out, in[0], in[1])
	default:
		return types.Errorf(types.ErrUnsupportedOperation,
			"kernel %s does not accept %d operand(s)", k.Name(), len(in))
	}
	return nil
}

// Key builds the registry key for an operation and mode.
func Key(op Op, mode image.Mode) string {
	return op.String() + "_" + string(mode)
}

// Registry resolves kernels.
type Registry interface {
	Lookup(op Op, mode image.Mode) (Kernel, bool)
}

// Table is an immutable Registry backed by a map.
type Table struct {
	entries map[string]Kernel
}

// NewTable builds a table from the given kernels. Later entries replace
// earlier ones with the same key.
func NewTable(kernels ...Kernel) *Table {
	t := &Table{entries: make(map[string]Kernel, len(kernels))}
	for _, k := range kernels {
		t.entries[k.Name()] = k
	}
	return t
}

// Lookup implements Registry.
func (t *Table) Lookup(op Op, mode image.Mode) (Kernel, bool) {
	k, ok := t.entries[Key(op, mode)]
	return k, ok
}

// With returns a new table holding the receiver's kernels plus the given
// ones. The receiver is not modified.
func (t *Table) With(kernels ...Kernel) *Table {
	all := make([]Kernel, 0, len(t.entries)+len(kernels))
	for _, k := range t.entries {
		all = append(all, k)
	}
	return NewTable(append(all, kernels...)...)
}

// Len returns the number of kernels in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// Keys returns the sorted registry keys.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// Default returns the shared table of reference kernels for modes I and F.
func Default() *Table {
	defaultTableOnce.Do(func() {
		defaultTable = NewTable(append(intKernels(), floatKernels()...)...)
	})
	return defaultTable
}
