// Package ptrkeeper implements Component B: a type-erased owning handle for
// heap objects materialized during deserialization of a pointer graph, plus
// the destructor callback that releases them when the holding data context
// goes out of scope. Grounded on the owner/destroy-callback shape of
// GenericPointerKeeper in the reference implementation
// (_examples/original_source/containers/include/common_serialization/containers/GenericPointerKeeper.h);
// the Go port trades Allocate-on-heap-with-custom-deleter for a plain Go
// value plus an optional release hook, since the garbage collector already
// reclaims memory — the hook exists for callers that attach external
// resources (file handles, pooled buffers, cgo memory) to a pointee.
package ptrkeeper

// Destroyer is invoked once, with the owned value and its element count,
// when a Keeper is released. May be nil for plain Go-managed memory.
type Destroyer func(ptr any, count int)

// Allocator materializes new pointees during deserialization, standing in
// for the reference implementation's StrategicAllocationManager. The
// default allocator is a plain heap allocation via the factory closure
// passed to it; a caller wanting pooled or arena-backed pointees supplies
// their own Allocator instead.
type Allocator interface {
	// Allocate calls factory to build a new value of the pointee's type and
	// wraps the result in an owning Keeper.
	Allocate(factory func() any) *Keeper
}

// HeapAllocator is the default Allocator: each call allocates a fresh Go
// value on the heap and lets the garbage collector reclaim it, so the
// returned Keeper carries no Destroyer.
type HeapAllocator struct{}

// Allocate implements Allocator.
func (HeapAllocator) Allocate(factory func() any) *Keeper {
	return New(factory(), 1, nil)
}

// Keeper owns ptr (a slice or pointer value), how many logical elements it
// holds, and the function that tears it down. It is move-only: copying a
// Keeper by value and calling Release on both copies would double-destroy,
// so callers should pass *Keeper and call Move when transferring ownership.
type Keeper struct {
	ptr     any
	count   int
	destroy Destroyer
	owned   bool
}

// New creates a Keeper that owns ptr.
func New(ptr any, count int, destroy Destroyer) *Keeper {
	return &Keeper{ptr: ptr, count: count, destroy: destroy, owned: true}
}

// Borrow creates a Keeper that references ptr without owning it — Release is
// a no-op. Used when the parser temporarily wraps a pointer it does not hold
// exclusive responsibility for freeing (see SPEC_FULL.md's "small-buffer
// borrow" supplemented feature).
func Borrow(ptr any, count int) *Keeper {
	return &Keeper{ptr: ptr, count: count, owned: false}
}

// Ptr returns the owned value.
func (k *Keeper) Ptr() any {
	if k == nil {
		return nil
	}
	return k.ptr
}

// Count returns the number of logical elements held.
func (k *Keeper) Count() int {
	if k == nil {
		return 0
	}
	return k.count
}

// Owned reports whether this Keeper is responsible for destroying its
// pointee, as opposed to merely borrowing it.
func (k *Keeper) Owned() bool { return k != nil && k.owned }

// Release invokes the destroyer (if any and if owned) and clears the
// Keeper. Safe to call multiple times and on a nil Keeper.
func (k *Keeper) Release() {
	if k == nil || k.ptr == nil {
		return
	}
	if k.owned && k.destroy != nil {
		k.destroy(k.ptr, k.count)
	}
	k.ptr = nil
	k.count = 0
	k.destroy = nil
}

// Move transfers ownership out of k into a new Keeper, leaving k empty.
// Models the source type's move-only semantics in a language without them.
func (k *Keeper) Move() *Keeper {
	if k == nil {
		return nil
	}
	moved := &Keeper{ptr: k.ptr, count: k.count, destroy: k.destroy, owned: k.owned}
	k.ptr, k.count, k.destroy, k.owned = nil, 0, nil, false
	return moved
}

// List is the scoped collection of keepers a data context accumulates while
// AllowUnmanagedPointers is set during deserialization. ReleaseAll is called
// when the owning context is discarded, per spec §5's "destroyed at scope
// end" rule.
type List struct {
	items []*Keeper
}

// Append records a newly allocated pointee under the list's ownership.
func (l *List) Append(k *Keeper) { l.items = append(l.items, k) }

// Len reports how many keepers are tracked.
func (l *List) Len() int { return len(l.items) }

// ReleaseAll destroys every tracked keeper in reverse allocation order.
func (l *List) ReleaseAll() {
	for i := len(l.items) - 1; i >= 0; i-- {
		l.items[i].Release()
	}
	l.items = nil
}
