package heap

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chebert/golisp/internal/value"
)

// Heap is a two-space copying collector over value.Value words. The zero
// value is not usable; construct one with New.
type Heap struct {
	live, spare []value.Value
	free, max   uint64
	root        value.Value

	numCollections, numObjectsAllocated, numObjectsMoved uint64

	logger *zap.Logger
}

// New allocates a heap with room for maxObjects value.Value words in each
// of its two spaces. A nil logger defaults to zap.NewNop(), matching the
// rest of this module's opt-in observability.
func New(maxObjects uint64, logger *zap.Logger) *Heap {
	if logger == nil {
		logger = zap.NewNop()
	}
	live := make([]value.Value, maxObjects)
	spare := make([]value.Value, maxObjects)
	for i := range live {
		live[i] = value.Nil
	}
	return &Heap{
		live:   live,
		spare:  spare,
		max:    maxObjects,
		root:   value.Nil,
		logger: logger,
	}
}

// Root returns the heap's current root value. Any value.Value a caller
// computed before a collection and derived from Root must be reloaded via
// Root after one, since the collection may have moved it.
func (h *Heap) Root() value.Value { return h.root }

// SetRoot installs v as the heap's GC root. Everything reachable from v
// survives the next collection; everything else does not.
func (h *Heap) SetRoot(v value.Value) { h.root = v }

// Stats reports cumulative allocator/collector counters, useful for tests
// and diagnostics.
type Stats struct {
	Collections, ObjectsAllocated, ObjectsMoved uint64
	Free, Capacity                              uint64
}

func (h *Heap) Stats() Stats {
	return Stats{
		Collections:      h.numCollections,
		ObjectsAllocated: h.numObjectsAllocated,
		ObjectsMoved:     h.numObjectsMoved,
		Free:             h.free,
		Capacity:         h.max,
	}
}

// ensureCapacity runs a collection if fewer than numObjectsRequired slots
// remain, then fails with ErrOutOfMemory if the collection didn't free
// enough.
func (h *Heap) ensureCapacity(numObjectsRequired uint64) error {
	if h.free+numObjectsRequired > h.max {
		h.Collect()
	}
	if h.free+numObjectsRequired > h.max {
		return errors.Wrapf(ErrOutOfMemory, "need %d objects, have %d of %d free", numObjectsRequired, h.max-h.free, h.max)
	}
	return nil
}

// AllocatePair reserves two cells, both initialized to NIL, and returns a
// PAIR referencing them. Callers set car/cdr afterward with SetCar/SetCdr,
// which never allocate — this is what keeps the two-step allocate-then-fill
// pattern safe across a collection.
func (h *Heap) AllocatePair() (value.Value, error) {
	if err := h.ensureCapacity(2); err != nil {
		return value.Nil, err
	}
	ref := h.free
	h.live[h.free] = value.Nil
	h.free++
	h.live[h.free] = value.Nil
	h.free++
	h.numObjectsAllocated += 2
	return value.BoxPair(ref), nil
}

// Car and Cdr assume pair denotes a live PAIR; they do not bounds-check or
// tag-check, matching original_source/pair.c's contract that callers only
// ever pass a value already known to be a PAIR.
func (h *Heap) Car(pair value.Value) value.Value { return h.live[value.Payload(pair)] }
func (h *Heap) Cdr(pair value.Value) value.Value { return h.live[value.Payload(pair)+1] }

func (h *Heap) SetCar(pair, v value.Value) { h.live[value.Payload(pair)] = v }
func (h *Heap) SetCdr(pair, v value.Value) { h.live[value.Payload(pair)+1] = v }

// AllocateVector reserves a header cell plus n element cells, all elements
// initialized to NIL.
func (h *Heap) AllocateVector(n uint64) (value.Value, error) {
	if err := h.ensureCapacity(n + 1); err != nil {
		return value.Nil, err
	}
	ref := h.free
	h.live[h.free] = value.BoxFixnum(int64(n))
	h.free++
	for i := uint64(0); i < n; i++ {
		h.live[h.free] = value.Nil
		h.free++
	}
	h.numObjectsAllocated += n + 1
	return value.BoxVector(ref), nil
}

// VectorLength returns the element count recorded in a vector's header.
func (h *Heap) VectorLength(v value.Value) int64 {
	return value.UnboxFixnum(h.live[value.Payload(v)])
}

func (h *Heap) VectorRef(v value.Value, index uint64) (value.Value, error) {
	if int64(index) >= h.VectorLength(v) {
		return value.Nil, errors.Wrapf(ErrIndexOutOfRange, "vector index %d, length %d", index, h.VectorLength(v))
	}
	return h.live[value.Payload(v)+1+index], nil
}

func (h *Heap) VectorSet(v value.Value, index uint64, elem value.Value) error {
	if int64(index) >= h.VectorLength(v) {
		return errors.Wrapf(ErrIndexOutOfRange, "vector index %d, length %d", index, h.VectorLength(v))
	}
	h.live[value.Payload(v)+1+index] = elem
	return nil
}

func numObjectsPerBlob(numBytes uint64) uint64 {
	return 1 + (numBytes+7)/8
}

// allocateBlob reserves a BLOB_HEADER cell recording numBytes, plus enough
// trailing cells to hold that many packed bytes. It returns the object
// index (not a boxed reference, since a blob's tag depends on the caller:
// STRING, SYMBOL or BYTE_VECTOR all share this layout).
func (h *Heap) allocateBlob(numBytes uint64) (uint64, error) {
	numObjects := numObjectsPerBlob(numBytes)
	if err := h.ensureCapacity(numObjects); err != nil {
		return 0, err
	}
	ref := h.free
	h.live[ref] = value.BoxBlobHeader(numBytes)
	for i := uint64(1); i < numObjects; i++ {
		h.live[ref+i] = 0
	}
	h.free += numObjects
	h.numObjectsAllocated += numObjects
	return ref, nil
}

func blobLength(header value.Value) uint64 { return value.UnboxBlobHeader(header) }

func (h *Heap) blobByteAt(ref, i uint64) byte {
	slot := h.live[ref+1+i/8]
	return byte(uint64(slot) >> ((i % 8) * 8))
}

func (h *Heap) setBlobByteAt(ref, i uint64, b byte) {
	slotIdx := ref + 1 + i/8
	shift := (i % 8) * 8
	mask := uint64(0xff) << shift
	h.live[slotIdx] = value.Value((uint64(h.live[slotIdx]) &^ mask) | (uint64(b) << shift))
}

// AllocateByteVector reserves n zeroed bytes.
func (h *Heap) AllocateByteVector(n uint64) (value.Value, error) {
	ref, err := h.allocateBlob(n)
	if err != nil {
		return value.Nil, err
	}
	return value.BoxByteVector(ref), nil
}

func (h *Heap) ByteVectorLength(v value.Value) uint64 {
	return blobLength(h.live[value.Payload(v)])
}

func (h *Heap) ByteVectorRef(v value.Value, index uint64) (byte, error) {
	ref := value.Payload(v)
	if index >= blobLength(h.live[ref]) {
		return 0, errors.Wrapf(ErrIndexOutOfRange, "byte-vector index %d, length %d", index, blobLength(h.live[ref]))
	}
	return h.blobByteAt(ref, index), nil
}

func (h *Heap) ByteVectorSet(v value.Value, index uint64, b byte) error {
	ref := value.Payload(v)
	if index >= blobLength(h.live[ref]) {
		return errors.Wrapf(ErrIndexOutOfRange, "byte-vector index %d, length %d", index, blobLength(h.live[ref]))
	}
	h.setBlobByteAt(ref, index, b)
	return nil
}

// AllocateString copies bytes into a new STRING blob, appending a trailing
// NUL the way original_source/memory.c's AllocateString does for its C
// strings. bytes should not itself contain the terminator.
func (h *Heap) AllocateString(bytes []byte) (value.Value, error) {
	ref, err := h.allocateBlob(uint64(len(bytes)) + 1)
	if err != nil {
		return value.Nil, err
	}
	for i, b := range bytes {
		h.setBlobByteAt(ref, uint64(i), b)
	}
	return value.BoxString(ref), nil
}

// StringBytes returns the stored contents of a STRING, including the
// trailing NUL.
func (h *Heap) StringBytes(v value.Value) []byte {
	ref := value.Payload(v)
	n := blobLength(h.live[ref])
	out := make([]byte, n)
	for i := range out {
		out[i] = h.blobByteAt(ref, uint64(i))
	}
	return out
}

// AllocateSymbol allocates a blob with the same layout as AllocateString
// and boxes it as SYMBOL instead of STRING.
func (h *Heap) AllocateSymbol(bytes []byte) (value.Value, error) {
	s, err := h.AllocateString(bytes)
	if err != nil {
		return value.Nil, err
	}
	return value.BoxSymbol(value.Payload(s)), nil
}

// SymbolBytes returns a symbol's stored name, including the trailing NUL.
func (h *Heap) SymbolBytes(v value.Value) []byte {
	return h.StringBytes(value.BoxString(value.Payload(v)))
}

// SymbolName returns a symbol's name without the trailing NUL, the form
// callers comparing against a Go string generally want.
func (h *Heap) SymbolName(v value.Value) []byte {
	b := h.SymbolBytes(v)
	if len(b) == 0 {
		return b
	}
	return b[:len(b)-1]
}
