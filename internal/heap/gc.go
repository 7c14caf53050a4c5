package heap

import "github.com/chebert/golisp/internal/value"

// Collect runs a full copying collection: every object reachable from the
// root is copied into spare exactly once (a BROKEN_HEART left behind in
// live forwards any further references to the same object), then live and
// spare swap.
func (h *Heap) Collect() {
	h.numCollections++
	h.logger.Debug("gc: begin",
		zapFields(h)...,
	)

	// Clearing spare isn't required for correctness — only scan..free ever
	// gets read back out of it — but it keeps a dump of the heap legible
	// while debugging a collection, matching memory.c's CollectGarbage.
	for i := range h.spare {
		h.spare[i] = value.Nil
	}

	h.free = 0
	h.root = h.relocate(h.root)

	for scan := uint64(0); scan < h.free; {
		if value.IsBlobHeader(h.spare[scan]) {
			// A blob's body cells hold packed bytes, not values: they were
			// already copied verbatim by relocateBlob, and feeding them to
			// relocate would misread raw byte patterns as tagged objects.
			// Skip the whole object rather than scanning it slot by slot.
			scan += numObjectsPerBlob(blobLength(h.spare[scan]))
			continue
		}
		h.spare[scan] = h.relocate(h.spare[scan])
		scan++
	}
	h.numObjectsMoved += h.free

	h.live, h.spare = h.spare, h.live

	h.logger.Debug("gc: end",
		zapFields(h)...,
	)
}

// relocate copies the object object refers to into spare if it hasn't been
// copied yet (leaving a BROKEN_HEART in live), or follows an existing
// BROKEN_HEART if it has, and returns a value.Value pointing at the
// (possibly just-created) copy in spare.
func (h *Heap) relocate(object value.Value) value.Value {
	if value.IsDouble(object) {
		return object
	}
	switch value.TagOf(object) {
	case value.TagNil, value.TagTrue, value.TagFalse, value.TagFixnum, value.TagReal32:
		return object
	case value.TagPair:
		return h.relocatePair(value.Payload(object))
	case value.TagVector:
		return h.relocateVector(value.Payload(object))
	case value.TagString:
		return value.BoxString(h.relocateBlob(value.Payload(object)))
	case value.TagSymbol:
		return value.BoxSymbol(h.relocateBlob(value.Payload(object)))
	case value.TagByteVector:
		return value.BoxByteVector(h.relocateBlob(value.Payload(object)))
	default:
		// BROKEN_HEART and BLOB_HEADER never appear as a value reachable
		// through a root-reachable reference; only as a header cell a
		// relocate* function reads directly off h.live.
		panic("heap: relocate saw an object that cannot appear outside a header cell: " + value.TagOf(object).String())
	}
}

func (h *Heap) relocatePair(ref uint64) value.Value {
	oldCar := h.live[ref]
	if value.IsBrokenHeart(oldCar) {
		return value.BoxPair(value.Payload(oldCar))
	}
	newRef := h.free
	h.spare[h.free] = oldCar
	h.free++
	h.spare[h.free] = h.live[ref+1]
	h.free++
	h.live[ref] = value.BoxBrokenHeart(newRef)
	return value.BoxPair(newRef)
}

func (h *Heap) relocateVector(ref uint64) value.Value {
	oldHeader := h.live[ref]
	if value.IsBrokenHeart(oldHeader) {
		return value.BoxVector(value.Payload(oldHeader))
	}
	numObjects := uint64(value.UnboxFixnum(oldHeader)) + 1
	newRef := h.free
	copy(h.spare[h.free:h.free+numObjects], h.live[ref:ref+numObjects])
	h.free += numObjects
	h.live[ref] = value.BoxBrokenHeart(newRef)
	return value.BoxVector(newRef)
}

func (h *Heap) relocateBlob(ref uint64) uint64 {
	oldHeader := h.live[ref]
	if value.IsBrokenHeart(oldHeader) {
		return value.Payload(oldHeader)
	}
	numObjects := numObjectsPerBlob(blobLength(oldHeader))
	newRef := h.free
	copy(h.spare[h.free:h.free+numObjects], h.live[ref:ref+numObjects])
	h.free += numObjects
	h.live[ref] = value.BoxBrokenHeart(newRef)
	return newRef
}
