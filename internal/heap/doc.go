// Package heap implements the managed object store the rest of the runtime
// allocates into: a Cheney-style two-space copying collector over a flat
// array of value.Value words, plus the pair/vector/blob accessors built on
// top of it.
//
// # Layout
//
// Heap keeps two equally sized arrays, live and spare. Allocation always
// happens at the tail of live, advanced by a free cursor. A collection
// walks every object reachable from the heap's root, copies each one into
// spare exactly once, and leaves a BROKEN_HEART behind in live pointing at
// the new location so that a second reference to the same object is
// forwarded instead of copied twice. When the walk completes, live and
// spare swap: what was spare is now live, holding only reachable objects.
//
//	PAIR         (2 slots):            [ car, cdr ]
//	VECTOR       (1+N slots):          [ BoxFixnum(N), elem0, ..., elemN-1 ]
//	STRING/SYMBOL/BYTE_VECTOR (blob):  [ BoxBlobHeader(nBytes), byte0..byteN-1 packed 8/word ]
//
// Every heap-allocating method can trigger a collection, which invalidates
// every value.Value the caller is holding that denotes a heap object: an
// object reachable from the heap's root moves to a new index, and an
// unreachable one is discarded. Only references read back through the root
// after the allocation are current. Allocators therefore
// return objects pre-zeroed (NIL cells, zero bytes) rather than accepting
// payload arguments that a collection could strand.
package heap
