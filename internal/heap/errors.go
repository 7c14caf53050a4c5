package heap

import "github.com/pkg/errors"

// ErrOutOfMemory is returned when a collection still leaves too little
// free space to satisfy an allocation request.
var ErrOutOfMemory = errors.New("heap: out of memory")

// ErrIndexOutOfRange is returned by VectorRef/VectorSet/ByteVectorRef/
// ByteVectorSet when the requested index is not within the object's
// length.
var ErrIndexOutOfRange = errors.New("heap: index out of range")
