// Package value implements the NaN-boxed tagged representation that every
// other package in this module builds on: a single uint64 that is either an
// IEEE-754 double or a small tagged immediate/reference.
//
// # Encoding
//
// A float64 bit pattern that represents a negative, quiet NaN with its
// mantissa's top bit set is otherwise unused by any arithmetic operation, so
// its top 13 bits (a sign bit, an all-ones exponent, and the quiet-NaN
// marker bit) are repurposed as a sentinel:
//
//	 1 111 1111 1111 1  tttt  ddddddddddddddddddddddddddddddddddddddddddddddd
//	63              51    47  46                                            0
//	  \___________ metadata __________/ \_______________ payload __________/
//
// Any word whose top 13 bits equal that sentinel is a tagged Value; every
// other bit pattern is a double, read out with math.Float64frombits. Twelve
// of the sixteen possible 4-bit tags are in use (see Tag); the other four
// are free for future extension without touching the encoding.
//
// Tag-only values (Nil, True, False) carry no payload. FIXNUM and REAL32
// pack a 47-bit signed integer or a raw float32 bit pattern into the
// payload. PAIR, VECTOR, BYTE_VECTOR, STRING and SYMBOL payloads are
// indices into a heap's object array, not pointers — the indices stay
// valid only relative to the heap that produced them. BROKEN_HEART and
// BLOB_HEADER are collector-internal and never escape the heap package.
package value
