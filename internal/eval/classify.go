package eval

import (
	"github.com/chebert/golisp/internal/machine"
	"github.com/chebert/golisp/internal/symtab"
	"github.com/chebert/golisp/internal/value"
)

// isSelfEvaluating matches original_source/evaluate.c's IsSelfEvaluating
// exactly: every tag that carries its own meaning independent of any
// environment.
func isSelfEvaluating(v value.Value) bool {
	return value.IsNil(v) ||
		value.IsTrue(v) ||
		value.IsFalse(v) ||
		value.IsFixnum(v) ||
		value.IsReal32(v) ||
		value.IsReal64(v) ||
		value.IsVector(v) ||
		value.IsByteVector(v) ||
		value.IsString(v)
}

// isTaggedList reports whether expr is a pair whose car is the symbol
// interned under name. It calls symtab.Find fresh on every invocation
// (non-allocating) rather than comparing against a cached value.Value,
// because a special-form symbol interned once at startup is still subject
// to relocation by any later collection; original_source/evaluate.c's
// IsTaggedList has the same shape (FindSymbol(tag) == Car(list)) for the
// same reason.
func isTaggedList(m *machine.Machine, expr value.Value, name []byte) (bool, error) {
	if !value.IsPair(expr) {
		return false, nil
	}
	tag, err := symtab.Find(m, name)
	if err != nil {
		return false, err
	}
	if value.IsNil(tag) {
		return false, nil
	}
	return m.Heap.Car(expr) == tag, nil
}

// second, third and fourthOrNil read positions out of a special-form list
// without allocating. fourthOrNil returns NIL rather than reading past a
// short list, unlike original_source/evaluate.c's unchecked Fourth — see
// the package doc.
func second(m *machine.Machine, list value.Value) value.Value {
	return m.Heap.Car(m.Heap.Cdr(list))
}

func third(m *machine.Machine, list value.Value) value.Value {
	return m.Heap.Car(m.Heap.Cdr(m.Heap.Cdr(list)))
}

func fourthOrNil(m *machine.Machine, list value.Value) value.Value {
	rest := m.Heap.Cdr(m.Heap.Cdr(m.Heap.Cdr(list)))
	if value.IsNil(rest) {
		return value.Nil
	}
	return m.Heap.Car(rest)
}
