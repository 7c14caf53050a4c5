package symtab

import (
	"github.com/chebert/golisp/internal/machine"
	"github.com/chebert/golisp/internal/value"
)

// djb2 is Dan Bernstein's string hash, used unmodified from
// original_source/symbol_table.c's HashString.
func djb2(name []byte) uint32 {
	hash := uint32(5381)
	for _, c := range name {
		hash = hash*33 + uint32(c)
	}
	return hash
}

// MakeTable allocates a size-bucket hash table and installs it as the
// SymbolTable register.
func MakeTable(m *machine.Machine, size uint64) (value.Value, error) {
	table, err := m.Heap.AllocateVector(size)
	if err != nil {
		return value.Nil, err
	}
	m.Set(machine.SymbolTable, table)
	return table, nil
}

func bucketIndex(m *machine.Machine, table value.Value, name []byte) uint64 {
	length := m.Heap.VectorLength(table)
	return uint64(djb2(name)) % uint64(length)
}

func symbolEqual(m *machine.Machine, symbol value.Value, name []byte) bool {
	return string(m.Heap.SymbolName(symbol)) == string(name)
}

func findInBucket(m *machine.Machine, table value.Value, index uint64, name []byte) (value.Value, error) {
	bucket, err := m.Heap.VectorRef(table, index)
	if err != nil {
		return value.Nil, err
	}
	for !value.IsNil(bucket) {
		symbol := m.Heap.Car(bucket)
		if symbolEqual(m, symbol, name) {
			return symbol, nil
		}
		bucket = m.Heap.Cdr(bucket)
	}
	return value.Nil, nil
}

// Find returns the interned symbol named name, or NIL if none exists.
// Find never allocates.
func Find(m *machine.Machine, name []byte) (value.Value, error) {
	table := m.Get(machine.SymbolTable)
	index := bucketIndex(m, table, name)
	return findInBucket(m, table, index, name)
}

// Intern returns the symbol named name, allocating and registering a new
// one if this is the first time name has been interned. Two interns of
// the same bytes always return reference-equal symbols.
func Intern(m *machine.Machine, name []byte) (value.Value, error) {
	table := m.Get(machine.SymbolTable)
	index := bucketIndex(m, table, name)
	if found, err := findInBucket(m, table, index, name); err != nil {
		return value.Nil, err
	} else if !value.IsNil(found) {
		return found, nil
	}

	// The new symbol must be rooted before any further allocation can
	// strand it; Value is used as a scratch register here and restored to
	// its caller-visible contents before returning.
	if err := m.Save(machine.Value); err != nil {
		return value.Nil, err
	}
	sym, err := m.Heap.AllocateSymbol(name)
	if err != nil {
		m.Restore(machine.Value)
		return value.Nil, err
	}
	m.Set(machine.Value, sym)

	pair, err := m.Heap.AllocatePair()
	if err != nil {
		m.Restore(machine.Value)
		return value.Nil, err
	}

	sym = m.Get(machine.Value)
	table = m.Get(machine.SymbolTable)
	bucket, err := m.Heap.VectorRef(table, index)
	if err != nil {
		m.Restore(machine.Value)
		return value.Nil, err
	}
	m.Heap.SetCar(pair, sym)
	m.Heap.SetCdr(pair, bucket)
	if err := m.Heap.VectorSet(table, index, pair); err != nil {
		m.Restore(machine.Value)
		return value.Nil, err
	}

	m.Restore(machine.Value)
	return sym, nil
}

// Unintern removes name's symbol from the table, if present. Bucket order
// is otherwise unspecified and callers must not depend on it.
func Unintern(m *machine.Machine, name []byte) error {
	table := m.Get(machine.SymbolTable)
	index := bucketIndex(m, table, name)
	bucket, err := m.Heap.VectorRef(table, index)
	if err != nil {
		return err
	}

	kept := value.Nil
	for !value.IsNil(bucket) {
		symbol := m.Heap.Car(bucket)
		rest := m.Heap.Cdr(bucket)
		if symbolEqual(m, symbol, name) {
			bucket = rest
			continue
		}
		if err := m.Save(machine.Value); err != nil {
			return err
		}
		m.Set(machine.Value, kept)
		pair, err := m.Heap.AllocatePair()
		if err != nil {
			m.Restore(machine.Value)
			return err
		}
		kept = m.Get(machine.Value)
		m.Heap.SetCar(pair, symbol)
		m.Heap.SetCdr(pair, kept)
		kept = pair
		m.Restore(machine.Value)
		bucket = rest
	}

	table = m.Get(machine.SymbolTable)
	return m.Heap.VectorSet(table, index, kept)
}
