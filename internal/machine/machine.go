package machine

import (
	"github.com/chebert/golisp/internal/heap"
	"github.com/chebert/golisp/internal/value"
)

// Machine owns a Heap and treats its root vector as the register file
// described in register.go.
type Machine struct {
	Heap *heap.Heap
}

// New allocates the root vector (NumRegisters slots, all NIL) and installs
// it as h's GC root.
func New(h *heap.Heap) (*Machine, error) {
	root, err := h.AllocateVector(uint64(NumRegisters))
	if err != nil {
		return nil, err
	}
	h.SetRoot(root)
	return &Machine{Heap: h}, nil
}

// Get reads a register. It always re-reads the heap's current root, so a
// collection that ran since the last call is already accounted for.
func (m *Machine) Get(r RegisterID) value.Value {
	v, err := m.Heap.VectorRef(m.Heap.Root(), uint64(r))
	if err != nil {
		// The root vector is allocated with exactly NumRegisters slots and
		// r is always one of the named constants above, so this index is
		// always in range; a failure here means the root vector itself was
		// corrupted, not a normal runtime condition.
		panic(err)
	}
	return v
}

// Set writes a register.
func (m *Machine) Set(r RegisterID, v value.Value) {
	if err := m.Heap.VectorSet(m.Heap.Root(), uint64(r), v); err != nil {
		panic(err)
	}
}

// Save pushes a register's current value onto the Stack register, which is
// itself a heap-resident list of pairs the collector can see. Restore pops
// it back off. A caller that Saves a register must Restore it (or a
// register it's about to overwrite) before returning, the same LIFO
// discipline original_source/root.c's Save/Restore assume.
func (m *Machine) Save(r RegisterID) error {
	pair, err := m.Heap.AllocatePair()
	if err != nil {
		return err
	}
	m.Heap.SetCar(pair, m.Get(r))
	m.Heap.SetCdr(pair, m.Get(Stack))
	m.Set(Stack, pair)
	return nil
}

// Restore pops the top of the Stack register into r.
func (m *Machine) Restore(r RegisterID) {
	stack := m.Get(Stack)
	m.Set(r, m.Heap.Car(stack))
	m.Set(Stack, m.Heap.Cdr(stack))
}
