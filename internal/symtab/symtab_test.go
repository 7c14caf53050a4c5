package symtab_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chebert/golisp/internal/heap"
	"github.com/chebert/golisp/internal/machine"
	"github.com/chebert/golisp/internal/symtab"
	"github.com/chebert/golisp/internal/value"
)

func newMachine(t *testing.T, maxObjects uint64) *machine.Machine {
	t.Helper()
	h := heap.New(maxObjects, nil)
	m, err := machine.New(h)
	require.NoError(t, err)
	return m
}

func TestInternIsIdempotentAndReferenceEqual(t *testing.T) {
	m := newMachine(t, 256)
	_, err := symtab.MakeTable(m, 13)
	require.NoError(t, err)

	a, err := symtab.Intern(m, []byte("symbol"))
	require.NoError(t, err)
	b, err := symtab.Intern(m, []byte("symbol"))
	require.NoError(t, err)
	require.Equal(t, a, b, "interning the same name twice must return the same Value")

	other, err := symtab.Intern(m, []byte("other"))
	require.NoError(t, err)
	require.NotEqual(t, a, other)
}

func TestFindBeforeInternReturnsNil(t *testing.T) {
	m := newMachine(t, 256)
	_, err := symtab.MakeTable(m, 13)
	require.NoError(t, err)

	found, err := symtab.Find(m, []byte("symbol"))
	require.NoError(t, err)
	require.True(t, value.IsNil(found))

	interned, err := symtab.Intern(m, []byte("symbol"))
	require.NoError(t, err)

	found, err = symtab.Find(m, []byte("symbol"))
	require.NoError(t, err)
	require.Equal(t, interned, found)
}

func TestUninternRemovesSymbol(t *testing.T) {
	m := newMachine(t, 256)
	_, err := symtab.MakeTable(m, 13)
	require.NoError(t, err)

	_, err = symtab.Intern(m, []byte("symbol"))
	require.NoError(t, err)
	require.NoError(t, symtab.Unintern(m, []byte("symbol")))

	found, err := symtab.Find(m, []byte("symbol"))
	require.NoError(t, err)
	require.True(t, value.IsNil(found))
}

func TestInternSurvivesCollection(t *testing.T) {
	// A Value captured before a collection that moves its referent is
	// stale afterward (its payload index no longer points at the object) —
	// that's the invalidation hazard the heap package's doc comment
	// describes, not a bug to work around here. What must hold is that,
	// after any number of collections, repeated lookups of the same name
	// keep agreeing with each other.
	m := newMachine(t, 64)
	_, err := symtab.MakeTable(m, 7)
	require.NoError(t, err)

	_, err = symtab.Intern(m, []byte("keep-me"))
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		_, err := m.Heap.AllocateString([]byte("garbage"))
		require.NoError(t, err)
	}

	again, err := symtab.Intern(m, []byte("keep-me"))
	require.NoError(t, err)
	found, err := symtab.Find(m, []byte("keep-me"))
	require.NoError(t, err)
	require.Equal(t, again, found, "post-collection lookups of the same name must agree")
}
