package machine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chebert/golisp/internal/heap"
	"github.com/chebert/golisp/internal/machine"
	"github.com/chebert/golisp/internal/value"
)

func TestGetSetRoundTrip(t *testing.T) {
	h := heap.New(64, nil)
	m, err := machine.New(h)
	require.NoError(t, err)

	m.Set(machine.Value, value.BoxFixnum(42))
	require.Equal(t, int64(42), value.UnboxFixnum(m.Get(machine.Value)))
}

func TestSaveRestoreIsLIFO(t *testing.T) {
	h := heap.New(64, nil)
	m, err := machine.New(h)
	require.NoError(t, err)

	m.Set(machine.Value, value.BoxFixnum(1))
	require.NoError(t, m.Save(machine.Value))
	m.Set(machine.Value, value.BoxFixnum(2))
	require.NoError(t, m.Save(machine.Value))
	m.Set(machine.Value, value.BoxFixnum(3))

	m.Restore(machine.Value)
	require.Equal(t, int64(2), value.UnboxFixnum(m.Get(machine.Value)))
	m.Restore(machine.Value)
	require.Equal(t, int64(1), value.UnboxFixnum(m.Get(machine.Value)))
}

func TestSaveSurvivesCollection(t *testing.T) {
	h := heap.New(24, nil)
	m, err := machine.New(h)
	require.NoError(t, err)

	str, err := h.AllocateString([]byte("kept"))
	require.NoError(t, err)
	m.Set(machine.Value, str)
	require.NoError(t, m.Save(machine.Value))
	m.Set(machine.Value, value.Nil)

	// Force several collections by allocating past capacity repeatedly;
	// the saved string must still be reachable through Stack -> root.
	for i := 0; i < 50; i++ {
		_, err := h.AllocateString([]byte("garbage"))
		require.NoError(t, err)
	}

	m.Restore(machine.Value)
	require.True(t, value.IsString(m.Get(machine.Value)))
	require.Equal(t, "kept\x00", string(h.StringBytes(m.Get(machine.Value))))
}
