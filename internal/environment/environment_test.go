package environment_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chebert/golisp/internal/environment"
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
	_, err = symtab.MakeTable(m, 13)
	require.NoError(t, err)
	return m
}

// internTo interns name and immediately roots it in reg, so building on it
// across later allocations means reading reg back rather than reusing a
// value.Value a prior allocation may have invalidated.
func internTo(t *testing.T, m *machine.Machine, reg machine.RegisterID, name string) {
	t.Helper()
	s, err := symtab.Intern(m, []byte(name))
	require.NoError(t, err)
	m.Set(reg, s)
}

func TestDefineThenLookup(t *testing.T) {
	m := newMachine(t, 256)
	env, err := environment.MakeGlobalEnvironment(m)
	require.NoError(t, err)
	m.Set(machine.Environment, env)

	internTo(t, m, machine.Unevaluated, "x")
	m.Set(machine.Value, value.BoxFixnum(41))
	require.NoError(t, environment.DefineVariable(m, machine.Unevaluated, machine.Value, machine.Environment))

	internTo(t, m, machine.Unevaluated, "x")
	got, found := environment.LookupVariableValue(m, m.Get(machine.Unevaluated), m.Get(machine.Environment))
	require.True(t, found)
	require.Equal(t, int64(41), value.UnboxFixnum(got))
}

func TestDefineOverwritesInnermostScope(t *testing.T) {
	m := newMachine(t, 256)
	env, err := environment.MakeGlobalEnvironment(m)
	require.NoError(t, err)
	m.Set(machine.Environment, env)

	internTo(t, m, machine.Unevaluated, "x")
	m.Set(machine.Value, value.BoxFixnum(1))
	require.NoError(t, environment.DefineVariable(m, machine.Unevaluated, machine.Value, machine.Environment))

	internTo(t, m, machine.Unevaluated, "x")
	m.Set(machine.Value, value.BoxFixnum(2))
	require.NoError(t, environment.DefineVariable(m, machine.Unevaluated, machine.Value, machine.Environment))

	internTo(t, m, machine.Unevaluated, "x")
	got, found := environment.LookupVariableValue(m, m.Get(machine.Unevaluated), m.Get(machine.Environment))
	require.True(t, found)
	require.Equal(t, int64(2), value.UnboxFixnum(got))
}

func TestSetVariableValueFailsWhenUnbound(t *testing.T) {
	m := newMachine(t, 256)
	env, err := environment.MakeGlobalEnvironment(m)
	require.NoError(t, err)
	m.Set(machine.Environment, env)

	internTo(t, m, machine.Unevaluated, "x")
	require.False(t, environment.SetVariableValue(m, m.Get(machine.Unevaluated), value.BoxFixnum(1), m.Get(machine.Environment)))
}

func TestExtendEnvironmentShadowsOuterScope(t *testing.T) {
	m := newMachine(t, 256)
	env, err := environment.MakeGlobalEnvironment(m)
	require.NoError(t, err)
	m.Set(machine.Environment, env)

	internTo(t, m, machine.Unevaluated, "x")
	m.Set(machine.Value, value.BoxFixnum(100))
	require.NoError(t, environment.DefineVariable(m, machine.Unevaluated, machine.Value, machine.Environment))

	// x is rooted in Unevaluated before params is allocated, then read back
	// fresh rather than reused from a pre-allocation local.
	internTo(t, m, machine.Unevaluated, "x")
	params, err := m.Heap.AllocatePair()
	require.NoError(t, err)
	m.Heap.SetCar(params, m.Get(machine.Unevaluated))
	m.Set(machine.Unevaluated, params)

	args, err := m.Heap.AllocatePair()
	require.NoError(t, err)
	m.Heap.SetCar(args, value.BoxFixnum(7))
	m.Set(machine.ArgumentList, args)

	require.NoError(t, environment.ExtendEnvironment(m, machine.Unevaluated, machine.ArgumentList, machine.Environment))

	internTo(t, m, machine.Unevaluated, "x")
	got, found := environment.LookupVariableValue(m, m.Get(machine.Unevaluated), m.Get(machine.Environment))
	require.True(t, found)
	require.Equal(t, int64(7), value.UnboxFixnum(got))
}

func TestExtendEnvironmentSurvivesCollection(t *testing.T) {
	m := newMachine(t, 64)
	env, err := environment.MakeGlobalEnvironment(m)
	require.NoError(t, err)
	m.Set(machine.Environment, env)

	internTo(t, m, machine.Unevaluated, "x")
	params, err := m.Heap.AllocatePair()
	require.NoError(t, err)
	m.Heap.SetCar(params, m.Get(machine.Unevaluated))
	m.Set(machine.Unevaluated, params)

	args, err := m.Heap.AllocatePair()
	require.NoError(t, err)
	m.Heap.SetCar(args, value.BoxFixnum(9))
	m.Set(machine.ArgumentList, args)

	require.NoError(t, environment.ExtendEnvironment(m, machine.Unevaluated, machine.ArgumentList, machine.Environment))

	for i := 0; i < 20; i++ {
		_, err := m.Heap.AllocateString([]byte("garbage"))
		require.NoError(t, err)
	}

	internTo(t, m, machine.Unevaluated, "x")
	got, found := environment.LookupVariableValue(m, m.Get(machine.Unevaluated), m.Get(machine.Environment))
	require.True(t, found)
	require.Equal(t, int64(9), value.UnboxFixnum(got))
}
