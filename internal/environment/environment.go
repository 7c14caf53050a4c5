package environment

import (
	"github.com/chebert/golisp/internal/machine"
	"github.com/chebert/golisp/internal/value"
)

// referenceInScope returns the values-list cons cell positionally aligned
// with variable in scope's variables list, or NIL if scope doesn't bind it.
// Non-allocating.
func referenceInScope(m *machine.Machine, scope, variable value.Value) value.Value {
	variables := m.Heap.Car(scope)
	values := m.Heap.Cdr(scope)
	for !value.IsNil(variables) {
		if m.Heap.Car(variables) == variable {
			return values
		}
		variables = m.Heap.Cdr(variables)
		values = m.Heap.Cdr(values)
	}
	return value.Nil
}

// referenceInEnvironment walks scopes innermost-first. Non-allocating.
func referenceInEnvironment(m *machine.Machine, environment, variable value.Value) value.Value {
	for !value.IsNil(environment) {
		if ref := referenceInScope(m, m.Heap.Car(environment), variable); !value.IsNil(ref) {
			return ref
		}
		environment = m.Heap.Cdr(environment)
	}
	return value.Nil
}

// LookupVariableValue searches environment innermost-first for variable,
// reporting whether it was found. Non-allocating.
func LookupVariableValue(m *machine.Machine, variable, environment value.Value) (value.Value, bool) {
	ref := referenceInEnvironment(m, environment, variable)
	if value.IsNil(ref) {
		return value.Nil, false
	}
	return m.Heap.Car(ref), true
}

// SetVariableValue assigns to the nearest existing binding of variable,
// reporting whether one was found. Non-allocating.
func SetVariableValue(m *machine.Machine, variable, val, environment value.Value) bool {
	ref := referenceInEnvironment(m, environment, variable)
	if value.IsNil(ref) {
		return false
	}
	m.Heap.SetCar(ref, val)
	return true
}

// DefineVariable binds the symbol in variableReg to the value in valueReg
// within the innermost scope of environmentReg, overwriting any existing
// binding of that symbol in that scope. All three are register IDs, not
// values, so every read of them after an internal allocation sees the
// current (possibly-relocated) contents rather than a stale local copy.
func DefineVariable(m *machine.Machine, variableReg, valueReg, environmentReg machine.RegisterID) error {
	scope := m.Heap.Car(m.Get(environmentReg))
	variable := m.Get(variableReg)

	if ref := referenceInScope(m, scope, variable); !value.IsNil(ref) {
		m.Heap.SetCar(ref, m.Get(valueReg))
		return nil
	}

	// Prepend to the values list first and splice it into the scope
	// immediately, before the variables-list allocation that follows: that
	// keeps the new values pair rooted (reachable through environmentReg)
	// across the second allocation instead of living only in a Go local.
	valuesPair, err := m.Heap.AllocatePair()
	if err != nil {
		return err
	}
	scope = m.Heap.Car(m.Get(environmentReg))
	m.Heap.SetCar(valuesPair, m.Get(valueReg))
	m.Heap.SetCdr(valuesPair, m.Heap.Cdr(scope))
	m.Heap.SetCdr(scope, valuesPair)

	variablesPair, err := m.Heap.AllocatePair()
	if err != nil {
		return err
	}
	scope = m.Heap.Car(m.Get(environmentReg))
	m.Heap.SetCar(variablesPair, m.Get(variableReg))
	m.Heap.SetCdr(variablesPair, m.Heap.Car(scope))
	m.Heap.SetCar(scope, variablesPair)
	return nil
}

// ExtendEnvironment pushes a new scope binding parametersReg's symbols to
// argumentsReg's values, extending environmentReg, and writes the result
// back into environmentReg.
func ExtendEnvironment(m *machine.Machine, parametersReg, argumentsReg, environmentReg machine.RegisterID) error {
	newEnvironment, err := m.Heap.AllocatePair()
	if err != nil {
		return err
	}
	m.Heap.SetCdr(newEnvironment, m.Get(environmentReg))
	m.Set(environmentReg, newEnvironment)

	newScope, err := m.Heap.AllocatePair()
	if err != nil {
		return err
	}
	m.Heap.SetCar(newScope, m.Get(parametersReg))
	m.Heap.SetCdr(newScope, m.Get(argumentsReg))
	m.Heap.SetCar(m.Get(environmentReg), newScope)
	return nil
}

// MakeGlobalEnvironment allocates a single-scope environment with no
// bindings, suitable as the outermost environment an interpreter installs
// before interning any global names into it.
func MakeGlobalEnvironment(m *machine.Machine) (value.Value, error) {
	scope, err := m.Heap.AllocatePair()
	if err != nil {
		return value.Nil, err
	}
	if err := m.Save(machine.Value); err != nil {
		return value.Nil, err
	}
	m.Set(machine.Value, scope)

	env, err := m.Heap.AllocatePair()
	if err != nil {
		m.Restore(machine.Value)
		return value.Nil, err
	}
	m.Heap.SetCar(env, m.Get(machine.Value))
	m.Heap.SetCdr(env, value.Nil)
	m.Restore(machine.Value)
	return env, nil
}
