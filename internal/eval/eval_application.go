package eval

import (
	"github.com/pkg/errors"

	"github.com/chebert/golisp/internal/environment"
	"github.com/chebert/golisp/internal/machine"
	"github.com/chebert/golisp/internal/value"
)

// pushValueOntoArgumentList conses the Value register onto the front of
// ArgumentList, leaving the (necessarily reversed) list in ArgumentList.
// original_source/evaluate.c's PushValueOntoArgumentList sets
// REGISTER_ARGUMENT_LIST back to its own prior value instead of the new
// pair, a no-op bug; see the package doc.
func pushValueOntoArgumentList(m *machine.Machine) error {
	pair, err := m.Heap.AllocatePair()
	if err != nil {
		return err
	}
	m.Heap.SetCar(pair, m.Get(machine.Value))
	m.Heap.SetCdr(pair, m.Get(machine.ArgumentList))
	m.Set(machine.ArgumentList, pair)
	return nil
}

// reverseArgumentListInPlace destructively reverses ArgumentList's cdr
// chain. Safe because each argument-list pair is freshly allocated per call
// and never shared, so there are no other observers of the old chain order.
func reverseArgumentListInPlace(m *machine.Machine) {
	prev := value.Nil
	cur := m.Get(machine.ArgumentList)
	for !value.IsNil(cur) {
		next := m.Heap.Cdr(cur)
		m.Heap.SetCdr(cur, prev)
		prev = cur
		cur = next
	}
	m.Set(machine.ArgumentList, prev)
}

func (ev *Evaluator) stepEvalAppOperator() (StepID, error) {
	if err := ev.m.Save(machine.Continue); err != nil {
		return StepDone, err
	}
	if err := ev.m.Save(machine.Environment); err != nil {
		return StepDone, err
	}
	if err := ev.m.Save(machine.Unevaluated); err != nil {
		return StepDone, err
	}

	expr := ev.m.Get(machine.Expression)
	operator := ev.m.Heap.Car(expr)
	operands := ev.m.Heap.Cdr(expr)
	ev.m.Set(machine.Unevaluated, operands)
	ev.m.Set(machine.Expression, operator)
	ev.m.Set(machine.Continue, ev.boxStep(stepEvalAppOperatorDone))
	return StepDispatch, nil
}

func (ev *Evaluator) stepEvalAppOperatorDone() (StepID, error) {
	ev.m.Restore(machine.Unevaluated)
	ev.m.Restore(machine.Environment)
	ev.m.Restore(machine.Continue)

	ev.m.Set(machine.Procedure, ev.m.Get(machine.Value))
	ev.m.Set(machine.ArgumentList, value.Nil)

	operands := ev.m.Get(machine.Unevaluated)
	if value.IsNil(operands) {
		return ev.stepEvalAppDispatchEntry()
	}

	if err := ev.m.Save(machine.Procedure); err != nil {
		return StepDone, err
	}
	return ev.stepEvalAppOperandsNext()
}

// stepEvalAppDispatchEntry is the zero-argument shortcut: no operand loop
// runs, so Procedure was never Saved and must not be Restored.
func (ev *Evaluator) stepEvalAppDispatchEntry() (StepID, error) {
	return StepEvalAppDispatch, nil
}

func (ev *Evaluator) stepEvalAppOperandsNext() (StepID, error) {
	operands := ev.m.Get(machine.Unevaluated)
	ev.m.Set(machine.Expression, ev.m.Heap.Car(operands))
	ev.m.Set(machine.Unevaluated, ev.m.Heap.Cdr(operands))

	if err := ev.m.Save(machine.Environment); err != nil {
		return StepDone, err
	}
	if err := ev.m.Save(machine.Unevaluated); err != nil {
		return StepDone, err
	}
	if err := ev.m.Save(machine.ArgumentList); err != nil {
		return StepDone, err
	}
	if err := ev.m.Save(machine.Continue); err != nil {
		return StepDone, err
	}

	if value.IsNil(ev.m.Get(machine.Unevaluated)) {
		ev.m.Set(machine.Continue, ev.boxStep(stepEvalAppAccumulateLastArg))
	} else {
		ev.m.Set(machine.Continue, ev.boxStep(stepEvalAppAccumulateArg))
	}
	return StepDispatch, nil
}

// stepEvalAppOperandsLast exists as a named state per the explicit
// four-state application summary, but every transition into "evaluate the
// last operand" already carries the isLast branch inline in
// stepEvalAppOperandsNext (it must decide isLast before it can choose which
// Continue to install). This state is reachable from dispatch() as a public
// name; it simply defers to the same entry point.
func (ev *Evaluator) stepEvalAppOperandsLast() (StepID, error) {
	return ev.stepEvalAppOperandsNext()
}

func (ev *Evaluator) stepEvalAppAccumulateArg() (StepID, error) {
	ev.m.Restore(machine.Continue)
	ev.m.Restore(machine.ArgumentList)
	ev.m.Restore(machine.Unevaluated)
	ev.m.Restore(machine.Environment)

	if err := pushValueOntoArgumentList(ev.m); err != nil {
		return StepDone, err
	}

	operands := ev.m.Get(machine.Unevaluated)
	if value.IsNil(operands) {
		return StepEvalAppOperandsLast, nil
	}
	return StepEvalAppOperandsNext, nil
}

func (ev *Evaluator) stepEvalAppAccumulateLastArg() (StepID, error) {
	ev.m.Restore(machine.Continue)
	ev.m.Restore(machine.ArgumentList)
	ev.m.Restore(machine.Unevaluated)
	ev.m.Restore(machine.Environment)

	if err := pushValueOntoArgumentList(ev.m); err != nil {
		return StepDone, err
	}

	// The operand loop is over: Procedure was Saved exactly once, in
	// stepEvalAppOperatorDone, and is restored here exactly once. This
	// fixes original_source/evaluate.c's EvaluateApplication, which Saves
	// REGISTER_PROCEDURE before the loop but never Restores it anywhere.
	ev.m.Restore(machine.Procedure)

	return StepEvalAppDispatch, nil
}

func (ev *Evaluator) stepEvalAppDispatch() (StepID, error) {
	reverseArgumentListInPlace(ev.m)
	procedure := ev.m.Get(machine.Procedure)
	args := ev.m.Get(machine.ArgumentList)

	if value.IsFixnum(procedure) {
		index := value.UnboxFixnum(procedure)
		if index < 0 || int(index) >= len(ev.primitives) {
			return StepDone, errors.Wrapf(ErrNotAProcedure, "primitive index %d", index)
		}
		result, err := ev.primitives[index](args)
		if err != nil {
			return StepDone, err
		}
		ev.m.Set(machine.Value, result)
		return ev.currentContinue(), nil
	}

	if value.IsVector(procedure) && ev.m.Heap.VectorLength(procedure) == 3 {
		return ev.applyCompound(procedure, args)
	}

	return StepDone, errors.Wrapf(ErrNotAProcedure, "%#v", procedure)
}

// applyCompound extends the closed-over environment with the procedure's
// parameters bound to args, then enters the body as a sequence. The
// Continue already in the register (the application's resumption point)
// stays untouched; the sequence machinery reads it back once the body
// finishes, exactly like any other tail position.
func (ev *Evaluator) applyCompound(procedure, args value.Value) (StepID, error) {
	env, err := ev.m.Heap.VectorRef(procedure, 0)
	if err != nil {
		return StepDone, err
	}
	params, err := ev.m.Heap.VectorRef(procedure, 1)
	if err != nil {
		return StepDone, err
	}

	if err := arityCheck(ev.m, params, args); err != nil {
		return StepDone, err
	}

	ev.m.Set(machine.Environment, env)
	ev.m.Set(machine.Unevaluated, params)
	ev.m.Set(machine.ArgumentList, args)
	if err := environment.ExtendEnvironment(ev.m, machine.Unevaluated, machine.ArgumentList, machine.Environment); err != nil {
		return StepDone, err
	}

	body, err := ev.m.Heap.VectorRef(ev.m.Get(machine.Procedure), 2)
	if err != nil {
		return StepDone, err
	}
	ev.m.Set(machine.Unevaluated, body)
	return StepEvalSeqStep, nil
}

// arityCheck walks params and args together. There is no rest-parameter
// form in the core: the lists must reach NIL at exactly the same step, or
// the call fails with ErrArityMismatch.
func arityCheck(m *machine.Machine, params, args value.Value) error {
	for {
		if value.IsNil(params) {
			if !value.IsNil(args) {
				return errors.Wrapf(ErrArityMismatch, "too many arguments")
			}
			return nil
		}
		if value.IsNil(args) {
			return errors.Wrapf(ErrArityMismatch, "too few arguments")
		}
		params = m.Heap.Cdr(params)
		args = m.Heap.Cdr(args)
	}
}
