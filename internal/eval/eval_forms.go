package eval

import (
	"github.com/pkg/errors"

	"github.com/chebert/golisp/internal/environment"
	"github.com/chebert/golisp/internal/machine"
	"github.com/chebert/golisp/internal/symtab"
	"github.com/chebert/golisp/internal/value"
)

func (ev *Evaluator) stepEvalVariable() (StepID, error) {
	expr := ev.m.Get(machine.Expression)
	val, found := environment.LookupVariableValue(ev.m, expr, ev.m.Get(machine.Environment))
	if !found {
		return StepDone, errors.Wrapf(ErrUnboundVariable, "%s", ev.m.Heap.SymbolName(expr))
	}
	ev.m.Set(machine.Value, val)
	return ev.currentContinue(), nil
}

func (ev *Evaluator) stepEvalQuote() (StepID, error) {
	expr := ev.m.Get(machine.Expression)
	rest := ev.m.Heap.Cdr(expr)
	if value.IsNil(rest) || !value.IsNil(ev.m.Heap.Cdr(rest)) {
		return StepDone, errors.Wrapf(ErrMalformedQuote, "%#v", expr)
	}
	ev.m.Set(machine.Value, ev.m.Heap.Car(rest))
	return ev.currentContinue(), nil
}

func (ev *Evaluator) stepEvalLambda() (StepID, error) {
	expr := ev.m.Get(machine.Expression)
	rest := ev.m.Heap.Cdr(expr)
	if value.IsNil(rest) || value.IsNil(ev.m.Heap.Cdr(rest)) {
		return StepDone, errors.Wrapf(ErrMalformedLambda, "%#v", expr)
	}
	params := ev.m.Heap.Car(rest)
	body := ev.m.Heap.Cdr(rest)
	ev.m.Set(machine.Unevaluated, params)
	ev.m.Set(machine.Expression, body)

	proc, err := ev.m.Heap.AllocateVector(3)
	if err != nil {
		return StepDone, err
	}
	if err := ev.m.Heap.VectorSet(proc, 0, ev.m.Get(machine.Environment)); err != nil {
		return StepDone, err
	}
	if err := ev.m.Heap.VectorSet(proc, 1, ev.m.Get(machine.Unevaluated)); err != nil {
		return StepDone, err
	}
	if err := ev.m.Heap.VectorSet(proc, 2, ev.m.Get(machine.Expression)); err != nil {
		return StepDone, err
	}
	ev.m.Set(machine.Value, proc)
	return ev.currentContinue(), nil
}

func (ev *Evaluator) stepEvalIfTest() (StepID, error) {
	if err := ev.m.Save(machine.Continue); err != nil {
		return StepDone, err
	}
	if err := ev.m.Save(machine.Environment); err != nil {
		return StepDone, err
	}
	if err := ev.m.Save(machine.Expression); err != nil {
		return StepDone, err
	}

	expr := ev.m.Get(machine.Expression)
	rest := ev.m.Heap.Cdr(expr)
	if value.IsNil(rest) || value.IsNil(ev.m.Heap.Cdr(rest)) {
		return StepDone, errors.Wrapf(ErrMalformedIf, "%#v", expr)
	}
	predicate := ev.m.Heap.Car(rest)

	ev.m.Set(machine.Continue, ev.boxStep(StepEvalIfBranch))
	ev.m.Set(machine.Expression, predicate)
	return StepDispatch, nil
}

func (ev *Evaluator) stepEvalIfBranch() (StepID, error) {
	ev.m.Restore(machine.Expression)
	ev.m.Restore(machine.Environment)
	ev.m.Restore(machine.Continue)

	expr := ev.m.Get(machine.Expression)
	truthy := value.UnboxBoolean(ev.m.Get(machine.Value))
	var next value.Value
	if truthy {
		next = third(ev.m, expr)
	} else {
		next = fourthOrNil(ev.m, expr)
	}
	ev.m.Set(machine.Expression, next)
	return StepDispatch, nil
}

func (ev *Evaluator) stepEvalAssignVal() (StepID, error) {
	expr := ev.m.Get(machine.Expression)
	rest := ev.m.Heap.Cdr(expr)
	if value.IsNil(rest) || value.IsNil(ev.m.Heap.Cdr(rest)) {
		return StepDone, errors.Wrapf(ErrMalformedAssign, "%#v", expr)
	}
	variable := ev.m.Heap.Car(rest)
	valueExpr := second(ev.m, rest)

	ev.m.Set(machine.Unevaluated, variable)
	ev.m.Set(machine.Expression, valueExpr)

	if err := ev.m.Save(machine.Unevaluated); err != nil {
		return StepDone, err
	}
	if err := ev.m.Save(machine.Expression); err != nil {
		return StepDone, err
	}
	if err := ev.m.Save(machine.Environment); err != nil {
		return StepDone, err
	}
	if err := ev.m.Save(machine.Continue); err != nil {
		return StepDone, err
	}

	ev.m.Set(machine.Continue, ev.boxStep(StepEvalAssignDo))
	return StepDispatch, nil
}

func (ev *Evaluator) stepEvalAssignDo() (StepID, error) {
	ev.m.Restore(machine.Continue)
	ev.m.Restore(machine.Environment)
	ev.m.Restore(machine.Expression)
	ev.m.Restore(machine.Unevaluated)

	variable := ev.m.Get(machine.Unevaluated)
	val := ev.m.Get(machine.Value)
	env := ev.m.Get(machine.Environment)
	if !environment.SetVariableValue(ev.m, variable, val, env) {
		return StepDone, errors.Wrapf(ErrUnboundVariable, "%s", ev.m.Heap.SymbolName(variable))
	}

	ok, err := symtab.Intern(ev.m, []byte("ok"))
	if err != nil {
		return StepDone, err
	}
	ev.m.Set(machine.Value, ok)
	return ev.currentContinue(), nil
}

func (ev *Evaluator) stepEvalDefineVal() (StepID, error) {
	expr := ev.m.Get(machine.Expression)
	rest := ev.m.Heap.Cdr(expr)
	if value.IsNil(rest) || value.IsNil(ev.m.Heap.Cdr(rest)) {
		return StepDone, errors.Wrapf(ErrMalformedDefine, "%#v", expr)
	}
	variable := ev.m.Heap.Car(rest)
	valueExpr := second(ev.m, rest)

	ev.m.Set(machine.Unevaluated, variable)
	ev.m.Set(machine.Expression, valueExpr)

	if err := ev.m.Save(machine.Unevaluated); err != nil {
		return StepDone, err
	}
	if err := ev.m.Save(machine.Expression); err != nil {
		return StepDone, err
	}
	if err := ev.m.Save(machine.Environment); err != nil {
		return StepDone, err
	}
	if err := ev.m.Save(machine.Continue); err != nil {
		return StepDone, err
	}

	ev.m.Set(machine.Continue, ev.boxStep(StepEvalDefineDo))
	return StepDispatch, nil
}

func (ev *Evaluator) stepEvalDefineDo() (StepID, error) {
	ev.m.Restore(machine.Continue)
	ev.m.Restore(machine.Environment)
	ev.m.Restore(machine.Expression)
	ev.m.Restore(machine.Unevaluated)

	if err := environment.DefineVariable(ev.m, machine.Unevaluated, machine.Value, machine.Environment); err != nil {
		return StepDone, err
	}
	ev.m.Set(machine.Value, ev.m.Get(machine.Unevaluated))
	return ev.currentContinue(), nil
}

func (ev *Evaluator) stepEvalSeqStep() (StepID, error) {
	unevaluated := ev.m.Get(machine.Unevaluated)
	if value.IsNil(unevaluated) {
		ev.m.Set(machine.Value, value.Nil)
		return ev.currentContinue(), nil
	}

	first := ev.m.Heap.Car(unevaluated)
	if value.IsNil(ev.m.Heap.Cdr(unevaluated)) {
		ev.m.Set(machine.Expression, first)
		return StepEvalSeqLast, nil
	}

	if err := ev.m.Save(machine.Unevaluated); err != nil {
		return StepDone, err
	}
	if err := ev.m.Save(machine.Environment); err != nil {
		return StepDone, err
	}
	if err := ev.m.Save(machine.Continue); err != nil {
		return StepDone, err
	}

	ev.m.Set(machine.Expression, ev.m.Heap.Car(ev.m.Get(machine.Unevaluated)))
	ev.m.Set(machine.Continue, ev.boxStep(stepEvalSeqContinue))
	return StepDispatch, nil
}

func (ev *Evaluator) stepEvalSeqContinue() (StepID, error) {
	ev.m.Restore(machine.Continue)
	ev.m.Restore(machine.Environment)
	ev.m.Restore(machine.Unevaluated)

	rest := ev.m.Heap.Cdr(ev.m.Get(machine.Unevaluated))
	ev.m.Set(machine.Unevaluated, rest)
	return StepEvalSeqStep, nil
}

func (ev *Evaluator) stepEvalSeqLast() (StepID, error) {
	return StepDispatch, nil
}
