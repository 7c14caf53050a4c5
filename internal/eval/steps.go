package eval

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chebert/golisp/internal/machine"
	"github.com/chebert/golisp/internal/value"
)

// StepID names a state in the evaluator's explicit-control state machine.
// It is boxed as a FIXNUM and stored in machine.Continue between
// dispatcher turns, the same indirection original_source/root.h describes
// for the continuation register.
type StepID int64

// Named states, matching original_source/evaluate.c§4.4's state-machine
// summary one-for-one. Steps without an exported name (stepEval...) are
// resumption points internal to a single form's evaluation; they still
// live in the same StepID space because they are still written into
// machine.Continue.
const (
	StepDispatch StepID = iota
	StepEvalVariable
	StepEvalQuote
	StepEvalIfTest
	StepEvalIfBranch
	StepEvalAssignVal
	StepEvalAssignDo
	StepEvalDefineVal
	StepEvalDefineDo
	StepEvalLambda
	StepEvalSeqStep
	StepEvalSeqLast
	StepEvalAppOperator
	StepEvalAppOperandsNext
	StepEvalAppOperandsLast
	StepEvalAppDispatch
	StepDone

	stepEvalSeqContinue
	stepEvalAppOperatorDone
	stepEvalAppAccumulateArg
	stepEvalAppAccumulateLastArg
)

// primitive is the internal closure shape a registered Primitive is
// adapted to; see golisp.RegisterPrimitive for the adaptation.
type primitive func(args value.Value) (value.Value, error)

// Evaluator drives one machine.Machine through expression reduction.
type Evaluator struct {
	m          *machine.Machine
	primitives []primitive
	logger     *zap.Logger
}

// New returns an Evaluator over m. A nil logger defaults to zap.NewNop().
func New(m *machine.Machine, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{m: m, logger: logger}
}

// AddPrimitive appends fn to the primitive table and returns its index,
// the value a PROCEDURE register FIXNUM must hold to dispatch to it.
func (ev *Evaluator) AddPrimitive(fn func(args value.Value) (value.Value, error)) int {
	ev.primitives = append(ev.primitives, fn)
	return len(ev.primitives) - 1
}

func (ev *Evaluator) boxStep(s StepID) value.Value { return value.BoxFixnum(int64(s)) }
func (ev *Evaluator) currentContinue() StepID {
	return StepID(value.UnboxFixnum(ev.m.Get(machine.Continue)))
}

// Run reduces whatever is in machine.Expression under machine.Environment
// to completion, leaving the result in machine.Value.
func (ev *Evaluator) Run() error {
	ev.m.Set(machine.Continue, ev.boxStep(StepDone))
	step := StepDispatch
	for step != StepDone {
		next, err := ev.dispatch(step)
		if err != nil {
			ev.logger.Debug("eval step failed", zap.Int64("step", int64(step)), zap.Error(err))
			return err
		}
		step = next
	}
	return nil
}

func (ev *Evaluator) dispatch(step StepID) (StepID, error) {
	switch step {
	case StepDispatch:
		return ev.stepDispatch()
	case StepEvalVariable:
		return ev.stepEvalVariable()
	case StepEvalQuote:
		return ev.stepEvalQuote()
	case StepEvalIfTest:
		return ev.stepEvalIfTest()
	case StepEvalIfBranch:
		return ev.stepEvalIfBranch()
	case StepEvalAssignVal:
		return ev.stepEvalAssignVal()
	case StepEvalAssignDo:
		return ev.stepEvalAssignDo()
	case StepEvalDefineVal:
		return ev.stepEvalDefineVal()
	case StepEvalDefineDo:
		return ev.stepEvalDefineDo()
	case StepEvalLambda:
		return ev.stepEvalLambda()
	case StepEvalSeqStep:
		return ev.stepEvalSeqStep()
	case stepEvalSeqContinue:
		return ev.stepEvalSeqContinue()
	case StepEvalSeqLast:
		return ev.stepEvalSeqLast()
	case StepEvalAppOperator:
		return ev.stepEvalAppOperator()
	case stepEvalAppOperatorDone:
		return ev.stepEvalAppOperatorDone()
	case StepEvalAppOperandsNext:
		return ev.stepEvalAppOperandsNext()
	case StepEvalAppOperandsLast:
		return ev.stepEvalAppOperandsLast()
	case stepEvalAppAccumulateArg:
		return ev.stepEvalAppAccumulateArg()
	case stepEvalAppAccumulateLastArg:
		return ev.stepEvalAppAccumulateLastArg()
	case StepEvalAppDispatch:
		return ev.stepEvalAppDispatch()
	default:
		return StepDone, errors.Errorf("unknown evaluator step %d", step)
	}
}

func (ev *Evaluator) stepDispatch() (StepID, error) {
	expr := ev.m.Get(machine.Expression)

	if isSelfEvaluating(expr) {
		ev.m.Set(machine.Value, expr)
		return ev.currentContinue(), nil
	}
	if value.IsSymbol(expr) {
		return StepEvalVariable, nil
	}

	quoted, err := isTaggedList(ev.m, expr, []byte("quote"))
	if err != nil {
		return StepDone, err
	}
	if quoted {
		return StepEvalQuote, nil
	}
	assignment, err := isTaggedList(ev.m, expr, []byte("set!"))
	if err != nil {
		return StepDone, err
	}
	if assignment {
		return StepEvalAssignVal, nil
	}
	definition, err := isTaggedList(ev.m, expr, []byte("define"))
	if err != nil {
		return StepDone, err
	}
	if definition {
		return StepEvalDefineVal, nil
	}
	conditional, err := isTaggedList(ev.m, expr, []byte("if"))
	if err != nil {
		return StepDone, err
	}
	if conditional {
		return StepEvalIfTest, nil
	}
	lambda, err := isTaggedList(ev.m, expr, []byte("fn"))
	if err != nil {
		return StepDone, err
	}
	if lambda {
		return StepEvalLambda, nil
	}
	sequence, err := isTaggedList(ev.m, expr, []byte("begin"))
	if err != nil {
		return StepDone, err
	}
	if sequence {
		// Skip the begin symbol itself; see package doc.
		ev.m.Set(machine.Unevaluated, ev.m.Heap.Cdr(expr))
		return StepEvalSeqStep, nil
	}
	if value.IsPair(expr) {
		return StepEvalAppOperator, nil
	}

	return StepDone, errors.Wrapf(ErrUnknownExpression, "%#v", expr)
}
