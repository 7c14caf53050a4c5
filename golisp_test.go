package golisp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chebert/golisp"
	"github.com/chebert/golisp/internal/machine"
	"github.com/chebert/golisp/internal/symtab"
	"github.com/chebert/golisp/internal/value"
)

func newInterpreter(t *testing.T, maxObjects uint64) *golisp.Interpreter {
	t.Helper()
	i, err := golisp.NewInterpreter(golisp.Config{MaxObjects: maxObjects, SymbolTableSize: 61})
	require.NoError(t, err)
	return i
}

// elemSpec, sym, fixnum, sublist and list mirror internal/eval's test
// fixture builder: every element is written directly into a scratch
// register rather than ever passed through a bare Go local across an
// allocation, the same discipline the production Save/Restore code
// follows. A single (tail, element) register pair is reused at every
// nesting depth; Save/Restore's heap-resident spill list — not the
// register file — is what lets sublist recurse to any depth, the same
// way the evaluator's own Continue-driven recursion does.
type elemSpec func(t *testing.T, m *machine.Machine, scratch machine.RegisterID)

func sym(name string) elemSpec {
	return func(t *testing.T, m *machine.Machine, scratch machine.RegisterID) {
		s, err := symtab.Intern(m, []byte(name))
		require.NoError(t, err)
		m.Set(scratch, s)
	}
}

func fixnum(n int64) elemSpec {
	return func(t *testing.T, m *machine.Machine, scratch machine.RegisterID) {
		m.Set(scratch, value.BoxFixnum(n))
	}
}

func sublist(specs ...elemSpec) elemSpec {
	return func(t *testing.T, m *machine.Machine, scratch machine.RegisterID) {
		v := list(t, m, specs...)
		m.Set(scratch, v)
	}
}

const (
	listTailReg = machine.Value
	listElemReg = machine.Procedure
)

func list(t *testing.T, m *machine.Machine, specs ...elemSpec) value.Value {
	t.Helper()
	require.NoError(t, m.Save(listTailReg))
	m.Set(listTailReg, value.Nil)
	for i := len(specs) - 1; i >= 0; i-- {
		require.NoError(t, m.Save(listElemReg))
		specs[i](t, m, listElemReg)

		pair, err := m.Heap.AllocatePair()
		require.NoError(t, err)
		m.Heap.SetCar(pair, m.Get(listElemReg))
		m.Heap.SetCdr(pair, m.Get(listTailReg))
		m.Restore(listElemReg)
		m.Set(listTailReg, pair)
	}
	result := m.Get(listTailReg)
	m.Restore(listTailReg)
	return result
}

// symbolExpr interns name and returns it immediately for use as a whole
// top-level expression, with zero allocation between interning and the
// Evaluate call that roots it into machine.Expression.
func symbolExpr(t *testing.T, m *machine.Machine, name string) value.Value {
	t.Helper()
	s, err := symtab.Intern(m, []byte(name))
	require.NoError(t, err)
	return s
}

func registerArithmetic(t *testing.T, i *golisp.Interpreter) {
	t.Helper()
	_, err := i.RegisterPrimitive("+", func(i *golisp.Interpreter, args value.Value) (value.Value, error) {
		m := i.Machine()
		sum := int64(0)
		for !value.IsNil(args) {
			sum += value.UnboxFixnum(m.Heap.Car(args))
			args = m.Heap.Cdr(args)
		}
		return value.BoxFixnum(sum), nil
	})
	require.NoError(t, err)

	_, err = i.RegisterPrimitive("-", func(i *golisp.Interpreter, args value.Value) (value.Value, error) {
		m := i.Machine()
		first := value.UnboxFixnum(m.Heap.Car(args))
		rest := m.Heap.Cdr(args)
		if value.IsNil(rest) {
			return value.BoxFixnum(-first), nil
		}
		result := first
		for !value.IsNil(rest) {
			result -= value.UnboxFixnum(m.Heap.Car(rest))
			rest = m.Heap.Cdr(rest)
		}
		return value.BoxFixnum(result), nil
	})
	require.NoError(t, err)

	_, err = i.RegisterPrimitive("*", func(i *golisp.Interpreter, args value.Value) (value.Value, error) {
		m := i.Machine()
		product := int64(1)
		for !value.IsNil(args) {
			product *= value.UnboxFixnum(m.Heap.Car(args))
			args = m.Heap.Cdr(args)
		}
		return value.BoxFixnum(product), nil
	})
	require.NoError(t, err)

	_, err = i.RegisterPrimitive("eq?", func(i *golisp.Interpreter, args value.Value) (value.Value, error) {
		m := i.Machine()
		a := m.Heap.Car(args)
		b := m.Heap.Car(m.Heap.Cdr(args))
		return value.BoxBoolean(a == b), nil
	})
	require.NoError(t, err)
}

// TestDefineAssignThenRead is end-to-end scenario 1: (define x 41) then
// (set! x (+ x 1)) then x evaluates to FIXNUM 42.
func TestDefineAssignThenRead(t *testing.T) {
	i := newInterpreter(t, 512)
	registerArithmetic(t, i)
	m := i.Machine()

	defExpr := list(t, m, sym("define"), sym("x"), fixnum(41))
	_, err := i.Evaluate(defExpr)
	require.NoError(t, err)

	setExpr := list(t, m, sym("set!"), sym("x"), sublist(sym("+"), sym("x"), fixnum(1)))
	_, err = i.Evaluate(setExpr)
	require.NoError(t, err)

	result, err := i.Evaluate(symbolExpr(t, m, "x"))
	require.NoError(t, err)
	require.Equal(t, int64(42), value.UnboxFixnum(result))
}

// TestLambdaApplication is end-to-end scenario 2:
// ((fn (x y) (+ x y)) 3 4) evaluates to FIXNUM 7.
func TestLambdaApplication(t *testing.T) {
	i := newInterpreter(t, 512)
	registerArithmetic(t, i)
	m := i.Machine()

	expr := list(t, m,
		sublist(sym("fn"), sublist(sym("x"), sym("y")), sublist(sym("+"), sym("x"), sym("y"))),
		fixnum(3), fixnum(4))

	result, err := i.Evaluate(expr)
	require.NoError(t, err)
	require.Equal(t, int64(7), value.UnboxFixnum(result))
}

// TestSymbolInterningReferenceEquality is end-to-end scenario 3:
// (if (eq? (quote a) (quote a)) 1 2) evaluates to FIXNUM 1.
func TestSymbolInterningReferenceEquality(t *testing.T) {
	i := newInterpreter(t, 512)
	registerArithmetic(t, i)
	m := i.Machine()

	expr := list(t, m, sym("if"),
		sublist(sym("eq?"), sublist(sym("quote"), sym("a")), sublist(sym("quote"), sym("a"))),
		fixnum(1), fixnum(2))

	result, err := i.Evaluate(expr)
	require.NoError(t, err)
	require.Equal(t, int64(1), value.UnboxFixnum(result))
}

// TestRecursiveFactorial is end-to-end scenario 5:
// (begin (define f (fn (n) (if (eq? n 0) 1 (* n (f (- n 1)))))) (f 6))
// evaluates to FIXNUM 720 on a modest heap, without exhausting the
// save/restore stack.
func TestRecursiveFactorial(t *testing.T) {
	i := newInterpreter(t, 4096)
	registerArithmetic(t, i)
	m := i.Machine()

	defineF := sublist(sym("define"), sym("f"),
		sublist(sym("fn"), sublist(sym("n")),
			sublist(sym("if"), sublist(sym("eq?"), sym("n"), fixnum(0)),
				fixnum(1),
				sublist(sym("*"), sym("n"), sublist(sym("f"), sublist(sym("-"), sym("n"), fixnum(1)))))))
	callF := sublist(sym("f"), fixnum(6))

	expr := list(t, m, sym("begin"), defineF, callF)

	result, err := i.Evaluate(expr)
	require.NoError(t, err)
	require.Equal(t, int64(720), value.UnboxFixnum(result))
}

func TestConfigValidation(t *testing.T) {
	_, err := golisp.NewInterpreter(golisp.Config{MaxObjects: 1, SymbolTableSize: 13})
	require.Error(t, err)

	_, err = golisp.NewInterpreter(golisp.Config{MaxObjects: 256, SymbolTableSize: 0})
	require.Error(t, err)
}
