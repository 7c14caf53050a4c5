// Package golisp is the runtime core of a small Lisp: NaN-boxed tagged
// values, a Cheney-style copying-GC heap, and an explicit-control
// register evaluator. It parameterizes nothing on package-level state —
// every accessor hangs off an *Interpreter handle, so multiple
// interpreters can coexist in one process and tests can construct a
// fresh one per case.
package golisp

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chebert/golisp/internal/environment"
	"github.com/chebert/golisp/internal/eval"
	"github.com/chebert/golisp/internal/heap"
	"github.com/chebert/golisp/internal/machine"
	"github.com/chebert/golisp/internal/symtab"
	"github.com/chebert/golisp/internal/value"
)

// specialForms are interned at startup so the evaluator's classifier can
// find them with symtab.Find without ever allocating mid-dispatch.
var specialForms = []string{"quote", "set!", "define", "if", "fn", "begin", "ok"}

// Config controls the size of an Interpreter's heap and symbol table.
// Both are fixed for the interpreter's lifetime; there is no resize path,
// matching original_source/memory.c's fixed-arena design.
type Config struct {
	// MaxObjects is the heap's per-semispace object capacity.
	MaxObjects uint64
	// SymbolTableSize is the number of hash buckets backing the symbol
	// table. It does not grow; a large, prime bucket count keeps chains
	// short for the symbol counts a single program typically interns.
	SymbolTableSize uint64
}

func (c Config) validate() error {
	if c.MaxObjects <= uint64(machine.NumRegisters) {
		return errors.Errorf("MaxObjects must exceed %d (the register count), got %d", machine.NumRegisters, c.MaxObjects)
	}
	if c.SymbolTableSize == 0 {
		return errors.New("SymbolTableSize must be positive")
	}
	return nil
}

// Primitive is a native procedure an embedder registers with an
// Interpreter. args is a proper list of already-evaluated arguments.
type Primitive func(i *Interpreter, args value.Value) (value.Value, error)

// Interpreter owns one heap, one root vector, and one primitive table. It
// is the unit of isolation: nothing here is global, so tests and embedders
// alike can run many interpreters side by side.
type Interpreter struct {
	machine    *machine.Machine
	evaluator  *eval.Evaluator
	logger     *zap.Logger
	primitives []Primitive
}

// Option configures an Interpreter at construction time.
type Option func(*Interpreter)

// WithLogger installs a structured logger. GC cycle boundaries and
// evaluator failures are logged at Debug; nothing here is ever on the
// critical path for correctness. The default is zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(i *Interpreter) {
		i.logger = logger
	}
}

// NewInterpreter allocates a heap and root vector per cfg, interns the
// special-form symbols the evaluator's classifier needs, and installs an
// empty global environment. The returned Interpreter is ready to
// Evaluate once an embedder has registered whatever primitives it needs.
func NewInterpreter(cfg Config, opts ...Option) (*Interpreter, error) {
	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	i := &Interpreter{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(i)
	}

	h := heap.New(cfg.MaxObjects, i.logger)
	m, err := machine.New(h)
	if err != nil {
		return nil, errors.Wrap(err, "allocating root vector")
	}
	i.machine = m

	if _, err := symtab.MakeTable(m, cfg.SymbolTableSize); err != nil {
		return nil, errors.Wrap(err, "allocating symbol table")
	}
	for _, name := range specialForms {
		if _, err := symtab.Intern(m, []byte(name)); err != nil {
			return nil, errors.Wrapf(err, "interning special form %q", name)
		}
	}

	env, err := environment.MakeGlobalEnvironment(m)
	if err != nil {
		return nil, errors.Wrap(err, "allocating global environment")
	}
	m.Set(machine.Environment, env)

	i.evaluator = eval.New(m, i.logger)
	return i, nil
}

// RegisterPrimitive interns name, stores fn in the primitive table, and
// binds name to a FIXNUM-tagged primitive index in the global
// environment's outermost scope. It returns the bound symbol.
func (i *Interpreter) RegisterPrimitive(name string, fn Primitive) (value.Value, error) {
	index := len(i.primitives)
	i.primitives = append(i.primitives, fn)

	closure := func(args value.Value) (value.Value, error) {
		return fn(i, args)
	}
	if got := i.evaluator.AddPrimitive(closure); got != index {
		return value.Nil, errors.Errorf("primitive table desynchronized: interpreter index %d, evaluator index %d", index, got)
	}

	m := i.machine
	sym, err := symtab.Intern(m, []byte(name))
	if err != nil {
		return value.Nil, errors.Wrapf(err, "interning primitive name %q", name)
	}
	m.Set(machine.Unevaluated, sym)
	m.Set(machine.Value, value.BoxFixnum(int64(index)))
	if err := environment.DefineVariable(m, machine.Unevaluated, machine.Value, machine.Environment); err != nil {
		return value.Nil, errors.Wrapf(err, "binding primitive %q", name)
	}
	return m.Get(machine.Unevaluated), nil
}

// Evaluate reduces expr under the interpreter's current global
// environment and returns the result.
func (i *Interpreter) Evaluate(expr value.Value) (value.Value, error) {
	i.machine.Set(machine.Expression, expr)
	if err := i.evaluator.Run(); err != nil {
		return value.Nil, err
	}
	return i.machine.Get(machine.Value), nil
}

// Machine exposes the underlying register machine for callers that build
// expressions directly on the heap (a reader/parser, or tests), rather
// than constructing value.Value trees some other way.
func (i *Interpreter) Machine() *machine.Machine {
	return i.machine
}
