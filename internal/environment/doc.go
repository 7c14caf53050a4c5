// Package environment implements lexical scoping over the heap's list
// representation: an environment is a list of scopes, each scope a pair of
// parallel symbol/value lists, searched innermost-first.
//
// original_source/environment.c's LookupVariableValue/LookupVariableInScope
// are ported directly (they never allocate). DefineVariable and
// ExtendEnvironment are grounded on the same file's intent but rewritten:
// the reference implementation holds local Object copies of scope/
// new_environment across its own AllocatePair calls, which is exactly the
// invalidation hazard this module's allocation discipline forbids. Here
// both take machine.RegisterID arguments and re-read every value from its
// register after each allocation, the same pattern internal/symtab uses.
package environment
