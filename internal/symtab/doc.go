// Package symtab implements symbol interning: a hash table of SYMBOL
// objects, represented as a root-resident VECTOR of bucket lists, keyed by
// a DJB2 hash of the symbol's name.
//
// Intern and Unintern allocate (a new SYMBOL, a new bucket pair) while the
// table itself is live only because it's reachable through the
// machine.SymbolTable register. Both functions therefore reload the table
// from that register after every allocation rather than holding a local
// copy across one, and stash the symbol-in-progress in a register before
// the second allocation that would otherwise strand it. This is a
// deliberate correctness fix relative to the reference implementation,
// whose InternSymbol keeps a local copy of the table across AllocateSymbol
// and AllocatePair and would silently read stale memory if either
// triggered a collection.
package symtab
