// Package eval implements the explicit-control evaluator: an expression
// reducer that never recurses on the host call stack. Every suspension
// point is a return to Run's dispatch loop after the current step sets
// machine.Continue (and, if more registers must survive the next
// sub-evaluation, Saves them) — the design original_source/evaluate.c
// gestures at ("TODO: make continue register (subvert C call/return)") but
// never finishes; its own Evaluate implementation still recurses natively.
//
// A handful of named steps mirror original_source/evaluate.c's
// Evaluate*/IsTaggedList structure directly. Three behaviors are
// deliberately NOT ported as written, because the source's evident intent
// and spec.md's stated semantics disagree with what the C computes:
//
//   - PushValueOntoArgumentList sets REGISTER_ARGUMENT_LIST to its own
//     unchanged value instead of the newly built pair; this port sets it to
//     the new pair, which is what argument accumulation requires.
//   - EvaluateBegin hands EvaluateSequence the whole (begin e1 ... en) form,
//     including the begin symbol itself, as UNEVALUATED; the Go port skips
//     the tag before entering the sequence loop, the same way application
//     evaluation already skips the operator via Cdr.
//   - IfAlternative is Fourth(expression) with no bounds check, which reads
//     an arbitrary slot when the alternative is absent; this port checks for
//     that case explicitly and uses NIL, per spec.md's stated "if a is
//     absent ... VALUE := NIL".
package eval
