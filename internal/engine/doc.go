// Package engine binds compiled formulas to a document and keeps their
// results current.
//
// An Engine owns a set of base elements and one formula source. For every
// base it resolves each operand selector inside that base, sums the parsed
// values of the matching elements, evaluates the formula and writes the
// formatted result into every element the result selector matches. Writing a
// result raises a change event on the result elements, which is how one
// engine's result becomes another engine's operand.
//
// LIFECYCLE:
//
// New snapshots the library defaults (SetDefaults) and applies options. No
// formula is bound yet. Formula compiles the source for every base, resolves
// every subscription target and only then swaps the old subscriptions for the
// new ones, so a malformed replacement leaves the previous formula working.
// It finishes with an immediate Run. Close removes every subscription.
//
// FAILURES:
//
// Bases are independent. A value the parser rejects or an evaluation failure
// in one base leaves that base's result untouched and does not stop the
// others; Run joins the per-base errors. Failures inside change handlers have
// no caller to return to, so they are logged and passed to the error handler
// set with WithErrorHandler.
//
// DETERMINISM:
//
// Dispatch is synchronous: a change runs the whole recompute, write and
// notify chain depth-first before Notify returns. The formula graph must be
// acyclic; formulas that feed each other recurse without bound.
//
// Every recompute can be recorded as a trace.Event stamped from a logical
// Clock and an IDGenerator, so with a FixedGenerator a run over the same
// document yields the same trace.
package engine
