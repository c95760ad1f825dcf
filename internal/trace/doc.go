// Package trace records recomputations performed by a calculation engine.
//
// Each time an engine writes a result it emits an Event describing which
// base was recomputed, what triggered it, the operand sums it read and the
// formatted result. Events carry a logical sequence number from the engine's
// clock and a content-addressed ID, so two runs over the same document and
// formula produce byte-identical traces.
//
// Events are serialized with MarshalCanonical (RFC 8785 canonical JSON) for
// hashing and golden comparison. Floats never appear in a trace: operand sums
// and results are recorded in their formatted string form.
package trace
