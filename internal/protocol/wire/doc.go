// Package wire implements the generic segment grammar shared by all message
// types: segments terminated by ', data-element groups separated by +, elements
// separated by :, backslash escaping, and @length@ binary prefixing.
//
// Per-segment field semantics live in internal/protocol/segments; this package
// only owns tokenizing, escaping, and the scalar formats (dates, times,
// amounts, booleans, binary blobs).
package wire
