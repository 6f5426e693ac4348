// Package segments defines the typed segment layer on top of the generic
// wire grammar. Every segment's field layout is fixed by its (name, version)
// pair; decoding dispatches through the registry and fails hard on a known
// name with an unsupported version.
package segments
