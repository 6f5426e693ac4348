// Package message assembles ordered segments into signed, numbered request
// messages and decodes response bytes into an inspectable response model:
// return-code map, typed segment lookup, and touchdown pagination markers.
package message
