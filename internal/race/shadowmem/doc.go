// Package shadowmem stores the access history of every audited location.
//
// A location is a probe.Location such as "cursor" or "histogram[7]". Its
// VarState holds the epoch of the last write and the read history in
// FastTrack's adaptive form:
//   - a single read epoch while reads are totally ordered (the common case)
//   - a vector clock once two workers have read concurrently
//
// The next write demotes the read history back to the epoch form.
//
// VarState is not synchronized; the detector serializes all access.
package shadowmem
