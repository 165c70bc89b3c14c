// Package pack implements declarative parameter packs: structured value
// types whose fields are registered once through an explicit builder and
// become validated, observable properties with nested composition,
// dotted-path access, and bidirectional serialization into a flat
// key/value store owned by a host application.
//
// A pack type is built from an ordered list of field declarations; each
// field carries a declared data type, an optional default directive, and
// zero or more validator directives. Instances enforce cross-field
// invariants before any write commits, propagate invariant checks through
// nested ownership chains, and can be mirrored into a Store so that every
// mutation is immediately persisted and read back.
package pack
