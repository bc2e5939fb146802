// Package bindrt is the runtime support library generated bindings are
// written against.
//
// Generated packages wrap every native class in a struct embedding
// *Object, describe every callable with an Overload and move values across
// the boundary with Converters. The native side is reached through a
// Bridge: a cgo shim in production, an RPC stub, or the in-memory fake of
// package bindrttest in tests.
//
// Values cross the bridge in wire form:
//
//	bool, int64, uint64, float64, string  scalars
//	int64                                 enum values
//	Handle                                class instances and smart pointers
//	nil                                   null pointers, empty optionals
//	[]any                                 sequences and sets
//	[]WireEntry                           maps
//	WirePair                              pairs
//	Ref                                   references into native storage
//
// Ownership follows the strategy chosen at generation time. Owned objects
// release their native counterpart exactly once, on Close. Borrowed objects
// and views never release anything and must not outlive their owner; views
// keep the owning wrapper reachable but are not synchronised with native
// mutation.
package bindrt
