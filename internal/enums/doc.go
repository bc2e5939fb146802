// Package enums is the per-run registry of enum identities.
//
// Registration happens in a first pass over every unit of the run and every
// imported identity table; the registry is then sealed and only answers
// lookups. An enum's identity is its declaring scope path plus its name,
// never its integer values: two enums with equal values stay distinct, and
// an enum referenced from another unit resolves to the very same identity.
package enums
