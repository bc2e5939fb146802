// Package plan resolves a declaration model into conversion plans consumed
// by code generation.
//
// Resolution is closed and runs in two passes over every unit of the run:
//  1. Register enum identities, wrapped classes, explicit template
//     instances and imported identity tables; map operators and derive key
//     capabilities. The enum registry is sealed afterwards.
//  2. For each unit, resolve every field, parameter and result type into a
//     ConversionPlan, classify ownership, check overload sets for
//     ambiguity, flatten inheritance and pick the length method.
//
// A unit with any error diagnostic is marked failed; nothing is emitted
// for it.
package plan
