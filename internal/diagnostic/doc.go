// Package diagnostic provides structured warnings, errors, and the typed
// generation failures reported by the binding generator.
//
// Key capabilities:
//   - Location-carrying diagnostics with stable codes
//   - Typed fatal errors (unresolved type/enum, ambiguous overload,
//     unsupported container nesting) matchable with errors.As
//   - Per-unit aggregation so one failed unit does not hide another
package diagnostic
