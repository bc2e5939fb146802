// Package match provides identifier normalization, edit distance and the
// "did you mean" suggestions attached to unresolved-name errors. It also
// derives Go identifiers from native names.
//
// Key functions:
//   - Suggest: ranks known names by similarity to an unknown one
//   - Levenshtein: computes edit distance between strings
//   - NormalizeIdent: normalizes identifiers for fuzzy matching
//   - PascalCase, Exported: Go identifiers from native spellings
package match
