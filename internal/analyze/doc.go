// Package analyze loads generated binding packages and extracts their
// managed surface.
//
// It uses golang.org/x/tools/go/packages with go/types, so loading also
// type-checks the generated code against the bindrt runtime it imports.
//
// Key types:
//   - TypeID: package import path + type name
//   - TypeInfo: a wrapper or enum type with its method set
//   - FuncInfo: a function or method name with its signature
//   - Surface: every loaded package, keyed by import path
package analyze
