// Package gen emits the Go bindings of a resolved model.
//
// Generation uses text/template and golang.org/x/tools/imports. Each unit
// becomes one package:
//   - doc.go: package documentation
//   - enums.go: one distinct int64 type per native enum
//   - <class>.go: a wrapper embedding *bindrt.Object per class
//   - functions.go: free functions
//   - bindings.go: overload tables and container converters, built in init
//     after classes register their key capabilities
//   - <unit>.bindid: the identity table later runs import
//
// Output is deterministic: plans are walked in declaration order and
// imports are sorted.
package gen
