// Package main provides the CLI entrypoint for bindgen.
//
// bindgen reads interface descriptions of a native library and generates
// typed Go packages calling it through the bindrt runtime:
//   - gen resolves every unit and writes one package per unit
//   - check resolves and reports diagnostics without writing anything
//   - dump prints the resolved plans for review
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
