package common

import (
	"path"
	"strings"
)

// PkgAlias returns the package alias (last element of path) for a given package path.
// Returns empty string if pkgPath is empty.
func PkgAlias(pkgPath string) string {
	if pkgPath == "" {
		return ""
	}

	return path.Base(pkgPath)
}

// FileBase turns a native name into a lower-case Go file name stem:
// "TaskQueue" -> "taskqueue", "ns::Foo" -> "ns_foo".
func FileBase(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "::", "_"))
}
