package gen

import (
	"os"
	"path/filepath"
	"strings"
)

// writeDebugUnformatted writes unformatted code to a sidecar file next to the
// intended output. This is best-effort and should never make generation fail
// harder.
func writeDebugUnformatted(outDir, dir, filename string, content []byte) error {
	if outDir == "" || filename == "" {
		return nil
	}

	target := filepath.Join(outDir, dir)
	if err := os.MkdirAll(target, dirPerm); err != nil {
		return err
	}
	// The .txt suffix keeps the broken source out of the package build.
	debugName := strings.TrimSuffix(filename, ".go") + ".unformatted.go.txt"

	return os.WriteFile(filepath.Join(target, debugName), content, filePerm)
}
