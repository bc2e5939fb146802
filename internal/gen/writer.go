package gen

import (
	"fmt"
	"os"
	"path/filepath"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// WriteFiles writes generated files under outputDir, one directory per
// package. Directories are created as needed.
func WriteFiles(files []GeneratedFile, outputDir string) error {
	for _, file := range files {
		dir := filepath.Join(outputDir, file.Dir)

		err := os.MkdirAll(dir, dirPerm)
		if err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		err = os.WriteFile(filepath.Join(dir, file.Filename), file.Content, filePerm)
		if err != nil {
			return fmt.Errorf("writing file %s: %w", filepath.Join(file.Dir, file.Filename), err)
		}
	}

	return nil
}
