package subvol

import (
	"os"
	"path/filepath"
	"runtime"
)

// NumCPU is the number of cores available to the analysis passes.
var NumCPU = runtime.NumCPU()

// ConvertToAbsolute returns path unchanged if it is absolute or empty, otherwise it is
// joined to baseDir and cleaned.
func ConvertToAbsolute(path, baseDir string) (string, error) {
	if path == "" || filepath.IsAbs(path) {
		return path, nil
	}
	if baseDir == "" {
		var err error
		if baseDir, err = os.Getwd(); err != nil {
			return "", err
		}
	}
	return filepath.Abs(filepath.Join(baseDir, path))
}

// SplitPath splits a file path into its directory and base name.  The directory has no
// trailing separator and is empty when path has no directory component.
func SplitPath(path string) (dir, name string) {
	dir, name = filepath.Split(path)
	if dir != "" {
		dir = filepath.Clean(dir)
	}
	return
}
