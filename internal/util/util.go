package util

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

func DirExists(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	return info.IsDir()
}

// EnsureDir creates path (and parents) when it does not exist yet.
func EnsureDir(path string) error {
	if DirExists(path) {
		return nil
	}
	return os.MkdirAll(path, 0o755)
}

// TempFile returns a unique path inside the system temp directory.
// The caller owns the file and is responsible for removing it.
func TempFile(prefix, ext string) string {
	return filepath.Join(os.TempDir(), prefix+"-"+uuid.NewString()+ext)
}
