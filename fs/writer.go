// Package fs writes the generated site to the local filesystem.
package fs

import (
	"os"
	"path/filepath"

	"github.com/fwojciec/linkfeed"
)

// Writer writes files below a base directory. Files are replaced
// atomically so readers never observe a partially written file.
type Writer struct {
	baseDir string
}

// NewWriter creates a new Writer that writes to the given base directory.
// An empty baseDir means the working directory.
func NewWriter(baseDir string) *Writer {
	if baseDir == "" {
		baseDir = "."
	}
	return &Writer{baseDir: baseDir}
}

// Path returns the full path of rel below the base directory. Absolute
// paths are returned cleaned but otherwise unchanged.
func (w *Writer) Path(rel string) string {
	p := filepath.FromSlash(rel)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(w.baseDir, p)
}

// WriteFile atomically writes data to rel below the base directory,
// creating parent directories as needed, and returns the full path.
// Returns EWRITE if the file cannot be written.
func (w *Writer) WriteFile(rel string, data []byte) (string, error) {
	path := w.Path(rel)
	if err := WriteFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place. Returns EWRITE on failure.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return linkfeed.Errorf(linkfeed.EWRITE, "failed to create directory %s: %v", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return linkfeed.Errorf(linkfeed.EWRITE, "failed to create temp file in %s: %v", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return linkfeed.Errorf(linkfeed.EWRITE, "failed to write %s: %v", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return linkfeed.Errorf(linkfeed.EWRITE, "failed to sync %s: %v", path, err)
	}
	if err := tmp.Close(); err != nil {
		return linkfeed.Errorf(linkfeed.EWRITE, "failed to close %s: %v", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return linkfeed.Errorf(linkfeed.EWRITE, "failed to set permissions on %s: %v", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return linkfeed.Errorf(linkfeed.EWRITE, "failed to replace %s: %v", path, err)
	}
	return nil
}
