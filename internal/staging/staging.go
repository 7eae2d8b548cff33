// Package staging provides a scoped temp area for files awaiting upload
// to the model provider. Staged files are removed after upload on both
// success and failure paths.
package staging

import (
	"fmt"
	"os"
	"path/filepath"
)

// Area is a scoped directory for upload staging.
type Area struct {
	dir string
}

// New creates (if needed) and returns a staging area under baseDir.
func New(baseDir string) (*Area, error) {
	dir := filepath.Join(baseDir, "memorycore-staging")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating staging dir: %w", err)
	}
	return &Area{dir: dir}, nil
}

// Stage writes data to a fresh file in the area and returns its path and
// a cleanup func. Cleanup is safe to call more than once. If the write
// fails, the partial file is removed before returning.
func (a *Area) Stage(prefix string, data []byte) (string, func(), error) {
	f, err := os.CreateTemp(a.dir, prefix+"-*.txt")
	if err != nil {
		return "", nil, fmt.Errorf("creating staged file: %w", err)
	}
	path := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", nil, fmt.Errorf("writing staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", nil, fmt.Errorf("closing staged file: %w", err)
	}

	return path, func() { os.Remove(path) }, nil
}

// Dir returns the staging directory path.
func (a *Area) Dir() string {
	return a.dir
}
