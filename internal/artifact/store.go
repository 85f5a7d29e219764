// Package artifact manages durable local storage of uploaded audio.
// Files are written once under unique timestamp-derived names, so
// concurrent uploads never collide and nothing is ever overwritten.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// URLPrefix is the public path under which artifacts are served.
const URLPrefix = "/uploads/"

const fileExt = ".webm"

// Artifact describes one stored audio file.
type Artifact struct {
	// Name is the bare filename.
	Name string

	// Path is the absolute or dir-relative filesystem path.
	Path string

	// URL is the relative URL recorded on summary records.
	URL string
}

// Store writes and deletes audio artifacts in a single directory.
type Store struct {
	dir string
}

// NewStore creates the uploads directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory artifacts are stored in.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes data under a fresh timestamp-derived name and returns
// the artifact's location. O_EXCL guards the rare case of two saves in
// the same millisecond.
func (s *Store) Save(data []byte) (Artifact, error) {
	for {
		name := fmt.Sprintf("audio-%d%s", time.Now().UnixMilli(), fileExt)
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			time.Sleep(time.Millisecond)
			continue
		}
		if err != nil {
			return Artifact{}, fmt.Errorf("creating artifact file: %w", err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return Artifact{}, fmt.Errorf("writing artifact file: %w", err)
		}
		if err := f.Close(); err != nil {
			return Artifact{}, fmt.Errorf("closing artifact file: %w", err)
		}

		return Artifact{Name: name, Path: path, URL: URLPrefix + name}, nil
	}
}

// Delete removes the artifact behind a recorded URL. A URL outside the
// uploads area or an already-missing file is a no-op.
func (s *Store) Delete(url string) error {
	name, ok := strings.CutPrefix(url, URLPrefix)
	if !ok || name == "" || name != filepath.Base(name) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting artifact: %w", err)
	}
	return nil
}

// Exists reports whether the artifact behind a recorded URL is still
// on disk.
func (s *Store) Exists(url string) bool {
	name, ok := strings.CutPrefix(url, URLPrefix)
	if !ok {
		return false
	}
	_, err := os.Stat(filepath.Join(s.dir, name))
	return err == nil
}
