package safeio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MaxFileSize bounds ReadFileBounded.
const MaxFileSize int64 = 100 * 1024 * 1024

var (
	ErrSymlink      = errors.New("refusing to read symbolic link")
	ErrFileTooLarge = errors.New("file exceeds size limit")
	ErrNotRegular   = errors.New("not a regular file")
	ErrNotDirectory = errors.New("not a directory")
)

// FileReadError wraps a failure to read a project file.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// ValidateDirectory checks that path names an existing directory that is not a
// symlink and returns its absolute form.
func ValidateDirectory(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &FileReadError{Path: path, Err: err}
	}
	info, err := os.Lstat(abs)
	if err != nil {
		return "", &FileReadError{Path: path, Err: err}
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return "", &FileReadError{Path: path, Err: ErrSymlink}
	}
	if !info.IsDir() {
		return "", &FileReadError{Path: path, Err: ErrNotDirectory}
	}
	return abs, nil
}

// ReadFileBounded reads path after checking it is a regular file, not a
// symlink, and no larger than limit bytes. A non-positive limit means MaxFileSize.
func ReadFileBounded(path string, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = MaxFileSize
	}
	info, err := os.Lstat(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, &FileReadError{Path: path, Err: ErrSymlink}
	}
	if !info.Mode().IsRegular() {
		return nil, &FileReadError{Path: path, Err: ErrNotRegular}
	}
	if info.Size() > limit {
		return nil, &FileReadError{Path: path, Err: fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, info.Size(), limit)}
	}

	// #nosec G304 -- path is a caller-chosen project file checked above
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	defer f.Close()

	// The file may grow between Lstat and read; never read past the limit.
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	if int64(len(data)) > limit {
		return nil, &FileReadError{Path: path, Err: ErrFileTooLarge}
	}
	return data, nil
}

// WriteFilePreservePerms writes data to path preserving existing file mode when possible.
// When the file does not exist, it uses a sane default of 0644.
func WriteFilePreservePerms(path string, data []byte) error {
	var mode os.FileMode = 0o644
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode() & 0o777
		if mode == 0 {
			mode = 0o644
		}
	}
	return os.WriteFile(path, data, mode)
}
