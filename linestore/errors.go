package linestore

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotFound is returned by SizeOnDisk when the backing file doesn't exist.
	// Reads treat a missing file as an empty store.
	ErrNotFound = errors.New("linestore: file not found")

	// ErrStop can be returned by a ForEach visitor to stop iteration early.
	// ForEach doesn't report it as an error.
	ErrStop = errors.New("linestore: stop iteration")
)

type notFoundError struct {
	path string
	err  error
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("linestore: file '%s' not found", e.path)
}

func (e *notFoundError) Is(target error) bool {
	return target == ErrNotFound || target == fs.ErrNotExist
}

func (e *notFoundError) Unwrap() error {
	return e.err
}

// ParseError is returned when a non-blank line can't be decoded by the codec.
// The scan that hit it is aborted and the backing file is not modified.
type ParseError struct {
	Path string
	// 1-based line number in the file
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("linestore: %s:%d: %s", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SwapError is returned when renaming the temporary file over the backing
// file failed. The rewritten records are in TmpPath. If the store was
// configured with RemoveBeforeRename, Path might not exist anymore and
// the data must be recovered from TmpPath (see Store.RecoverTemp).
type SwapError struct {
	Path    string
	TmpPath string
	Err     error
}

func (e *SwapError) Error() string {
	return fmt.Sprintf("linestore: failed to rename '%s' to '%s': %s. Data is in '%s'", e.TmpPath, e.Path, e.Err, e.TmpPath)
}

func (e *SwapError) Unwrap() error {
	return e.Err
}
