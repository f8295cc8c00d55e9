package linestore

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/kjk/linestore/atomicfile"
	"github.com/kjk/linestore/log"
)

// Store is a record store backed by a file with one record per line.
// Set the exported fields and call OpenStore before use.
// A Store must not be copied after OpenStore.
type Store[T any] struct {
	// Path of the backing file. Made absolute by OpenStore.
	Path  string
	Codec Codec[T]

	// FS defaults to OSFS
	FS FS

	// if true, will call Sync() after every write
	// this makes things much slower
	SyncWrite bool

	// if true, a rewrite removes the backing file before renaming the
	// temporary file over it. Only needed for filesystems where rename
	// can't replace an existing file. It opens a window where the
	// backing file doesn't exist and a failed rename returns *SwapError
	// with the data only in the temporary file.
	RemoveBeforeRename bool

	tmpPath string
	q       Queue
}

// OpenStore validates configuration, creates the directory for the
// backing file and derives the temporary file path.
// The backing file itself is created lazily by the first write.
func OpenStore[T any](s *Store[T]) error {
	if s.Path == "" {
		return fmt.Errorf("path is not set")
	}
	if s.Codec == nil {
		return fmt.Errorf("codec is not set")
	}
	if s.FS == nil {
		s.FS = OSFS{}
	}

	var err error
	s.Path, err = filepath.Abs(s.Path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for '%s': %w", s.Path, err)
	}
	s.tmpPath = atomicfile.TempPath(s.Path)

	err = s.FS.MkdirAll(filepath.Dir(s.Path))
	if err != nil {
		return err
	}

	// a left-over temporary file is either a rewrite that crashed before
	// rename (harmless, next rewrite truncates it) or the only copy of
	// the data after a failed swap
	if _, err := s.FS.Stat(s.tmpPath); err == nil {
		if _, err := s.FS.Stat(s.Path); errors.Is(err, fs.ErrNotExist) {
			log.Logf("linestore: '%s' doesn't exist but '%s' does. Use RecoverTemp() to restore it\n", s.Path, s.tmpPath)
		} else {
			log.Verbosef("linestore: stale temporary file '%s'\n", s.tmpPath)
		}
	}
	return nil
}

// TmpPath returns path of the temporary file used by rewrites
func (s *Store[T]) TmpPath() string {
	return s.tmpPath
}

func (s *Store[T]) fs() FS {
	if s.FS == nil {
		return OSFS{}
	}
	return s.FS
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
