package linestore

import (
	"io"
	"io/fs"
	"os"
)

// FS is the subset of filesystem operations a Store needs.
// OSFS is used unless Store.FS is set, mostly to inject failures in tests.
type FS interface {
	Stat(path string) (fs.FileInfo, error)
	Open(path string) (io.ReadCloser, error)
	// OpenAppend opens a file for appending, creating it if needed
	OpenAppend(path string) (io.WriteCloser, error)
	// Create creates a file or truncates an existing one
	Create(path string) (io.WriteCloser, error)
	Rename(oldPath, newPath string) error
	Remove(path string) error
	MkdirAll(path string) error
}

// OSFS implements FS with package os
type OSFS struct{}

var _ FS = OSFS{}

func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (OSFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (OSFS) OpenAppend(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
}

func (OSFS) Create(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
}

func (OSFS) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

func (OSFS) Remove(path string) error {
	return os.Remove(path)
}

func (OSFS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

type syncer interface {
	Sync() error
}

// closeWriter closes w, calling Sync() first if sync is true and w supports it
// https://www.joeshaw.org/dont-defer-close-on-writable-files/
func closeWriter(w io.WriteCloser, sync bool) error {
	var errSync error
	if sync {
		if s, ok := w.(syncer); ok {
			errSync = s.Sync()
		}
	}
	errClose := w.Close()
	if errSync != nil {
		return errSync
	}
	return errClose
}
