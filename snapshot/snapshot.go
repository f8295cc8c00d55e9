// Package snapshot saves and restores the content of a linestore.Store.
//
// A snapshot is a copy of the backing file, compressed based on the
// extension of the destination: ".gz", ".zst" or ".br" (no extension
// or anything else means uncompressed). Snapshots are taken and
// restored through the store's queue so they never see a half-done
// rewrite.
package snapshot

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/kjk/linestore/atomicfile"
	"github.com/kjk/linestore/linestore"
	"github.com/kjk/linestore/log"
	"github.com/kjk/linestore/u"
)

// Remote is a place to store snapshots. minioutil.Client implements it.
type Remote interface {
	PutFile(remotePath string, path string) error
	GetFile(dstPath string, remotePath string) error
}

// Save writes content of s to dstPath atomically.
// Returns number of uncompressed bytes written.
func Save[T any](s *linestore.Store[T], dstPath string) (int64, error) {
	timeStart := time.Now()
	err := os.MkdirAll(filepath.Dir(dstPath), 0755)
	if err != nil {
		return 0, err
	}
	f, err := atomicfile.New(dstPath)
	if err != nil {
		return 0, err
	}
	defer f.RemoveIfNotClosed()

	w, err := u.NewCompressWriter(f, dstPath)
	if err != nil {
		return 0, err
	}
	n, err := s.CopyTo(w)
	if err != nil {
		return 0, err
	}
	if err = w.Close(); err != nil {
		return 0, err
	}
	if err = f.Close(); err != nil {
		return 0, err
	}
	log.EventWithDuration("snapshot.save", time.Since(timeStart), "path", dstPath, "size", n)
	return n, nil
}

// Load replaces content of s with records from snapshot at srcPath.
// Every record is validated with the store's codec before the store is
// modified. Returns number of records.
func Load[T any](s *linestore.Store[T], srcPath string) (int, error) {
	if !u.FileExists(srcPath) {
		return 0, fmt.Errorf("snapshot '%s' doesn't exist or is not a file", srcPath)
	}
	r, err := u.OpenFileMaybeCompressed(srcPath)
	if err != nil {
		return 0, err
	}
	defer u.CloseNoError(r)
	n, err := s.ReplaceFrom(r)
	if err != nil {
		return 0, fmt.Errorf("failed to restore from '%s': %w", srcPath, err)
	}
	log.Event("snapshot.load", "path", srcPath, "records", n)
	return n, nil
}

func splitStoreName(storePath string) (name string, ext string) {
	base := filepath.Base(storePath)
	ext = filepath.Ext(base)
	return strings.TrimSuffix(base, ext), ext
}

// RemoteName returns a name for a snapshot of storePath taken at t
// e.g. "items/2024-01-15_103045.jsonl.zst" for "/data/items.jsonl"
// and compression ".zst"
func RemoteName(storePath string, t time.Time, compression string) string {
	name, ext := splitStoreName(storePath)
	ts := t.UTC().Format("2006-01-02_150405")
	return path.Join(name, ts+ext+compression)
}

// RemotePrefix returns the prefix shared by all RemoteName()s of storePath
func RemotePrefix(storePath string) string {
	name, _ := splitStoreName(storePath)
	return name + "/"
}

// Push saves a snapshot of s and uploads it to remote as remotePath.
// Compression is based on extension of remotePath.
func Push[T any](s *linestore.Store[T], remote Remote, remotePath string) error {
	dir, err := os.MkdirTemp("", "linestore-snapshot")
	if err != nil {
		return err
	}
	defer func() {
		log.IfErrf(os.RemoveAll(dir))
	}()

	localPath := filepath.Join(dir, path.Base(remotePath))
	if _, err = Save(s, localPath); err != nil {
		return err
	}
	if err = remote.PutFile(remotePath, localPath); err != nil {
		return fmt.Errorf("failed to upload '%s': %w", remotePath, err)
	}
	log.Verbosef("snapshot: uploaded '%s' as '%s'\n", s.Path, remotePath)
	return nil
}

// Pull downloads snapshot remotePath and restores s from it
func Pull[T any](s *linestore.Store[T], remote Remote, remotePath string) (int, error) {
	dir, err := os.MkdirTemp("", "linestore-snapshot")
	if err != nil {
		return 0, err
	}
	defer func() {
		log.IfErrf(os.RemoveAll(dir))
	}()

	localPath := filepath.Join(dir, path.Base(remotePath))
	if err = remote.GetFile(localPath, remotePath); err != nil {
		return 0, fmt.Errorf("failed to download '%s': %w", remotePath, err)
	}
	return Load(s, localPath)
}
