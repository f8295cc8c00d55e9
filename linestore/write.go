package linestore

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/kjk/linestore/atomicfile"
	"github.com/kjk/linestore/log"
)

type verdict int

const (
	verdictKeep verdict = iota
	verdictReplace
	verdictDrop
)

func (s *Store[T]) appendData(path string, d []byte) error {
	file, err := s.fs().OpenAppend(path)
	if err != nil {
		return err
	}
	_, err = file.Write(d)
	if err != nil {
		file.Close()
		return err
	}
	return closeWriter(file, s.SyncWrite)
}

func (s *Store[T]) truncate(path string) error {
	file, err := s.fs().Create(path)
	if err != nil {
		return err
	}
	return closeWriter(file, s.SyncWrite)
}

// Append appends records at the end of the file in a single write.
// The file is created if it doesn't exist. Appending no records
// still creates the file.
func (s *Store[T]) Append(recs ...T) error {
	// serialize before taking the lock; a bad record means nothing is written
	var buf strings.Builder
	for _, rec := range recs {
		if err := serializeLine(s.Codec, rec, &buf); err != nil {
			return err
		}
	}
	d := []byte(buf.String())
	return s.q.Do(true, func() error {
		return s.appendData(s.Path, d)
	})
}

// Clear truncates the file to zero records, creating it if needed
func (s *Store[T]) Clear() error {
	return s.q.Do(true, func() error {
		return s.truncate(s.Path)
	})
}

// DeleteAll removes all records. Same as Clear.
func (s *Store[T]) DeleteAll() error {
	return s.Clear()
}

// ReplaceAll replaces every record for which pred returns true with newRec.
// nil pred replaces all records. Returns number of replaced records.
func (s *Store[T]) ReplaceAll(pred func(T) bool, newRec T) (int, error) {
	return s.rewrite("replace", func(rec T) (T, verdict) {
		if pred == nil || pred(rec) {
			return newRec, verdictReplace
		}
		return rec, verdictKeep
	})
}

// UpdateFunc calls fn for every record. If fn returns true, the record
// is replaced with the returned value. Returns number of updated records.
func (s *Store[T]) UpdateFunc(fn func(T) (T, bool)) (int, error) {
	if fn == nil {
		return 0, fmt.Errorf("linestore: UpdateFunc with nil fn")
	}
	return s.rewrite("update", func(rec T) (T, verdict) {
		if updated, ok := fn(rec); ok {
			return updated, verdictReplace
		}
		return rec, verdictKeep
	})
}

// DeleteWhere removes records for which pred returns true.
// nil pred removes all records. Returns number of removed records.
func (s *Store[T]) DeleteWhere(pred func(T) bool) (int, error) {
	return s.rewrite("delete", func(rec T) (T, verdict) {
		if pred == nil || pred(rec) {
			return rec, verdictDrop
		}
		return rec, verdictKeep
	})
}

// rewrite streams the backing file into the temporary file, applying decide
// to every record, and swaps the temporary file in if any record changed.
// Kept records are copied byte for byte.
func (s *Store[T]) rewrite(op string, decide func(rec T) (T, verdict)) (int, error) {
	return do(&s.q, true, func() (int, error) {
		log.Verbosef("linestore: %s in '%s'\n", op, s.Path)
		var buf strings.Builder
		nChanged, err := s.fillTemp(func(w *bufio.Writer) (int, error) {
			n := 0
			// already inside an admitted operation so scan directly,
			// going through the queue again would deadlock
			err := s.scan(func(rec T, line string) (bool, error) {
				out, v := decide(rec)
				switch v {
				case verdictKeep:
					w.WriteString(line)
					w.WriteByte('\n')
				case verdictReplace:
					buf.Reset()
					if err := serializeLine(s.Codec, out, &buf); err != nil {
						return false, err
					}
					w.WriteString(buf.String())
					n++
				case verdictDrop:
					n++
				}
				return true, nil
			})
			return n, err
		})
		if err != nil {
			return 0, err
		}
		if nChanged == 0 {
			s.removeTemp()
			return 0, nil
		}
		if err = s.swap(); err != nil {
			return 0, err
		}
		log.Event("linestore.rewrite", "op", op, "path", s.Path, "changed", nChanged)
		return nChanged, nil
	})
}

// fillTemp truncates the temporary file and writes to it with fill.
// On error the temporary file is removed.
func (s *Store[T]) fillTemp(fill func(w *bufio.Writer) (int, error)) (int, error) {
	file, err := s.fs().Create(s.tmpPath)
	if err != nil {
		return 0, err
	}
	w := bufio.NewWriter(file)
	n, err := fill(w)
	if err == nil {
		err = w.Flush()
	}
	errClose := closeWriter(file, s.SyncWrite)
	if err == nil {
		err = errClose
	}
	if err != nil {
		s.removeTemp()
		return 0, err
	}
	return n, nil
}

func (s *Store[T]) removeTemp() {
	err := s.fs().Remove(s.tmpPath)
	if err != nil && !isNotExist(err) {
		log.Logf("linestore: failed to remove '%s': %s\n", s.tmpPath, err)
	}
}

// swap moves the temporary file to the backing file path
func (s *Store[T]) swap() error {
	if s.RemoveBeforeRename {
		// the rename below over-writes anyway
		err := s.fs().Remove(s.Path)
		if err != nil && !isNotExist(err) {
			log.Logf("linestore: failed to remove '%s' before rename: %s\n", s.Path, err)
		}
	}
	err := s.fs().Rename(s.tmpPath, s.Path)
	if err != nil {
		serr := &SwapError{Path: s.Path, TmpPath: s.tmpPath, Err: err}
		log.Errorf("%s", serr.Error())
		return serr
	}
	if s.SyncWrite {
		atomicfile.SyncDir(filepath.Dir(s.Path))
	}
	return nil
}

// CopyTo writes raw content of the backing file to w.
// A missing file writes nothing.
func (s *Store[T]) CopyTo(w io.Writer) (int64, error) {
	return do(&s.q, true, func() (int64, error) {
		file, err := s.fs().Open(s.Path)
		if err != nil {
			if isNotExist(err) {
				return 0, nil
			}
			return 0, err
		}
		defer file.Close()
		return io.Copy(w, file)
	})
}

// ReplaceFrom replaces content of the store with records read from r.
// Every non-blank line must be parseable by the codec; if any isn't, the
// store is not modified. Returns number of records.
func (s *Store[T]) ReplaceFrom(r io.Reader) (int, error) {
	return do(&s.q, true, func() (int, error) {
		n, err := s.fillTemp(func(w *bufio.Writer) (int, error) {
			return copyValidLines(s.Codec, r, w)
		})
		if err != nil {
			return 0, err
		}
		if err = s.swap(); err != nil {
			return 0, err
		}
		log.Event("linestore.restore", "path", s.Path, "records", n)
		return n, nil
	})
}

func copyValidLines[T any](codec Codec[T], r io.Reader, w *bufio.Writer) (int, error) {
	reader := bufio.NewReader(r)
	n := 0
	lineNo := 0
	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return n, err
		}
		if line == "" && err == io.EOF {
			return n, nil
		}
		lineNo++
		atEOF := err == io.EOF
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) != "" {
			if _, err := codec.Parse(line); err != nil {
				return n, &ParseError{Path: "<input>", Line: lineNo, Err: err}
			}
			w.WriteString(line)
			w.WriteByte('\n')
			n++
		}
		if atEOF {
			return n, nil
		}
	}
}

// RecoverTemp restores the backing file from the temporary file after a
// failed swap i.e. if the backing file doesn't exist and the temporary
// file does. Returns true if it did restore.
func (s *Store[T]) RecoverTemp() (bool, error) {
	return do(&s.q, true, func() (bool, error) {
		_, err := s.fs().Stat(s.Path)
		if err == nil {
			return false, nil
		}
		if !isNotExist(err) {
			return false, err
		}
		if _, err = s.fs().Stat(s.tmpPath); err != nil {
			if isNotExist(err) {
				return false, nil
			}
			return false, err
		}
		if err = s.fs().Rename(s.tmpPath, s.Path); err != nil {
			return false, fmt.Errorf("failed to rename '%s' to '%s': %w", s.tmpPath, s.Path, err)
		}
		log.Logf("linestore: recovered '%s' from '%s'\n", s.Path, s.tmpPath)
		return true, nil
	})
}
