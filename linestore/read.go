package linestore

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// scan calls visit for every record in the backing file, in file order.
// visit returns false to stop early.
// A missing file is an empty store.
// Must be called by an operation already admitted by the queue.
func (s *Store[T]) scan(visit func(rec T, line string) (bool, error)) error {
	file, err := s.fs().Open(s.Path)
	if err != nil {
		if isNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	lineNo := 0
	for {
		line, err := reader.ReadString('\n')
		atEOF := false
		if err == io.EOF {
			if line == "" {
				return nil
			}
			atEOF = true
		} else if err != nil {
			return fmt.Errorf("error reading '%s': %w", s.Path, err)
		}
		lineNo++

		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) != "" {
			rec, err := s.Codec.Parse(line)
			if err != nil {
				return &ParseError{Path: s.Path, Line: lineNo, Err: err}
			}
			more, err := visit(rec, line)
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
		}
		if atEOF {
			return nil
		}
	}
}

// Records returns an iterator over all records.
// Breaking out of the loop stops reading and closes the file.
// Call the returned error function after iteration to check for errors.
// The store is locked for the duration of the iteration so the loop body
// must not call ordered operations on the same store.
func (s *Store[T]) Records(wait bool) (iter.Seq[T], func() error) {
	var iterErr error
	seq := func(yield func(T) bool) {
		iterErr = s.q.Do(wait, func() error {
			return s.scan(func(rec T, _ string) (bool, error) {
				return yield(rec), nil
			})
		})
	}
	return seq, func() error { return iterErr }
}

// ForEach calls visit for every record. If visit returns ErrStop, iteration
// stops and ForEach returns nil. Other errors stop iteration and are returned.
func (s *Store[T]) ForEach(wait bool, visit func(rec T) error) error {
	return s.q.Do(wait, func() error {
		return s.scan(func(rec T, _ string) (bool, error) {
			err := visit(rec)
			if errors.Is(err, ErrStop) {
				return false, nil
			}
			return err == nil, err
		})
	})
}

// GetAll returns all records in file order
func (s *Store[T]) GetAll(wait bool) ([]T, error) {
	return s.FindAll(nil, wait)
}

// FindOne returns the first record for which pred returns true.
// Reading stops at the first match. nil pred matches the first record.
func (s *Store[T]) FindOne(pred func(T) bool, wait bool) (T, bool, error) {
	var res T
	found := false
	err := s.q.Do(wait, func() error {
		return s.scan(func(rec T, _ string) (bool, error) {
			if pred == nil || pred(rec) {
				res = rec
				found = true
				return false, nil
			}
			return true, nil
		})
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return res, found, nil
}

// FindAll returns records for which pred returns true, in file order.
// nil pred matches all records.
func (s *Store[T]) FindAll(pred func(T) bool, wait bool) ([]T, error) {
	return do(&s.q, wait, func() ([]T, error) {
		var res []T
		err := s.scan(func(rec T, _ string) (bool, error) {
			if pred == nil || pred(rec) {
				res = append(res, rec)
			}
			return true, nil
		})
		if err != nil {
			return nil, err
		}
		return res, nil
	})
}

// Count returns the number of records, always equal to len(GetAll())
func (s *Store[T]) Count(wait bool) (int, error) {
	all, err := s.GetAll(wait)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// SizeOnDisk returns size of the backing file in bytes.
// Returns an error matching ErrNotFound if the file doesn't exist.
func (s *Store[T]) SizeOnDisk() (int64, error) {
	st, err := s.fs().Stat(s.Path)
	if err != nil {
		if isNotExist(err) {
			return 0, &notFoundError{path: s.Path, err: err}
		}
		return 0, err
	}
	return st.Size(), nil
}
