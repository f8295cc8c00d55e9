package siser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Reader reads blocks written with MarshalLine
type Reader struct {
	r *bufio.Reader

	// Data / Name / Timestamp are available after ReadNext.
	// They are over-written in next ReadNext.
	Data      []byte
	Name      string
	Timestamp time.Time

	err  error
	done bool
}

func NewReader(r io.Reader) *Reader {
	return &Reader{
		r: bufio.NewReader(r),
	}
}

// Err returns error from last ReadNext. We swallow io.EOF to make it easier
// to use
func (r *Reader) Err() error {
	return r.err
}

// parseHeader parses "${size}[ ${timestamp}][ ${name}]"
// a second field that isn't a number is a name
func parseHeader(hdr []byte) (size int64, timeMs int64, name string, err error) {
	fields := bytes.SplitN(hdr, []byte{' '}, 3)
	size, err = strconv.ParseInt(string(fields[0]), 10, 64)
	if err != nil || size < 0 {
		return 0, 0, "", fmt.Errorf("unexpected header '%s'", hdr)
	}
	if len(fields) == 1 {
		return size, 0, "", nil
	}
	timeMs, err = strconv.ParseInt(string(fields[1]), 10, 64)
	if err != nil {
		// no timestamp, the rest is name
		return size, 0, string(bytes.Join(fields[1:], []byte{' '})), nil
	}
	if len(fields) == 3 {
		name = string(fields[2])
	}
	return size, timeMs, name, nil
}

// ReadNext reads next block, returns false when there are no more blocks
// or on error. Check Err() after it returns false.
func (r *Reader) ReadNext() bool {
	if r.err != nil || r.done {
		return false
	}
	r.Name = ""
	r.Timestamp = time.Time{}

	hdr, err := r.r.ReadBytes('\n')
	if err != nil {
		if err == io.EOF && len(hdr) == 0 {
			r.done = true
		} else if err == io.EOF {
			r.err = fmt.Errorf("truncated header '%s'", hdr)
		} else {
			r.err = err
		}
		return false
	}
	hdr = bytes.TrimSuffix(hdr, []byte{'\n'})
	// "--- " is optional
	hdr = bytes.TrimPrefix(hdr, hdrPrefix)

	size, timeMs, name, err := parseHeader(hdr)
	if err != nil {
		r.err = err
		return false
	}
	if timeMs != 0 {
		r.Timestamp = TimeFromUnixMillisecond(timeMs)
	}
	r.Name = name

	r.Data = make([]byte, size)
	if _, err = io.ReadFull(r.r, r.Data); err != nil {
		r.err = err
		return false
	}
	// MarshalLine pads data that doesn't end with a newline
	if size > 0 && r.Data[size-1] != '\n' {
		if _, err = r.r.Discard(1); err != nil {
			r.err = err
			return false
		}
	}
	return true
}
