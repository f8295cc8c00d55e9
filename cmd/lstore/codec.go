package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kjk/linestore/linestore"
)

// recordCodec is like linestore.JSONCodec but keeps numbers as json.Number
// so that they are matched and written back exactly as they were in the file.
// With float64 1000000 prints as 1e+06 and integers above 2^53 lose precision.
type recordCodec struct{}

var _ linestore.Codec[record] = recordCodec{}

func (recordCodec) Parse(line string) (record, error) {
	return decodeRecord(line)
}

func (recordCodec) Serialize(rec record) (string, error) {
	d, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	return string(d), nil
}

func decodeRecord(s string) (record, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var rec record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return rec, nil
}
