package linestore

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Codec converts between a record and its line in the backing file.
// Serialize must not return a string containing a newline.
type Codec[T any] interface {
	Parse(line string) (T, error)
	Serialize(rec T) (string, error)
}

// JSONCodec stores one JSON value per line
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Parse(line string) (T, error) {
	var rec T
	err := json.Unmarshal([]byte(line), &rec)
	return rec, err
}

func (JSONCodec[T]) Serialize(rec T) (string, error) {
	d, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	return string(d), nil
}

// KVCodec stores records as key/value pairs in KeyValueMarshal format
// e.g. `name:John age:30 note:"has spaces"`
type KVCodec struct{}

func (KVCodec) Parse(line string) ([]string, error) {
	return KeyValueUnmarshal(line)
}

func (KVCodec) Serialize(rec []string) (string, error) {
	return KeyValueMarshal(rec...)
}

// serializeLine serializes rec and appends it, with a newline, to buf
func serializeLine[T any](codec Codec[T], rec T, buf *strings.Builder) error {
	s, err := codec.Serialize(rec)
	if err != nil {
		return err
	}
	if strings.ContainsAny(s, "\n\r") {
		return fmt.Errorf("linestore: serialized record contains a newline: %q", s)
	}
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("linestore: serialized record is blank")
	}
	buf.WriteString(s)
	buf.WriteByte('\n')
	return nil
}
