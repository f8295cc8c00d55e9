package siser

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalLine(t *testing.T) {
	fixedTime := time.Date(2024, 1, 15, 10, 30, 45, 123000000, time.UTC)
	ms := strconv.FormatInt(TimeToUnixMillisecond(fixedTime), 10)

	tests := []struct {
		name string
		t    time.Time
		d    string
		exp  string
	}{
		{"myrecord", fixedTime, "test data", "--- 9 " + ms + " myrecord\ntest data\n"},
		{"", fixedTime, "test data", "--- 9 " + ms + "\ntest data\n"},
		{"myrecord", time.Time{}, "test data", "--- 9 myrecord\ntest data\n"},
		{"myrecord", fixedTime, "", "--- 0 " + ms + " myrecord\n"},
		{"", time.Time{}, "", "--- 0\n"},
		{"myrecord", fixedTime, "test data\n", "--- 10 " + ms + " myrecord\ntest data\n"},
	}
	var buf bytes.Buffer
	for _, tc := range tests {
		got := MarshalLine(tc.name, tc.t, []byte(tc.d), &buf)
		assert.Equal(t, tc.exp, string(got))
		assert.Equal(t, buf.Bytes(), got)
	}
}

func TestReaderRoundTrip(t *testing.T) {
	fixedTime := time.Date(2024, 1, 15, 10, 30, 45, 123000000, time.UTC)
	type block struct {
		name string
		t    time.Time
		d    string
	}
	blocks := []block{
		{"linestore.rewrite", fixedTime, "op: delete\nchanged: 2\n"},
		{"", fixedTime, "no name"},
		{"no time", time.Time{}, "data"},
		{"empty", fixedTime, ""},
		{"", time.Time{}, strings.Repeat("x", 300)},
	}
	var all bytes.Buffer
	for _, b := range blocks {
		all.Write(MarshalLine(b.name, b.t, []byte(b.d), nil))
	}

	r := NewReader(&all)
	for i, b := range blocks {
		require.True(t, r.ReadNext(), "block %d, err: %v", i, r.Err())
		assert.Equal(t, b.name, r.Name)
		assert.Equal(t, b.d, string(r.Data))
		if b.t.IsZero() {
			assert.True(t, r.Timestamp.IsZero())
		} else {
			assert.True(t, b.t.Equal(r.Timestamp), "exp %s, got %s", b.t, r.Timestamp)
		}
	}
	assert.False(t, r.ReadNext())
	assert.NoError(t, r.Err())
}

func TestReaderErrors(t *testing.T) {
	invalid := []string{
		"--- ha\n",
		"--- -3 name\n",
		"--- 10 name\nshort",
		"--- 5",
	}
	for _, s := range invalid {
		r := NewReader(strings.NewReader(s))
		assert.False(t, r.ReadNext(), "s: %q", s)
		assert.Error(t, r.Err(), "s: %q", s)
	}
}
