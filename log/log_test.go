package log

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kjk/linestore/siser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	prev := Output
	Output = &buf
	t.Cleanup(func() { Output = prev })
	return &buf
}

func TestMarshalEvent(t *testing.T) {
	tm := time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)
	d, err := MarshalEvent("linestore.rewrite", tm, "op", "delete", "changed", 3)
	require.NoError(t, err)

	r := siser.NewReader(bytes.NewReader(d))
	require.True(t, r.ReadNext())
	assert.Equal(t, "linestore.rewrite", r.Name)
	assert.True(t, tm.Equal(r.Timestamp))
	s := string(r.Data)
	assert.Contains(t, s, "op")
	assert.Contains(t, s, "delete")
	assert.Contains(t, s, "changed")
	assert.False(t, r.ReadNext())
	assert.NoError(t, r.Err())

	d, err = MarshalEvent("empty", tm)
	require.NoError(t, err)
	r = siser.NewReader(bytes.NewReader(d))
	require.True(t, r.ReadNext())
	assert.Equal(t, "empty", r.Name)
	assert.Empty(t, r.Data)

	assert.Panics(t, func() { _, _ = MarshalEvent("odd", tm, "key") })
	assert.Panics(t, func() { _, _ = MarshalEvent("bad key", tm, []string{"k"}, 1) })
}

func TestLogWithoutInit(t *testing.T) {
	out := captureOutput(t)
	Logf("hello %s\n", "world")
	Logf("no args\n")
	assert.Equal(t, "hello world\nno args\n", out.String())

	Verbose = false
	Verbosef("not shown\n")
	assert.NotContains(t, out.String(), "not shown")
	Verbose = true
	Verbosef("shown\n")
	Verbose = false
	assert.Contains(t, out.String(), "shown\n")

	// no-op without Init
	Event("ignored", "k", "v")
}

func TestInitWritesFiles(t *testing.T) {
	out := captureOutput(t)
	dir := t.TempDir()
	var logged []string
	Init(&Config{
		Dir:   dir,
		OnLog: func(s string) { logged = append(logged, s) },
	})
	defer Close()

	Logf("message %d\n", 1)
	Errorf("something failed: %s", "disk full")
	assert.True(t, IfErrf(os.ErrNotExist))
	assert.False(t, IfErrf(nil))
	Event("linestore.restore", "path", "/data/items.jsonl", "records", 5)
	EventWithDuration("snapshot.save", time.Millisecond*3, "size", 128)

	assert.Contains(t, out.String(), "message 1\n")
	assert.Contains(t, out.String(), "something failed: disk full")
	require.NotEmpty(t, logged)
	assert.Equal(t, "message 1\n", logged[0])

	now := time.Now()
	readLog := func(sub string) string {
		wd := NewWriteDaily(filepath.Join(dir, sub))
		d, err := os.ReadFile(wd.PathForDay(now))
		require.NoError(t, err)
		return string(d)
	}
	assert.Contains(t, readLog("log"), "message 1\n")
	errs := readLog("errors")
	assert.Contains(t, errs, "something failed: disk full")
	assert.Contains(t, errs, "log_test.go")
	assert.Contains(t, errs, os.ErrNotExist.Error())

	f, err := os.Open(NewWriteDaily(EventsDir(dir)).PathForDay(now))
	require.NoError(t, err)
	defer f.Close()
	r := siser.NewReader(f)
	var names []string
	var lastData string
	for r.ReadNext() {
		names = append(names, r.Name)
		lastData = string(r.Data)
	}
	require.NoError(t, r.Err())
	assert.Equal(t, []string{"linestore.restore", "snapshot.save"}, names)
	assert.True(t, strings.Contains(lastData, "durmicro"))
}

func TestLogConcurrentWithClose(t *testing.T) {
	captureOutput(t)
	// bytes.Buffer from captureOutput isn't safe for concurrent writes
	Output = io.Discard
	dir := t.TempDir()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				Logf("worker %d: %d\n", i, j)
				Event("linestore.append", "worker", i, "n", j)
				if j%10 == 0 {
					Errorf("worker %d failed", i)
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		Init(&Config{Dir: dir, OnLog: func(s string) {}})
		Close()
	}
	wg.Wait()
	Close()
}

func TestWriteDailyNil(t *testing.T) {
	var w *WriteDaily
	assert.NoError(t, w.Write([]byte("x")))
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Sync())
	CloseWriteDaily(&w)
}

func TestPathForDay(t *testing.T) {
	w := NewWriteDaily("logs")
	tm := time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, filepath.Join("logs", "2024-03-05.txt"), w.PathForDay(tm))
}
