package linestore

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected failure")

// faultFS wraps OSFS and fails selected operations
type faultFS struct {
	OSFS
	renameErr error
	removeErr error
	mkdirErr  error
	// fails all writes to the temporary file
	writeErr    error
	tmpPath     string
	afterRename func()
}

type failingWriter struct {
	io.WriteCloser
	err error
}

func (w *failingWriter) Write(d []byte) (int, error) {
	return 0, w.err
}

func (f *faultFS) Create(path string) (io.WriteCloser, error) {
	w, err := f.OSFS.Create(path)
	if err != nil || f.writeErr == nil || path != f.tmpPath {
		return w, err
	}
	return &failingWriter{WriteCloser: w, err: f.writeErr}, nil
}

func (f *faultFS) Rename(oldPath, newPath string) error {
	if f.renameErr != nil {
		return f.renameErr
	}
	err := f.OSFS.Rename(oldPath, newPath)
	if err == nil && f.afterRename != nil {
		f.afterRename()
	}
	return err
}

func (f *faultFS) Remove(path string) error {
	if f.removeErr != nil && path != f.tmpPath {
		return f.removeErr
	}
	return f.OSFS.Remove(path)
}

func (f *faultFS) MkdirAll(path string) error {
	if f.mkdirErr != nil {
		return f.mkdirErr
	}
	return f.OSFS.MkdirAll(path)
}

func createFaultStore(t *testing.T) (*Store[item], *faultFS) {
	ffs := &faultFS{}
	s := &Store[item]{
		Path:  filepath.Join(t.TempDir(), "items.jsonl"),
		Codec: JSONCodec[item]{},
		FS:    ffs,
	}
	require.NoError(t, OpenStore(s))
	ffs.tmpPath = s.TmpPath()
	return s, ffs
}

func assertNoTemp(t *testing.T, s *Store[item]) {
	_, err := os.Stat(s.TmpPath())
	assert.True(t, os.IsNotExist(err), "temporary file '%s' should not exist", s.TmpPath())
}

func byID(id int) func(item) bool {
	return func(it item) bool { return it.ID == id }
}

func TestReplaceAll(t *testing.T) {
	s := createStore(t)
	require.NoError(t, s.Append(item{ID: 1}, item{ID: 2}, item{ID: 3}))
	size, err := s.SizeOnDisk()
	require.NoError(t, err)
	assert.Equal(t, int64(27), size)

	n, err := s.ReplaceAll(byID(2), item{ID: 9, Name: "nine"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "{\"id\":1}\n{\"id\":9,\"name\":\"nine\"}\n{\"id\":3}\n", readFile(t, s.Path))
	assertNoTemp(t, s)

	n, err = s.ReplaceAll(func(it item) bool { return it.ID != 9 }, item{ID: 0})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	all, err := s.GetAll(true)
	require.NoError(t, err)
	assert.Equal(t, []item{{ID: 0}, {ID: 9, Name: "nine"}, {ID: 0}}, all)
}

func TestDeleteWhere(t *testing.T) {
	s := createStore(t)
	require.NoError(t, s.Append(item{ID: 1}, item{ID: 2}, item{ID: 3}))

	n, err := s.DeleteWhere(byID(2))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "{\"id\":1}\n{\"id\":3}\n", readFile(t, s.Path))
	size, err := s.SizeOnDisk()
	require.NoError(t, err)
	assert.Equal(t, int64(18), size)
	assertNoTemp(t, s)

	n, err = s.DeleteWhere(func(it item) bool { return true })
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	size, err = s.SizeOnDisk()
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)
}

func TestRewriteNoChangeKeepsFile(t *testing.T) {
	s := createStore(t)
	// kept lines are copied verbatim, including formatting the codec wouldn't produce
	content := "{ \"id\": 1 }\r\n\n{\"id\":2,\"name\":\"x\"}\n{\"id\":3}"
	writeFile(t, s.Path, content)
	st1, err := os.Stat(s.Path)
	require.NoError(t, err)

	n, err := s.DeleteWhere(byID(100))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	n, err = s.ReplaceAll(byID(100), item{ID: 5})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	n, err = s.UpdateFunc(func(it item) (item, bool) { return it, false })
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.Equal(t, content, readFile(t, s.Path))
	st2, err := os.Stat(s.Path)
	require.NoError(t, err)
	assert.True(t, os.SameFile(st1, st2), "backing file should not be replaced")
	assertNoTemp(t, s)

	// a real change normalizes line endings but keeps other lines byte for byte
	n, err = s.DeleteWhere(byID(2))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "{ \"id\": 1 }\n{\"id\":3}\n", readFile(t, s.Path))
}

func TestUpdateFunc(t *testing.T) {
	s := createStore(t)
	require.NoError(t, s.Append(genItems(5)...))
	n, err := s.UpdateFunc(func(it item) (item, bool) {
		if it.ID%2 == 1 {
			it.Name = strings.ToUpper(it.Name)
			return it, true
		}
		return it, false
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	all, err := s.GetAll(true)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "ITEM 1", all[0].Name)
	assert.Equal(t, "item 2", all[1].Name)
	assert.Equal(t, "ITEM 5", all[4].Name)
}

func TestRewriteRenameFailureKeepsBackingFile(t *testing.T) {
	s, ffs := createFaultStore(t)
	require.NoError(t, s.Append(item{ID: 1}, item{ID: 2}))
	before := readFile(t, s.Path)

	ffs.renameErr = errInjected
	_, err := s.DeleteWhere(byID(1))
	var serr *SwapError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, errInjected)
	assert.Equal(t, s.Path, serr.Path)
	assert.Equal(t, s.TmpPath(), serr.TmpPath)
	assert.Contains(t, serr.Error(), s.TmpPath())

	// rename over the backing file never touched it
	assert.Equal(t, before, readFile(t, s.Path))
	assert.Equal(t, "{\"id\":2}\n", readFile(t, s.TmpPath()))

	ffs.renameErr = nil
	n, err := s.DeleteWhere(byID(1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "{\"id\":2}\n", readFile(t, s.Path))
	assertNoTemp(t, s)
}

func TestRewriteWriteFailureRemovesTemp(t *testing.T) {
	s, ffs := createFaultStore(t)
	require.NoError(t, s.Append(item{ID: 1}, item{ID: 2}))
	before := readFile(t, s.Path)

	ffs.writeErr = errInjected
	_, err := s.ReplaceAll(byID(1), item{ID: 3})
	assert.ErrorIs(t, err, errInjected)
	assert.Equal(t, before, readFile(t, s.Path))
	assertNoTemp(t, s)

	_, err = s.ReplaceFrom(strings.NewReader("{\"id\":7}\n"))
	assert.ErrorIs(t, err, errInjected)
	assert.Equal(t, before, readFile(t, s.Path))
	assertNoTemp(t, s)
}

// simulates a crash right after rename: the file must be in the post state
// and the queue must keep working
func TestRewriteCrashAfterRename(t *testing.T) {
	s, ffs := createFaultStore(t)
	require.NoError(t, s.Append(item{ID: 1}, item{ID: 2}))
	ffs.afterRename = func() { panic("simulated crash") }

	func() {
		defer func() {
			assert.NotNil(t, recover())
		}()
		_, _ = s.DeleteWhere(byID(1))
	}()
	assert.Equal(t, "{\"id\":2}\n", readFile(t, s.Path))
	assertNoTemp(t, s)

	ffs.afterRename = nil
	require.NoError(t, s.Append(item{ID: 3}))
	all, err := s.GetAll(true)
	require.NoError(t, err)
	assert.Equal(t, []item{{ID: 2}, {ID: 3}}, all)
}

func TestRemoveBeforeRenameRecover(t *testing.T) {
	s, ffs := createFaultStore(t)
	s.RemoveBeforeRename = true
	require.NoError(t, s.Append(item{ID: 1}, item{ID: 2}, item{ID: 3}))

	n, err := s.DeleteWhere(byID(3))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "{\"id\":1}\n{\"id\":2}\n", readFile(t, s.Path))

	ffs.renameErr = errInjected
	_, err = s.DeleteWhere(byID(1))
	var serr *SwapError
	require.ErrorAs(t, err, &serr)
	// backing file was removed, data only in the temporary file
	_, err = os.Stat(s.Path)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, "{\"id\":2}\n", readFile(t, s.TmpPath()))

	ffs.renameErr = nil
	recovered, err := s.RecoverTemp()
	require.NoError(t, err)
	assert.True(t, recovered)
	assert.Equal(t, "{\"id\":2}\n", readFile(t, s.Path))
	assertNoTemp(t, s)

	// nothing to recover
	recovered, err = s.RecoverTemp()
	require.NoError(t, err)
	assert.False(t, recovered)
}

func TestRemoveBeforeRenameRemoveFailureIsTolerated(t *testing.T) {
	s, ffs := createFaultStore(t)
	s.RemoveBeforeRename = true
	require.NoError(t, s.Append(item{ID: 1}, item{ID: 2}))

	ffs.removeErr = errInjected
	n, err := s.DeleteWhere(byID(1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "{\"id\":2}\n", readFile(t, s.Path))
}

func TestRecoverTempKeepsExistingBackingFile(t *testing.T) {
	s := createStore(t)
	require.NoError(t, s.Append(item{ID: 1}))
	// a stale temp from a rewrite that crashed before rename
	writeFile(t, s.TmpPath(), "{\"id\":5}\n")

	recovered, err := s.RecoverTemp()
	require.NoError(t, err)
	assert.False(t, recovered)
	assert.Equal(t, "{\"id\":1}\n", readFile(t, s.Path))

	// next rewrite truncates it
	n, err := s.ReplaceAll(byID(1), item{ID: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "{\"id\":2}\n", readFile(t, s.Path))
	assertNoTemp(t, s)
}

func TestCopyToReplaceFrom(t *testing.T) {
	s := createStore(t)
	var buf bytes.Buffer
	n, err := s.CopyTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	require.NoError(t, s.Append(genItems(3)...))
	n, err = s.CopyTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, readFile(t, s.Path), buf.String())

	s2 := createStore(t)
	require.NoError(t, s2.Append(item{ID: 100}))
	nRecs, err := s2.ReplaceFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, 3, nRecs)
	assert.Equal(t, readFile(t, s.Path), readFile(t, s2.Path))
	assertNoTemp(t, s2)

	// blank lines are dropped, missing final newline is added
	nRecs, err = s2.ReplaceFrom(strings.NewReader("\n{\"id\":1}\r\n\n{\"id\":2}"))
	require.NoError(t, err)
	assert.Equal(t, 2, nRecs)
	assert.Equal(t, "{\"id\":1}\n{\"id\":2}\n", readFile(t, s2.Path))
}

func TestReplaceFromInvalidInput(t *testing.T) {
	s := createStore(t)
	require.NoError(t, s.Append(item{ID: 1}))

	_, err := s.ReplaceFrom(strings.NewReader("{\"id\":2}\nnope\n"))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Line)
	assert.Equal(t, "{\"id\":1}\n", readFile(t, s.Path))
	assertNoTemp(t, s)
}
