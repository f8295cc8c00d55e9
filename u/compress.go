package u

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// compression is picked based on file extension
const (
	ExtGzip   = ".gz"
	ExtZstd   = ".zst"
	ExtBrotli = ".br"
)

func compressionExt(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".zstd" {
		return ExtZstd
	}
	return ext
}

// IsCompressedPath returns true if path has an extension of compression we support
func IsCompressedPath(path string) bool {
	switch compressionExt(path) {
	case ExtGzip, ExtZstd, ExtBrotli:
		return true
	}
	return false
}

// implement io.ReadCloser over a file wrapped with io.Reader.
// Close() closes the decompressor (if it needs closing) and the file
type readerWrappedFile struct {
	f       io.Closer
	r       io.Reader
	closeFn func()
}

func (rc *readerWrappedFile) Close() error {
	if rc.closeFn != nil {
		rc.closeFn()
	}
	return rc.f.Close()
}

func (rc *readerWrappedFile) Read(p []byte) (int, error) {
	return rc.r.Read(p)
}

// NewDecompressReader wraps f with a decompressor based on extension of path
func NewDecompressReader(f io.ReadCloser, path string) (io.ReadCloser, error) {
	switch compressionExt(path) {
	case ExtGzip:
		r, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &readerWrappedFile{f: f, r: r}, nil
	case ExtZstd:
		r, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &readerWrappedFile{f: f, r: r, closeFn: r.Close}, nil
	case ExtBrotli:
		return &readerWrappedFile{f: f, r: brotli.NewReader(f)}, nil
	}
	return f, nil
}

// OpenFileMaybeCompressed opens a file that might be compressed with gzip,
// zstd or brotli, based on file extension
func OpenFileMaybeCompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewDecompressReader(f, path)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// NewCompressWriter returns a writer that compresses to w based on
// extension of path. Close() flushes the compressor but doesn't close w.
// For paths without known compression extension data is written as is.
func NewCompressWriter(w io.Writer, path string) (io.WriteCloser, error) {
	switch compressionExt(path) {
	case ExtGzip:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case ExtZstd:
		// in my tests zstd.SpeedBestCompression is much slower and not much better
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case ExtBrotli:
		return brotli.NewWriterLevel(w, brotli.DefaultCompression), nil
	case ".bz2":
		return nil, fmt.Errorf("bzip2 compression is not supported for writing")
	}
	return nopWriteCloser{w}, nil
}
