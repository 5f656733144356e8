package odtemplate

import (
	"archive/zip"
	"bytes"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/flate"
)

// source is an opened template archive. Entries are enumerated up front so the
// entry count is known before anything is written.
type source struct {
	path      string
	zr        *zip.Reader
	closer    io.Closer
	closeOnce sync.Once
}

func openFile(path string) (*source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat template file: %w", err)
	}
	zr, err := zip.NewReader(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	return &source{path: path, zr: zr, closer: f}, nil
}

func openBytes(path string, data []byte) (*source, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	return &source{path: path, zr: zr}, nil
}

func (s *source) entries() []*zip.File {
	return s.zr.File
}

func (s *source) find(name string) *zip.File {
	for _, f := range s.zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (s *source) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.closer != nil {
			err = s.closer.Close()
		}
	})
	return err
}

// appender serializes every write into the output archive.
type appender struct {
	mu sync.Mutex
	zw *zip.Writer
	cw *countingWriter
}

func newAppender(w io.Writer, level int) *appender {
	cw := &countingWriter{w: w}
	zw := zip.NewWriter(cw)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
	return &appender{zw: zw, cw: cw}
}

// copyRaw writes f with its header and compressed bytes unchanged.
func (a *appender) copyRaw(f *zip.File) error {
	raw, err := f.OpenRaw()
	if err != nil {
		return &SourceReadError{Path: f.Name, Cause: err}
	}
	header := f.FileHeader

	a.mu.Lock()
	defer a.mu.Unlock()

	w, err := a.zw.CreateRaw(&header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, raw)
	return err
}

// store writes f without compression and without a data descriptor.
func (a *appender) store(f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return &SourceReadError{Path: f.Name, Cause: err}
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return &SourceReadError{Path: f.Name, Cause: err}
	}

	header := &zip.FileHeader{
		Name:               f.Name,
		Comment:            f.Comment,
		Method:             zip.Store,
		Modified:           f.Modified,
		ModifiedTime:       f.ModifiedTime,
		ModifiedDate:       f.ModifiedDate,
		CRC32:              crc32.ChecksumIEEE(data),
		CompressedSize64:   uint64(len(data)),
		UncompressedSize64: uint64(len(data)),
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	w, err := a.zw.CreateRaw(header)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// deflate writes data under name with deflate compression.
func (a *appender) deflate(name string, like *zip.File, data []byte) error {
	header := &zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	}
	if like != nil {
		header.Modified = like.Modified
		header.Comment = like.Comment
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	w, err := a.zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// close writes the central directory and returns the archive size.
func (a *appender) close() (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.zw.Close(); err != nil {
		return 0, err
	}
	return a.cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
