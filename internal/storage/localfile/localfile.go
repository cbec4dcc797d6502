// Package localfile opens user-selected media files for byte-range reads.
package localfile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"nssplayer/internal/domain"
	"nssplayer/internal/domain/ports"
)

// Source opens files from the local filesystem. Every call returns a fresh
// handle; nothing is cached between requests.
type Source struct{}

func NewSource() *Source {
	return &Source{}
}

func (s *Source) Open(path string) (ports.MediaFile, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &File{f: f, size: info.Size(), name: filepath.Base(path)}, nil
}

// File is an open media file with a size fixed at open time.
type File struct {
	f    *os.File
	size int64
	name string
}

func (f *File) ReadAt(p []byte, off int64) (int, error) {
	return f.f.ReadAt(p, off)
}

func (f *File) Close() error {
	return f.f.Close()
}

func (f *File) Size() int64 {
	return f.size
}

func (f *File) Name() string {
	return f.name
}

// RangeReader returns a reader over exactly the bytes of r.
func RangeReader(src io.ReaderAt, r domain.ByteRange) io.Reader {
	return io.NewSectionReader(src, r.Start, r.Length())
}
