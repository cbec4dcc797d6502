package domain

import "fmt"

// MediaRef is the absolute path of the active video file. Empty means none.
type MediaRef string

func (m MediaRef) Empty() bool {
	return m == ""
}

// ByteRange is an inclusive span of a file's bytes.
type ByteRange struct {
	Start int64
	End   int64
	Size  int64
}

func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

func (r ByteRange) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, r.Size)
}
