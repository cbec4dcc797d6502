package streaming

import (
	"strconv"

	"nssplayer/internal/domain"
)

// ChunkSize is the number of bytes served per byte-range response. The
// client's requested end offset is ignored: every response carries at most
// ChunkSize bytes starting at the requested offset.
const ChunkSize int64 = 1_000_000

// parseRangeStart returns the first contiguous run of digits in a Range
// header value. "bytes=100-200" yields 100, "bytes=-500" yields 500 and a
// value without digits yields 0. ok is false only when the digits overflow.
func parseRangeStart(value string) (start int64, ok bool) {
	i := 0
	for i < len(value) && !isDigit(value[i]) {
		i++
	}
	if i == len(value) {
		return 0, true
	}
	j := i
	for j < len(value) && isDigit(value[j]) {
		j++
	}
	n, err := strconv.ParseInt(value[i:j], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// requestStart reads the start offset from a Range header value. An empty
// value is ErrRangeRequired, digit overflow is ErrRangeNotSatisfiable.
func requestStart(header string) (int64, error) {
	if header == "" {
		return 0, domain.ErrRangeRequired
	}
	start, ok := parseRangeStart(header)
	if !ok {
		return 0, domain.ErrRangeNotSatisfiable
	}
	return start, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// chunkRange computes the served span for a request starting at start over a
// file of size bytes. end = min(start+chunk-1, size-1).
func chunkRange(start, size, chunk int64) (domain.ByteRange, error) {
	if chunk <= 0 {
		chunk = ChunkSize
	}
	if start < 0 || start >= size {
		return domain.ByteRange{}, domain.ErrRangeNotSatisfiable
	}
	end := start + chunk - 1
	if end > size-1 {
		end = size - 1
	}
	return domain.ByteRange{Start: start, End: end, Size: size}, nil
}
