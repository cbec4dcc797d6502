package streaming

import (
	"errors"
	"testing"

	"nssplayer/internal/domain"
)

func TestParseRangeStart(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		want   int64
		wantOK bool
	}{
		{"open ended", "bytes=0-", 0, true},
		{"offset", "bytes=2400000-", 2400000, true},
		{"end ignored", "bytes=100-200", 100, true},
		{"suffix range uses digits", "bytes=-500", 500, true},
		{"multi range uses first", "bytes=10-20,30-40", 10, true},
		{"no digits", "bytes=", 0, true},
		{"garbage", "whatever", 0, true},
		{"overflow", "bytes=99999999999999999999999-", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := parseRangeStart(tc.value)
			if ok != tc.wantOK {
				t.Fatalf("parseRangeStart(%q) ok = %v, want %v", tc.value, ok, tc.wantOK)
			}
			if got != tc.want {
				t.Fatalf("parseRangeStart(%q) = %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}

func TestChunkRange(t *testing.T) {
	tests := []struct {
		name    string
		start   int64
		size    int64
		want    domain.ByteRange
		wantErr error
	}{
		{
			name:  "first chunk",
			start: 0, size: 2_500_000,
			want: domain.ByteRange{Start: 0, End: 999_999, Size: 2_500_000},
		},
		{
			name:  "tail chunk",
			start: 2_400_000, size: 2_500_000,
			want: domain.ByteRange{Start: 2_400_000, End: 2_499_999, Size: 2_500_000},
		},
		{
			name:  "small file",
			start: 0, size: 10,
			want: domain.ByteRange{Start: 0, End: 9, Size: 10},
		},
		{
			name:  "last byte",
			start: 9, size: 10,
			want: domain.ByteRange{Start: 9, End: 9, Size: 10},
		},
		{name: "at eof", start: 10, size: 10, wantErr: domain.ErrRangeNotSatisfiable},
		{name: "empty file", start: 0, size: 0, wantErr: domain.ErrRangeNotSatisfiable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := chunkRange(tc.start, tc.size, ChunkSize)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("chunkRange = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestChunkRangeProperty(t *testing.T) {
	const size = int64(3_141_592)
	for start := int64(0); start < size; start += 77_777 {
		r, err := chunkRange(start, size, ChunkSize)
		if err != nil {
			t.Fatalf("start %d: %v", start, err)
		}
		wantEnd := start + 999_999
		if wantEnd > size-1 {
			wantEnd = size - 1
		}
		if r.End != wantEnd {
			t.Fatalf("start %d: end = %d, want %d", start, r.End, wantEnd)
		}
	}
}

func TestRequestStart(t *testing.T) {
	if _, err := requestStart(""); !errors.Is(err, domain.ErrRangeRequired) {
		t.Fatalf("empty header: got %v", err)
	}
	if _, err := requestStart("bytes=99999999999999999999999-"); !errors.Is(err, domain.ErrRangeNotSatisfiable) {
		t.Fatalf("overflow: got %v", err)
	}
	start, err := requestStart("bytes=2400000-")
	if err != nil || start != 2400000 {
		t.Fatalf("got %d, %v", start, err)
	}
}
