// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package testutil holds the small fixtures shared by more than one
// package's tests: an in-memory bytesource.ByteSource and a
// concurrency-safe scanresult.Sink that just appends everything it
// sees, the way utf8/length_test.go and the fsutil tests build their
// own minimal fixtures rather than reaching for a library.
package testutil

import (
	"errors"
	"sync"

	"github.com/gostrings/gostrings/scanresult"
)

// ErrSeekOutOfRange is returned by MemSource.Seek when offset exceeds Len().
var ErrSeekOutOfRange = errors.New("testutil: seek offset out of range")

// MemSource is a bytesource.ByteSource over an in-memory byte slice.
type MemSource struct {
	data []byte
	pos  uint64
}

// NewMemSource wraps data as a MemSource positioned at offset 0.
func NewMemSource(data []byte) *MemSource {
	return &MemSource{data: data}
}

func (m *MemSource) Len() uint64      { return uint64(len(m.data)) }
func (m *MemSource) Position() uint64 { return m.pos }

func (m *MemSource) Seek(offset uint64) error {
	if offset > uint64(len(m.data)) {
		return ErrSeekOutOfRange
	}
	m.pos = offset
	return nil
}

func (m *MemSource) Read(buf []byte) (int, error) {
	if m.pos >= uint64(len(m.data)) {
		return 0, nil
	}
	n := copy(buf, m.data[m.pos:])
	m.pos += uint64(n)
	return n, nil
}

func (m *MemSource) Close() error { return nil }

// CollectingSink returns a scanresult.Sink that appends every Result it
// is given, and a snapshot function returning a copy of what has been
// collected so far. Safe for concurrent Emit calls.
func CollectingSink() (scanresult.SinkFunc, func() []scanresult.Result) {
	var mu sync.Mutex
	var results []scanresult.Result
	emit := func(r scanresult.Result) error {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
		return nil
	}
	snapshot := func() []scanresult.Result {
		mu.Lock()
		defer mu.Unlock()
		out := make([]scanresult.Result, len(results))
		copy(out, results)
		return out
	}
	return emit, snapshot
}

// MakeFileResult is the MakeResultFunc shape tests pass to
// scan.Request when they don't care about anything beyond a fixed
// source path.
func MakeFileResult(path string) func(enc scanresult.EncodingTag, offsetStart, offsetEnd uint64, s string) scanresult.Result {
	return func(enc scanresult.EncodingTag, offsetStart, offsetEnd uint64, s string) scanresult.Result {
		return scanresult.Result{
			Encoding:    enc,
			OffsetStart: offsetStart,
			OffsetEnd:   offsetEnd,
			String:      s,
			File:        &scanresult.FileResult{Path: path},
		}
	}
}
