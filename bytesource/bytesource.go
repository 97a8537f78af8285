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

// Package bytesource defines the seekable byte-stream abstraction the
// scan orchestrator reads from, and FileSource, the flat-file
// implementation of it. procmem.ProcessStream is the other
// implementation, unifying a process's disjoint memory regions into
// the same logical address space.
package bytesource

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ByteSource is a seekable, sequentially-read byte stream. Offsets are
// always absolute positions in the source's logical address space: for
// a file that is the file offset; for a process source it is the
// logical offset across the concatenated, retained memory regions.
type ByteSource interface {
	// Len returns the total length of the source in bytes.
	Len() uint64
	// Position returns the current logical read position.
	Position() uint64
	// Seek moves the read position to offset. offset must be <= Len().
	Seek(offset uint64) error
	// Read fills buf with the next bytes from the source and returns
	// how many were read. Returning 0 with a nil error signals
	// end-of-stream. A process source skips unreadable regions inside
	// Read (see procmem), so it too returns 0 only at the end.
	Read(buf []byte) (int, error)
	// Close releases any OS resource backing the source.
	Close() error
}

// ErrSeekOutOfRange is returned by Seek when offset exceeds Len().
var ErrSeekOutOfRange = errors.New("bytesource: seek offset out of range")

// FileSource is a ByteSource backed by a regular, seekable file.
type FileSource struct {
	f   *os.File
	len uint64
	pos uint64
}

// Open opens path for reading and returns a FileSource over its
// current contents. The file's length is snapshotted at open time.
func Open(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("bytesource: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("bytesource: stat %s: %w", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("bytesource: %s is a directory", path)
	}
	return &FileSource{f: f, len: uint64(info.Size())}, nil
}

// Len implements ByteSource.
func (s *FileSource) Len() uint64 { return s.len }

// Position implements ByteSource.
func (s *FileSource) Position() uint64 { return s.pos }

// Seek implements ByteSource.
func (s *FileSource) Seek(offset uint64) error {
	if offset > s.len {
		return ErrSeekOutOfRange
	}
	if _, err := s.f.Seek(int64(offset), io.SeekStart); err != nil {
		return fmt.Errorf("bytesource: seek: %w", err)
	}
	s.pos = offset
	return nil
}

// Read implements ByteSource.
func (s *FileSource) Read(buf []byte) (int, error) {
	n, err := s.f.Read(buf)
	s.pos += uint64(n)
	if errors.Is(err, io.EOF) {
		return n, nil
	}
	if err != nil {
		return n, fmt.Errorf("bytesource: read: %w", err)
	}
	return n, nil
}

// Close implements ByteSource.
func (s *FileSource) Close() error {
	return s.f.Close()
}
