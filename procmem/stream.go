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

//go:build linux

package procmem

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dchest/siphash"
	"golang.org/x/exp/slices"

	"github.com/gostrings/gostrings/bytesource"
	"github.com/gostrings/gostrings/scanresult"
)

// ErrSeekOutOfRange is returned by Seek when offset exceeds Len().
var ErrSeekOutOfRange = errors.New("procmem: seek offset out of range")

// cacheKeySeed is a fixed key for the SipHash-2-4 fingerprint taken of
// the currently cached region; it only needs to be stable within one
// process run, not secret.
const cacheKeySeed0, cacheKeySeed1 = 0x70726f636d656d31, 0x70726f636d656d32

// ProcessStreamOffsetInfo is the result of ProcessStream.Info: enough
// to build a scanresult.ProcessResult for a run found at a given
// logical offset.
type ProcessStreamOffsetInfo struct {
	PID        uint32
	ImageName  string
	RegionType scanresult.MemoryRegionType
	RegionBase uint64
	RegionSize uint64
	Detail     string
	RelativeVA uint64
}

// ProcessStream is a bytesource.ByteSource over a process's retained,
// committed memory regions, presented as one contiguous logical
// address space. It owns the process's region snapshot; no process
// handle is held open on Linux (each read reaches the kernel directly
// by pid), so Close is a no-op kept for interface symmetry with
// bytesource.FileSource.
type ProcessStream struct {
	pid       int
	imageName string
	regions   []MemoryRegion
	total     uint64

	pos uint64

	// cacheMu guards cacheIdx/cacheValid/cacheFinger: Info is reachable
	// concurrently from the orchestrator's parallel per-decoder fan-out
	// (each decoder goroutine resolves its own found runs through the
	// same ProcessStream), while regionAt's cache update is otherwise
	// written assuming single-writer sequential access from Read/Seek.
	cacheMu     sync.Mutex
	cacheIdx    int
	cacheValid  bool
	cacheFinger uint64
}

// Open enumerates pid's committed memory regions, retains the ones
// selected by flags, sorts them by base VA, and assigns each a
// logical_offset equal to the running sum of prior region sizes.
func Open(pid int, flags ReadMemoryFlags) (*ProcessStream, error) {
	regions, err := enumerateRegions(pid, flags)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(regions, func(a, b MemoryRegion) bool {
		return a.BaseVA < b.BaseVA
	})

	var total uint64
	for i := range regions {
		regions[i].LogicalOffset = total
		total += regions[i].Size
	}

	return &ProcessStream{
		pid:       pid,
		imageName: imageName(pid),
		regions:   regions,
		total:     total,
	}, nil
}

// Len implements bytesource.ByteSource.
func (s *ProcessStream) Len() uint64 { return s.total }

// Position implements bytesource.ByteSource.
func (s *ProcessStream) Position() uint64 { return s.pos }

// Seek implements bytesource.ByteSource.
func (s *ProcessStream) Seek(offset uint64) error {
	if offset > s.total {
		return ErrSeekOutOfRange
	}
	s.pos = offset
	s.cacheMu.Lock()
	s.cacheValid = false
	s.cacheMu.Unlock()
	return nil
}

// Close implements bytesource.ByteSource.
func (s *ProcessStream) Close() error { return nil }

var _ bytesource.ByteSource = (*ProcessStream)(nil)

// regionFingerprint is a keyed SipHash-2-4 digest of (base, size),
// used only to sanity-check the sequential-access cache when advancing
// across a region boundary: if the fingerprint of the cached region no
// longer matches what Info/Read compute, the cache is stale and a
// fresh binary search is forced.
func regionFingerprint(r MemoryRegion) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], r.BaseVA)
	binary.LittleEndian.PutUint64(buf[8:16], r.Size)
	return siphash.Hash(cacheKeySeed0, cacheKeySeed1, buf[:])
}

// regionAt returns the index of the region containing logical offset
// o. The last region used is cached for O(1) sequential access;
// anything else falls back to a binary search over logical_offset.
func (s *ProcessStream) regionAt(o uint64) (int, bool) {
	if len(s.regions) == 0 {
		return 0, false
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheValid {
		r := s.regions[s.cacheIdx]
		if o >= r.LogicalOffset && o < r.LogicalOffset+r.Size && regionFingerprint(r) == s.cacheFinger {
			return s.cacheIdx, true
		}
	}
	i := sort.Search(len(s.regions), func(i int) bool {
		return s.regions[i].LogicalOffset+s.regions[i].Size > o
	})
	if i == len(s.regions) || o < s.regions[i].LogicalOffset {
		return 0, false
	}
	s.cacheIdx = i
	s.cacheValid = true
	s.cacheFinger = regionFingerprint(s.regions[i])
	return i, true
}

// Read implements bytesource.ByteSource. It may cross region
// boundaries, splitting the request into per-region reads and
// concatenating the results. An unreadable region yields 0 bytes for
// itself; Read advances past it and keeps trying until it produces at
// least one byte or reaches the true logical end, so the 0-is-fatal
// contract observed by file sources still holds for callers: 0 here
// really does mean "nothing left to read, ever" rather than "this one
// region failed".
func (s *ProcessStream) Read(buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		if s.pos >= s.total {
			break
		}
		idx, ok := s.regionAt(s.pos)
		if !ok {
			break
		}
		r := s.regions[idx]
		regionOff := s.pos - r.LogicalOffset
		avail := r.Size - regionOff
		want := uint64(len(buf) - total)
		if want > avail {
			want = avail
		}
		va := r.BaseVA + regionOff
		n, err := readProcessMemory(s.pid, va, buf[total:uint64(total)+want])
		if err != nil {
			return total, fmt.Errorf("procmem: read pid %d at va %#x: %w", s.pid, va, err)
		}
		if n == 0 {
			// Region unreadable now (process memory is volatile):
			// skip to the next region boundary and keep going.
			s.pos = r.LogicalOffset + r.Size
			s.cacheMu.Lock()
			s.cacheValid = false
			s.cacheMu.Unlock()
			continue
		}
		total += n
		s.pos += uint64(n)
		if uint64(n) < want {
			// Partial OS-level read; stop here rather than assume
			// the rest of the region is readable too.
			break
		}
	}
	return total, nil
}

// Info implements the relative_offset_info operation:
// a left-inverse of the region mapping for a given logical offset.
func (s *ProcessStream) Info(logicalOffset uint64) (ProcessStreamOffsetInfo, error) {
	idx, ok := s.regionAt(logicalOffset)
	if !ok {
		return ProcessStreamOffsetInfo{}, fmt.Errorf("procmem: offset %d out of range (len=%d)", logicalOffset, s.total)
	}
	r := s.regions[idx]
	return ProcessStreamOffsetInfo{
		PID:        uint32(s.pid),
		ImageName:  s.imageName,
		RegionType: r.Type,
		RegionBase: r.BaseVA,
		RegionSize: r.Size,
		Detail:     r.Detail,
		RelativeVA: r.BaseVA + (logicalOffset - r.LogicalOffset),
	}, nil
}
