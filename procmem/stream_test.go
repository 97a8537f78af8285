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
	"os"
	"sync"
	"testing"

	"github.com/gostrings/gostrings/ints"
)

// TestOpenSelf exercises the whole enumerate/sort/offset-assign path
// against the running test binary's own address space.
func TestOpenSelf(t *testing.T) {
	s, err := Open(os.Getpid(), FlagAll)
	if err != nil {
		t.Fatalf("Open(self): %v", err)
	}
	defer s.Close()

	if len(s.regions) == 0 {
		t.Fatal("expected at least one retained region for the current process")
	}
	if s.regions[0].LogicalOffset != 0 {
		t.Fatalf("first region LogicalOffset = %d, want 0", s.regions[0].LogicalOffset)
	}

	var sum uint64
	for i, r := range s.regions {
		if r.LogicalOffset != sum {
			t.Fatalf("region %d LogicalOffset = %d, want %d", i, r.LogicalOffset, sum)
		}
		sum += r.Size
	}
	if sum != s.Len() {
		t.Fatalf("sum of region sizes = %d, want Len() = %d", sum, s.Len())
	}
}

func TestInfoIsLeftInverse(t *testing.T) {
	s, err := Open(os.Getpid(), FlagAll)
	if err != nil {
		t.Fatalf("Open(self): %v", err)
	}
	defer s.Close()

	// relative_offset_info must be a left-inverse of the region mapping.
	for _, o := range []uint64{0, s.Len() / 2} {
		if s.Len() == 0 {
			break
		}
		info, err := s.Info(o)
		if err != nil {
			t.Fatalf("Info(%d): %v", o, err)
		}
		idx, ok := s.regionAt(o)
		if !ok {
			t.Fatalf("regionAt(%d) reported not-found for an in-range offset", o)
		}
		r := s.regions[idx]
		want := r.BaseVA + (o - r.LogicalOffset)
		if info.RelativeVA != want {
			t.Fatalf("Info(%d).RelativeVA = %#x, want %#x", o, info.RelativeVA, want)
		}
		if info.RegionType != r.Type {
			t.Fatalf("Info(%d).RegionType = %v, want %v", o, info.RegionType, r.Type)
		}
	}
}

func TestSeekOutOfRange(t *testing.T) {
	s, err := Open(os.Getpid(), FlagAll)
	if err != nil {
		t.Fatalf("Open(self): %v", err)
	}
	defer s.Close()

	if err := s.Seek(s.Len() + 1); err == nil {
		t.Fatal("expected an error seeking past Len()")
	}
}

// TestRetainedRegionsDoNotOverlap guards the invariant regionAt's
// binary search depends on: after sorting, no two retained regions'
// virtual-address ranges may overlap.
func TestRetainedRegionsDoNotOverlap(t *testing.T) {
	s, err := Open(os.Getpid(), FlagAll)
	if err != nil {
		t.Fatalf("Open(self): %v", err)
	}
	defer s.Close()

	var seen ints.Intervals
	for i, r := range s.regions {
		iv := ints.Interval{Start: int(r.BaseVA), End: int(r.BaseVA + r.Size)}
		if seen.Overlaps(iv.Start, iv.End) {
			t.Fatalf("region %d [%#x,%#x) overlaps an earlier retained region", i, r.BaseVA, r.BaseVA+r.Size)
		}
		seen = append(seen, iv)
	}
}

// TestConcurrentInfoIsRaceFree mirrors the orchestrator's parallel
// per-decoder fan-out, where multiple goroutines resolve found runs
// through the same ProcessStream's Info at once. Run with -race to
// confirm regionAt's last-region cache is properly guarded.
func TestConcurrentInfoIsRaceFree(t *testing.T) {
	s, err := Open(os.Getpid(), FlagAll)
	if err != nil {
		t.Fatalf("Open(self): %v", err)
	}
	defer s.Close()
	if s.Len() == 0 {
		t.Skip("no retained regions to probe")
	}

	offsets := []uint64{0, s.Len() / 4, s.Len() / 2, s.Len() - 1}
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 64; i++ {
				o := offsets[(g+i)%len(offsets)]
				if _, err := s.Info(o); err != nil {
					t.Errorf("Info(%d): %v", o, err)
					return
				}
			}
		}(g)
	}
	wg.Wait()
}

func TestReadCrossesRegionBoundaries(t *testing.T) {
	s, err := Open(os.Getpid(), FlagAll)
	if err != nil {
		t.Fatalf("Open(self): %v", err)
	}
	defer s.Close()
	if len(s.regions) < 2 {
		t.Skip("need at least two retained regions to exercise a boundary crossing")
	}

	r0 := s.regions[0]
	if err := s.Seek(r0.LogicalOffset + r0.Size - 4); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 8)
	n, err := s.Read(buf)
	if err != nil {
		t.Fatalf("Read across boundary: %v", err)
	}
	if n == 0 {
		t.Fatal("expected at least some bytes reading across a region boundary")
	}
}
