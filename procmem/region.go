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

// Package procmem implements ProcessStream: a ByteSource over a
// process's filtered, committed virtual-memory regions, presented as
// one contiguous logical address space.
package procmem

import "github.com/gostrings/gostrings/scanresult"

// MemoryRegion describes one retained, committed region of a process's
// address space after enumeration and filtering.
type MemoryRegion struct {
	BaseVA        uint64
	Size          uint64
	Type          scanresult.MemoryRegionType
	Detail        string
	LogicalOffset uint64
}

// ReadMemoryFlags is a bitset selecting which MemoryRegionTypes to
// retain.
type ReadMemoryFlags uint32

const (
	FlagStack ReadMemoryFlags = 1 << iota
	FlagHeap
	FlagPrivateOther
	FlagMappedFile
	FlagShareable
	FlagImage
)

const (
	// FlagPrivate retains stacks, heaps, and any other private
	// (anonymous, non-shared) region.
	FlagPrivate = FlagStack | FlagHeap | FlagPrivateOther
	// FlagMapped retains both file-backed and shared-memory mappings.
	FlagMapped = FlagMappedFile | FlagShareable
	// FlagAll retains every region type the enumerator can produce.
	FlagAll = FlagStack | FlagHeap | FlagPrivateOther | FlagMappedFile | FlagShareable | FlagImage
)

var heapTypes = map[scanresult.MemoryRegionType]bool{
	scanresult.NtHeap:             true,
	scanresult.NtLfhHeap:          true,
	scanresult.SegmentHeap:        true,
	scanresult.NtHeapSegment:      true,
	scanresult.NtLfhSegment:       true,
	scanresult.SegmentHeapSegment: true,
}

// retained reports whether a region of type t should be kept under
// flags.
func retained(t scanresult.MemoryRegionType, flags ReadMemoryFlags) bool {
	switch t {
	case scanresult.Stack:
		return flags&FlagStack != 0
	case scanresult.PrivateData:
		return flags&FlagPrivateOther != 0
	case scanresult.MappedFile:
		return flags&FlagMappedFile != 0
	case scanresult.Shareable:
		return flags&FlagShareable != 0
	case scanresult.Image:
		return flags&FlagImage != 0
	default:
		if heapTypes[t] {
			return flags&FlagHeap != 0
		}
		// Every other MemoryRegionType (Teb, Peb, UserSharedData, ...)
		// is a Windows-only category this Linux-backed enumerator never
		// produces.
		return false
	}
}
