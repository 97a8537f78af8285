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
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gostrings/gostrings/scanresult"
)

// rawRegion is one parsed line of /proc/<pid>/maps before type
// classification.
type rawRegion struct {
	lo, hi uint64
	perms  string
	path   string
}

func parseMapsLine(line string) (rawRegion, bool) {
	// "7f2e3b400000-7f2e3b421000 r--p 00000000 08:01 123456 /path"
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return rawRegion{}, false
	}
	addrs := strings.SplitN(fields[0], "-", 2)
	if len(addrs) != 2 {
		return rawRegion{}, false
	}
	lo, err := strconv.ParseUint(addrs[0], 16, 64)
	if err != nil {
		return rawRegion{}, false
	}
	hi, err := strconv.ParseUint(addrs[1], 16, 64)
	if err != nil {
		return rawRegion{}, false
	}
	path := ""
	if len(fields) >= 6 {
		path = strings.Join(fields[5:], " ")
	}
	return rawRegion{lo: lo, hi: hi, perms: fields[1], path: path}, true
}

// classify maps one rawRegion to a MemoryRegionType + detail string.
// This is a heuristic mapping from Linux's /proc/<pid>/maps pathname
// conventions onto the Windows-shaped MemoryRegionType enum this
// package shares with scanresult. The only values it produces are
// NtHeap, Stack, Shareable, PrivateData, Image and MappedFile.
func classify(r rawRegion, exePath string) (scanresult.MemoryRegionType, string) {
	switch {
	case r.path == "[heap]":
		return scanresult.NtHeap, "brk-heap"
	case r.path == "[stack]":
		return scanresult.Stack, "main"
	case strings.HasPrefix(r.path, "[stack:"):
		tid := strings.TrimSuffix(strings.TrimPrefix(r.path, "[stack:"), "]")
		return scanresult.Stack, tid
	case r.path == "[vdso]", r.path == "[vvar]", r.path == "[vsyscall]":
		return scanresult.Shareable, r.path
	case r.path == "":
		return scanresult.PrivateData, ""
	case exePath != "" && r.path == exePath:
		return scanresult.Image, r.path
	case strings.Contains(r.perms, "s"):
		return scanresult.Shareable, r.path
	case strings.HasPrefix(r.path, "/"):
		return scanresult.MappedFile, r.path
	default:
		return scanresult.PrivateData, r.path
	}
}

// enumerateRegions reads /proc/<pid>/maps and returns every region
// whose type survives flags, unsorted and without logical offsets
// assigned (the caller sorts and assigns those).
func enumerateRegions(pid int, flags ReadMemoryFlags) ([]MemoryRegion, error) {
	exePath, _ := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid))

	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, fmt.Errorf("procmem: open maps for pid %d: %w", pid, err)
	}
	defer f.Close()

	var out []MemoryRegion
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		raw, ok := parseMapsLine(sc.Text())
		if !ok || raw.hi <= raw.lo {
			continue
		}
		t, detail := classify(raw, exePath)
		if !retained(t, flags) {
			continue
		}
		out = append(out, MemoryRegion{
			BaseVA: raw.lo,
			Size:   raw.hi - raw.lo,
			Type:   t,
			Detail: detail,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("procmem: scan maps for pid %d: %w", pid, err)
	}
	return out, nil
}

func imageName(pid int) string {
	exePath, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid))
	if err != nil {
		return ""
	}
	return exePath
}
