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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gostrings/gostrings/procmem"
	"github.com/gostrings/gostrings/scan"
)

const sampleYAML = `
quick-ascii:
  min_length: 4
  encoding: ["ascii"]
  buffer_size: 65536
  sync: true
deep-unicode-scan:
  min_length: 3
  encoding: ["utf8", "unicode"]
  unicode_blocks: ["All"]
heap-only:
  memory_regions: ["heap"]
  filter_kind: wildcard
  filter_pattern: "*secret*"
  ignore_case: true
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "profiles.yaml")
	if err := os.WriteFile(p, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadAndDecodeConfig(t *testing.T) {
	set, err := Load(writeSample(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(set) != 3 {
		t.Fatalf("got %d profiles, want 3", len(set))
	}

	quick := set["quick-ascii"]
	cfg, err := quick.DecodeConfig()
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.MinLength != 4 {
		t.Fatalf("MinLength = %d, want 4", cfg.MinLength)
	}
	encs, err := quick.EncodingFlags()
	if err != nil {
		t.Fatalf("EncodingFlags: %v", err)
	}
	if encs != scan.EncodingASCII {
		t.Fatalf("EncodingFlags = %v, want ASCII", encs)
	}
}

func TestDeepUnicodeScanAllBlocks(t *testing.T) {
	set, err := Load(writeSample(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	deep := set["deep-unicode-scan"]
	cfg, err := deep.DecodeConfig()
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Blocks.Empty() {
		t.Fatal("expected a non-empty block set for unicode_blocks: [All]")
	}
	encs, err := deep.EncodingFlags()
	if err != nil {
		t.Fatalf("EncodingFlags: %v", err)
	}
	if encs != scan.EncodingUTF8|scan.EncodingUnicode {
		t.Fatalf("EncodingFlags = %v, want UTF8|Unicode", encs)
	}
}

func TestHeapOnlyMemoryFlagsAndFilter(t *testing.T) {
	set, err := Load(writeSample(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	heap := set["heap-only"]
	flags, err := heap.MemoryFlags()
	if err != nil {
		t.Fatalf("MemoryFlags: %v", err)
	}
	if flags != procmem.FlagHeap {
		t.Fatalf("MemoryFlags = %v, want FlagHeap", flags)
	}
	f, err := heap.Filter()
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if !f.IsMatch("shh this is a Secret value") {
		t.Fatal("expected case-insensitive wildcard match")
	}
	if f.IsMatch("nothing interesting here") {
		t.Fatal("unexpected match")
	}
}

func TestEmptyProfileDefaults(t *testing.T) {
	var p Profile
	flags, err := p.MemoryFlags()
	if err != nil {
		t.Fatalf("MemoryFlags: %v", err)
	}
	if flags != procmem.FlagAll {
		t.Fatalf("MemoryFlags = %v, want FlagAll for an empty profile", flags)
	}
	f, err := p.Filter()
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if !f.IsMatch("anything at all") {
		t.Fatal("empty profile's filter should match everything")
	}
}

func TestUnknownEncodingErrors(t *testing.T) {
	p := Profile{Encoding: []string{"ebcdic"}}
	if _, err := p.EncodingFlags(); err == nil {
		t.Fatal("expected an error for an unknown encoding name")
	}
}
