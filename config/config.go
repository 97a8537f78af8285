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

// Package config loads named scan profiles — bundles of DecodeConfig,
// encoding selection, memory-region flags, and filter options — from a
// YAML file, the way a deployment keeps a small library of presets
// ("quick-ascii", "deep-unicode-scan", "heap-only") instead of typing
// the same flags every run.
package config

import (
	"fmt"
	"os"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/gostrings/gostrings/charset"
	"github.com/gostrings/gostrings/decode"
	"github.com/gostrings/gostrings/filter"
	"github.com/gostrings/gostrings/procmem"
	"github.com/gostrings/gostrings/scan"
)

// Profile is one named preset, as it appears under a YAML document's
// top-level profile name.
type Profile struct {
	MinLength      int      `json:"min_length"`
	ExcludeControl bool     `json:"exclude_control"`
	Blocks         []string `json:"unicode_blocks"`
	Encoding       []string `json:"encoding"`
	MemoryRegions  []string `json:"memory_regions"`
	BufferSize     int      `json:"buffer_size"`
	Sync           bool     `json:"sync"`
	FilterKind     string   `json:"filter_kind"`
	FilterPattern  string   `json:"filter_pattern"`
	IgnoreCase     bool     `json:"ignore_case"`
}

// Set maps profile name to Profile, the shape of a whole config file.
type Set map[string]Profile

// Load reads and parses a YAML file of named profiles.
func Load(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return set, nil
}

// DecodeConfig builds a decode.DecodeConfig from p, starting from
// decode.NewDecodeConfig's defaults and overriding only the fields the
// profile sets.
func (p Profile) DecodeConfig() (decode.DecodeConfig, error) {
	cfg := decode.NewDecodeConfig()
	if p.MinLength > 0 {
		cfg.MinLength = p.MinLength
	}
	cfg.ExcludeControl = p.ExcludeControl
	if len(p.Blocks) > 0 {
		var blocks charset.UnicodeBlockSet
		for _, name := range p.Blocks {
			set, ok := charset.ParseBlockSet(name)
			if !ok {
				return decode.DecodeConfig{}, fmt.Errorf("config: unknown unicode block %q", name)
			}
			blocks = blocks.Union(set)
		}
		cfg.Blocks = blocks
	}
	return cfg, nil
}

// EncodingFlags translates p.Encoding's names ("ascii", "utf8",
// "unicode") into scan.EncodingFlag bits. An empty list leaves the
// orchestrator's own default (UTF8|Unicode) in effect.
func (p Profile) EncodingFlags() (scan.EncodingFlag, error) {
	var flags scan.EncodingFlag
	for _, name := range p.Encoding {
		switch strings.ToLower(name) {
		case "ascii":
			flags |= scan.EncodingASCII
		case "utf8", "utf-8":
			flags |= scan.EncodingUTF8
		case "unicode", "utf16", "utf-16":
			flags |= scan.EncodingUnicode
		default:
			return 0, fmt.Errorf("config: unknown encoding %q", name)
		}
	}
	return flags, nil
}

// MemoryFlags translates p.MemoryRegions's names into a
// procmem.ReadMemoryFlags bitset. An empty list means procmem.FlagAll.
func (p Profile) MemoryFlags() (procmem.ReadMemoryFlags, error) {
	if len(p.MemoryRegions) == 0 {
		return procmem.FlagAll, nil
	}
	var flags procmem.ReadMemoryFlags
	for _, name := range p.MemoryRegions {
		switch strings.ToLower(name) {
		case "stack":
			flags |= procmem.FlagStack
		case "heap":
			flags |= procmem.FlagHeap
		case "private":
			flags |= procmem.FlagPrivate
		case "mappedfile", "mapped_file":
			flags |= procmem.FlagMappedFile
		case "shareable":
			flags |= procmem.FlagShareable
		case "mapped":
			flags |= procmem.FlagMapped
		case "image":
			flags |= procmem.FlagImage
		case "all":
			flags |= procmem.FlagAll
		default:
			return 0, fmt.Errorf("config: unknown memory region %q", name)
		}
	}
	return flags, nil
}

// Filter builds the optional regex/wildcard filter p names. It returns
// the zero Filter (matches everything) when FilterPattern is empty.
func (p Profile) Filter() (filter.Filter, error) {
	if p.FilterPattern == "" {
		return filter.Filter{}, nil
	}
	opts := filter.Options{IgnoreCase: p.IgnoreCase}
	switch strings.ToLower(p.FilterKind) {
	case "", "wildcard":
		return filter.Wildcard(p.FilterPattern, opts)
	case "regex":
		return filter.Regex(p.FilterPattern, opts)
	default:
		return filter.Filter{}, fmt.Errorf("config: unknown filter kind %q", p.FilterKind)
	}
}
