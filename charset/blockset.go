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

package charset

import (
	"strings"

	"github.com/gostrings/gostrings/ints"
)

// UnicodeBlockSet is a bitset over the blocks in blockTable, plus an "All"
// sentinel that is tracked out of band rather than as a 103rd bit. Two
// uint64 words comfortably cover the 102 named blocks this table carries
// (the cyclic/variant design note calls for "two 64-bit integers plus a
// sentinel value"); if the table ever grows past 128 entries a third word
// would be needed. The table is a trimmed subset of the BMP block
// catalog, which in full has more blocks than two words can hold.
type UnicodeBlockSet struct {
	words [2]uint64
	all   bool
}

// AllBlocks is the sentinel set that matches every assigned block id.
var AllBlocks = UnicodeBlockSet{all: true}

// Add inserts id into the set. Adding BlockID values past the table's
// range (or Unassigned) is a no-op.
func (s *UnicodeBlockSet) Add(id BlockID) {
	if int(id) < 0 || int(id) >= len(blockTable) {
		return
	}
	ints.SetBit(s.words[:], id)
}

// Union returns the set containing every block in s or other.
func (s UnicodeBlockSet) Union(other UnicodeBlockSet) UnicodeBlockSet {
	if s.all || other.all {
		return AllBlocks
	}
	return UnicodeBlockSet{
		words: [2]uint64{s.words[0] | other.words[0], s.words[1] | other.words[1]},
	}
}

// Empty reports whether the set contains no blocks and is not the All
// sentinel.
func (s UnicodeBlockSet) Empty() bool {
	return !s.all && s.words[0] == 0 && s.words[1] == 0
}

// WithBasicLatin returns s with BasicLatin forced in, unless s is already
// empty (an empty set stays empty; DecodeConfig only applies this once a
// set is otherwise non-empty — BasicLatin is always implicitly included
// in any non-empty set).
func (s UnicodeBlockSet) WithBasicLatin() UnicodeBlockSet {
	if s.Empty() {
		return s
	}
	s.Add(basicLatinID)
	return s
}

// Contains reports whether id is a member of s, honoring the All
// sentinel (which matches every assigned id but never Unassigned).
func (s UnicodeBlockSet) Contains(id BlockID) bool {
	if id == Unassigned {
		return false
	}
	if s.all {
		return int(id) < len(blockTable)
	}
	if int(id)/64 >= len(s.words) {
		return false
	}
	return ints.TestBit(s.words[:], id)
}

// latinExtensionMembers aggregates the seven Latin "extended" blocks that
// "LatinExtensions" expands to.
var latinExtensionMembers = []string{
	"Latin1Supplement",
	"LatinExtendedA",
	"LatinExtendedB",
	"LatinExtendedAdditional",
	"LatinExtendedC",
	"LatinExtendedD",
	"LatinExtendedE",
}

// arabicMembers aggregates the six Arabic-script blocks that "Arabic"
// expands to as a UnicodeBlockSet name (distinct from the single
// BlockID named "Arabic" in blockTable, which is one of the six).
var arabicMembers = []string{
	"Arabic",
	"ArabicSupplement",
	"ArabicExtendedA",
	"ArabicExtendedB",
	"ArabicPresentationFormsA",
	"ArabicPresentationFormsB",
}

// aggregateNames maps an aggregate set name (case handled by the caller)
// to the block names it expands to.
var aggregateNames = map[string][]string{
	"LatinExtensions": latinExtensionMembers,
	"Arabic":          arabicMembers,
}

// ParseBlockSet resolves a CLI-visible block/set name into a
// UnicodeBlockSet. Lookup is case-insensitive. "All" returns the All
// sentinel. Names naming a single table block (e.g. "Cjk", "Hebrew")
// return a set with exactly that bit set. Aggregate names ("LatinExtensions",
// "Arabic") return the union of their member blocks. A comma-separated
// list of names (the form String produces) returns the union of each
// name's set, and fails if any name is unknown.
//
// Note: the single-block name "Arabic" and the aggregate name "Arabic"
// are intentionally the same string; requesting "Arabic" returns the
// six-block aggregate (the single block alone is reachable only as a
// member of that aggregate), matching user expectation that asking for
// "Arabic" covers all of the script's presentation forms.
func ParseBlockSet(name string) (UnicodeBlockSet, bool) {
	if strings.Contains(name, ",") {
		var set UnicodeBlockSet
		for _, part := range strings.Split(name, ",") {
			s, ok := ParseBlockSet(strings.TrimSpace(part))
			if !ok {
				return UnicodeBlockSet{}, false
			}
			set = set.Union(s)
		}
		return set, true
	}
	if strings.EqualFold(name, "All") {
		return AllBlocks, true
	}
	for aggName, members := range aggregateNames {
		if strings.EqualFold(name, aggName) {
			var set UnicodeBlockSet
			for _, m := range members {
				id, ok := lookupBlockName(m)
				if !ok {
					continue
				}
				set.Add(id)
			}
			return set, true
		}
	}
	id, ok := lookupBlockNameFold(name)
	if !ok {
		return UnicodeBlockSet{}, false
	}
	var set UnicodeBlockSet
	set.Add(id)
	return set, true
}

func lookupBlockName(name string) (BlockID, bool) {
	id, ok := blockIndexByName[name]
	return id, ok
}

func lookupBlockNameFold(name string) (BlockID, bool) {
	if id, ok := blockIndexByName[name]; ok {
		return id, true
	}
	for n, id := range blockIndexByName {
		if strings.EqualFold(n, name) {
			return id, true
		}
	}
	return 0, false
}

// String renders s back to a comma-separated list of canonical block
// names (or "All"). ParseBlockSet accepts that list back, so it is the
// inverse of ParseBlockSet for sets that were
// built up bit-by-bit rather than from an aggregate name: round-tripping
// an aggregate through String/ParseBlockSet yields an equal set even
// though the textual form differs (a list of members instead of the
// aggregate name).
func (s UnicodeBlockSet) String() string {
	if s.all {
		return "All"
	}
	if s.Empty() {
		return ""
	}
	var sb strings.Builder
	first := true
	for i, b := range blockTable {
		if !s.Contains(BlockID(i)) {
			continue
		}
		if !first {
			sb.WriteByte(',')
		}
		sb.WriteString(b.Name)
		first = false
	}
	return sb.String()
}

// compatiblePair reports whether a and b are the BasicLatin/LatinExtensions
// pair (in either order), which the decoder block-compatibility rule
// allows to mix within one run even though they are otherwise distinct
// blocks.
func compatiblePair(a, b BlockID) bool {
	if a == b {
		return true
	}
	aLatin := a == basicLatinID || isLatinExtension(a)
	bLatin := b == basicLatinID || isLatinExtension(b)
	return aLatin && bLatin
}

func isLatinExtension(id BlockID) bool {
	name := BlockName(id)
	for _, m := range latinExtensionMembers {
		if m == name {
			return true
		}
	}
	return false
}

// BlockCompatible implements the decoder run-extension rule: the run's
// first block id establishes the run's block; every subsequent code
// point's block must either equal it, or be paired with it via the
// BasicLatin/LatinExtensions allowance, and must be a member of cfg's
// block set.
func BlockCompatible(set UnicodeBlockSet, runBlock, next BlockID) bool {
	if next == Unassigned {
		return false
	}
	if !set.Contains(next) {
		return false
	}
	return compatiblePair(runBlock, next)
}
