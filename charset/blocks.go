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

import "sort"

// BlockID identifies one of the named Unicode blocks in blockTable.
// Unassigned denotes a code point that falls in none of them (including
// the UTF-16 surrogate range, which this table deliberately leaves out).
type BlockID uint8

// Unassigned is returned by BlockOf for code points outside every
// supported block, e.g. the surrogate range D800-DFFF.
const Unassigned BlockID = 0xFF

type blockRange struct {
	Name string
	Lo   rune
	Hi   rune
}

// blockTable lists the supported BMP blocks in ascending, non-overlapping
// code point order. Index into the table doubles as the BlockID: block
// i has ID i. This mirrors how the standard Unicode block definitions are
// normally shipped (a generator step, out of scope here, would otherwise
// produce this table from UCD's Blocks.txt) and plays the same role as
// unicode.RangeTable does in the standard library: BlockOf below does a
// binary search over it rather than indexing a literal 65536-entry array,
// which is functionally equivalent but doesn't require hand-transcribing
// every one of the 65536 entries.
var blockTable = []blockRange{
	{Name: "BasicLatin", Lo: 0x0000, Hi: 0x007F},
	{Name: "Latin1Supplement", Lo: 0x0080, Hi: 0x00FF},
	{Name: "LatinExtendedA", Lo: 0x0100, Hi: 0x017F},
	{Name: "LatinExtendedB", Lo: 0x0180, Hi: 0x024F},
	{Name: "IPAExtensions", Lo: 0x0250, Hi: 0x02AF},
	{Name: "SpacingModifierLetters", Lo: 0x02B0, Hi: 0x02FF},
	{Name: "CombiningDiacriticalMarks", Lo: 0x0300, Hi: 0x036F},
	{Name: "GreekAndCoptic", Lo: 0x0370, Hi: 0x03FF},
	{Name: "Cyrillic", Lo: 0x0400, Hi: 0x04FF},
	{Name: "CyrillicSupplement", Lo: 0x0500, Hi: 0x052F},
	{Name: "Armenian", Lo: 0x0530, Hi: 0x058F},
	{Name: "Hebrew", Lo: 0x0590, Hi: 0x05FF},
	{Name: "Arabic", Lo: 0x0600, Hi: 0x06FF},
	{Name: "Syriac", Lo: 0x0700, Hi: 0x074F},
	{Name: "ArabicSupplement", Lo: 0x0750, Hi: 0x077F},
	{Name: "Thaana", Lo: 0x0780, Hi: 0x07BF},
	{Name: "NKo", Lo: 0x07C0, Hi: 0x07FF},
	{Name: "Samaritan", Lo: 0x0800, Hi: 0x083F},
	{Name: "Mandaic", Lo: 0x0840, Hi: 0x085F},
	{Name: "ArabicExtendedB", Lo: 0x0870, Hi: 0x089F},
	{Name: "ArabicExtendedA", Lo: 0x08A0, Hi: 0x08FF},
	{Name: "Devanagari", Lo: 0x0900, Hi: 0x097F},
	{Name: "Bengali", Lo: 0x0980, Hi: 0x09FF},
	{Name: "Gurmukhi", Lo: 0x0A00, Hi: 0x0A7F},
	{Name: "Gujarati", Lo: 0x0A80, Hi: 0x0AFF},
	{Name: "Oriya", Lo: 0x0B00, Hi: 0x0B7F},
	{Name: "Tamil", Lo: 0x0B80, Hi: 0x0BFF},
	{Name: "Telugu", Lo: 0x0C00, Hi: 0x0C7F},
	{Name: "Kannada", Lo: 0x0C80, Hi: 0x0CFF},
	{Name: "Malayalam", Lo: 0x0D00, Hi: 0x0D7F},
	{Name: "Sinhala", Lo: 0x0D80, Hi: 0x0DFF},
	{Name: "Thai", Lo: 0x0E00, Hi: 0x0E7F},
	{Name: "Lao", Lo: 0x0E80, Hi: 0x0EFF},
	{Name: "Tibetan", Lo: 0x0F00, Hi: 0x0FFF},
	{Name: "Myanmar", Lo: 0x1000, Hi: 0x109F},
	{Name: "Georgian", Lo: 0x10A0, Hi: 0x10FF},
	{Name: "HangulJamo", Lo: 0x1100, Hi: 0x11FF},
	{Name: "Ethiopic", Lo: 0x1200, Hi: 0x137F},
	{Name: "Cherokee", Lo: 0x13A0, Hi: 0x13FF},
	{Name: "UnifiedCanadianAboriginalSyllabics", Lo: 0x1400, Hi: 0x167F},
	{Name: "Ogham", Lo: 0x1680, Hi: 0x169F},
	{Name: "Runic", Lo: 0x16A0, Hi: 0x16FF},
	{Name: "Tagalog", Lo: 0x1700, Hi: 0x171F},
	{Name: "Khmer", Lo: 0x1780, Hi: 0x17FF},
	{Name: "Mongolian", Lo: 0x1800, Hi: 0x18AF},
	{Name: "Limbu", Lo: 0x1900, Hi: 0x194F},
	{Name: "TaiLe", Lo: 0x1950, Hi: 0x197F},
	{Name: "NewTaiLue", Lo: 0x1980, Hi: 0x19DF},
	{Name: "Buginese", Lo: 0x1A00, Hi: 0x1A1F},
	{Name: "TaiTham", Lo: 0x1A20, Hi: 0x1AAF},
	{Name: "Balinese", Lo: 0x1B00, Hi: 0x1B7F},
	{Name: "Sundanese", Lo: 0x1B80, Hi: 0x1BBF},
	{Name: "Batak", Lo: 0x1BC0, Hi: 0x1BFF},
	{Name: "Lepcha", Lo: 0x1C00, Hi: 0x1C4F},
	{Name: "PhoneticExtensions", Lo: 0x1D00, Hi: 0x1D7F},
	{Name: "LatinExtendedAdditional", Lo: 0x1E00, Hi: 0x1EFF},
	{Name: "GreekExtended", Lo: 0x1F00, Hi: 0x1FFF},
	{Name: "GeneralPunctuation", Lo: 0x2000, Hi: 0x206F},
	{Name: "SuperscriptsAndSubscripts", Lo: 0x2070, Hi: 0x209F},
	{Name: "CurrencySymbols", Lo: 0x20A0, Hi: 0x20CF},
	{Name: "CombiningDiacriticalMarksForSymbols", Lo: 0x20D0, Hi: 0x20FF},
	{Name: "LetterlikeSymbols", Lo: 0x2100, Hi: 0x214F},
	{Name: "NumberForms", Lo: 0x2150, Hi: 0x218F},
	{Name: "Arrows", Lo: 0x2190, Hi: 0x21FF},
	{Name: "MathematicalOperators", Lo: 0x2200, Hi: 0x22FF},
	{Name: "MiscellaneousTechnical", Lo: 0x2300, Hi: 0x23FF},
	{Name: "ControlPictures", Lo: 0x2400, Hi: 0x243F},
	{Name: "OpticalCharacterRecognition", Lo: 0x2440, Hi: 0x245F},
	{Name: "EnclosedAlphanumerics", Lo: 0x2460, Hi: 0x24FF},
	{Name: "BoxDrawing", Lo: 0x2500, Hi: 0x257F},
	{Name: "BlockElements", Lo: 0x2580, Hi: 0x259F},
	{Name: "GeometricShapes", Lo: 0x25A0, Hi: 0x25FF},
	{Name: "MiscellaneousSymbols", Lo: 0x2600, Hi: 0x26FF},
	{Name: "Dingbats", Lo: 0x2700, Hi: 0x27BF},
	{Name: "BraillePatterns", Lo: 0x2800, Hi: 0x28FF},
	{Name: "Glagolitic", Lo: 0x2C00, Hi: 0x2C5F},
	{Name: "LatinExtendedC", Lo: 0x2C60, Hi: 0x2C7F},
	{Name: "Coptic", Lo: 0x2C80, Hi: 0x2CFF},
	{Name: "SupplementalPunctuation", Lo: 0x2E00, Hi: 0x2E7F},
	{Name: "CJKSymbolsAndPunctuation", Lo: 0x3000, Hi: 0x303F},
	{Name: "Hiragana", Lo: 0x3040, Hi: 0x309F},
	{Name: "Katakana", Lo: 0x30A0, Hi: 0x30FF},
	{Name: "Bopomofo", Lo: 0x3100, Hi: 0x312F},
	{Name: "HangulCompatibilityJamo", Lo: 0x3130, Hi: 0x318F},
	{Name: "Kanbun", Lo: 0x3190, Hi: 0x319F},
	{Name: "BopomofoExtended", Lo: 0x31A0, Hi: 0x31BF},
	{Name: "CJKCompatibility", Lo: 0x3300, Hi: 0x33FF},
	{Name: "CJKUnifiedIdeographsExtensionA", Lo: 0x3400, Hi: 0x4DBF},
	{Name: "Cjk", Lo: 0x4E00, Hi: 0x9FFF},
	{Name: "YiSyllables", Lo: 0xA000, Hi: 0xA48F},
	{Name: "Vai", Lo: 0xA500, Hi: 0xA63F},
	{Name: "LatinExtendedD", Lo: 0xA720, Hi: 0xA7FF},
	{Name: "LatinExtendedE", Lo: 0xAB30, Hi: 0xAB6F},
	{Name: "HangulSyllables", Lo: 0xAC00, Hi: 0xD7AF},
	{Name: "PrivateUseArea", Lo: 0xE000, Hi: 0xF8FF},
	{Name: "CJKCompatibilityIdeographs", Lo: 0xF900, Hi: 0xFAFF},
	{Name: "AlphabeticPresentationForms", Lo: 0xFB00, Hi: 0xFB4F},
	{Name: "ArabicPresentationFormsA", Lo: 0xFB50, Hi: 0xFDFF},
	{Name: "VariationSelectors", Lo: 0xFE00, Hi: 0xFE0F},
	{Name: "CJKCompatibilityForms", Lo: 0xFE30, Hi: 0xFE4F},
	{Name: "ArabicPresentationFormsB", Lo: 0xFE70, Hi: 0xFEFF},
	{Name: "HalfwidthAndFullwidthForms", Lo: 0xFF00, Hi: 0xFFEF},
}

// blockIndexByName maps a canonical block name to its BlockID, built once
// from blockTable so the table above stays the single source of truth.
var blockIndexByName = func() map[string]BlockID {
	m := make(map[string]BlockID, len(blockTable))
	for i, b := range blockTable {
		m[b.Name] = BlockID(i)
	}
	return m
}()

// BlockOf returns the BlockID of the Unicode block containing cp, or
// Unassigned if cp falls outside every supported block.
func BlockOf(cp rune) BlockID {
	if cp < 0 || cp > 0xFFFF {
		return Unassigned
	}
	i := sort.Search(len(blockTable), func(i int) bool {
		return blockTable[i].Hi >= cp
	})
	if i == len(blockTable) || blockTable[i].Lo > cp {
		return Unassigned
	}
	return BlockID(i)
}

// BlockName returns the canonical name of a single block, or "" if id is
// Unassigned or out of range.
func BlockName(id BlockID) string {
	if int(id) < 0 || int(id) >= len(blockTable) {
		return ""
	}
	return blockTable[id].Name
}

// NumBlocks returns the number of individually named blocks in the table
// (not counting aggregate names such as LatinExtensions or the All
// sentinel, which are resolved by ParseBlockSet).
func NumBlocks() int {
	return len(blockTable)
}

// BasicLatin is the BlockID of the BasicLatin block (always index 0;
// blockTable's first entry is pinned to it). DecodeConfig callers that
// need to classify plain ASCII bytes without going through ParseBlockSet
// use this directly.
const BasicLatin = BlockID(0)

const basicLatinID = BasicLatin
