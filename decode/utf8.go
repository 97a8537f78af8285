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

package decode

import "github.com/gostrings/gostrings/charset"

// Utf8Decoder extracts runs of printable BMP code points encoded as
// 1-3 byte UTF-8 sequences. A 4-byte sequence (a surrogate-pair code
// point outside the BMP) terminates the current run without being
// decoded, matching the BMP-only scope of this scanner.
type Utf8Decoder struct{}

func (Utf8Decoder) Name() string { return "UTF8" }

// utf8LeadLen classifies a UTF-8 leading byte into the number of bytes
// its sequence occupies, or 0 if the byte cannot start a sequence
// (either a stray continuation byte or bit pattern 11111xxx).
func utf8LeadLen(b byte) int {
	switch {
	case b&0x80 == 0x00:
		return 1
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	default:
		return 0
	}
}

func validContinuation(buf []byte, from, count int) bool {
	for i := 0; i < count; i++ {
		if buf[from+i]&0xC0 != 0x80 {
			return false
		}
	}
	return true
}

func decodeUtf8CodePoint(buf []byte, n int, lead byte) rune {
	switch n {
	case 2:
		return rune(lead&0x1F)<<6 | rune(buf[1]&0x3F)
	case 3:
		return rune(lead&0x0F)<<12 | rune(buf[1]&0x3F)<<6 | rune(buf[2]&0x3F)
	default:
		return 0
	}
}

func utf8Step(buf []byte, pos int, cfg DecodeConfig) (runUnit, rune, bool) {
	if pos >= len(buf) {
		return runUnit{}, 0, false
	}
	lead := buf[pos]
	n := utf8LeadLen(lead)
	if n == 0 {
		// Invalid leading byte: terminates/does not start a run;
		// resync by one byte.
		return runUnit{length: 1, printable: false, block: charset.Unassigned}, 0, true
	}
	if pos+n > len(buf) {
		// Sequence would read past the buffer: truncate scanning
		// here rather than reading across buf's end.
		return runUnit{}, 0, false
	}
	if n == 1 {
		printable, block := classifyCodePoint(rune(lead), cfg.ExcludeControl)
		return runUnit{length: 1, printable: printable, block: block}, rune(lead), true
	}
	if n == 4 {
		// Surrogate-pair code point: always run-terminating, never
		// decoded (out of BMP scope).
		return runUnit{length: 4, printable: false, block: charset.Unassigned}, 0, true
	}
	if !validContinuation(buf, pos+1, n-1) {
		return runUnit{length: 1, printable: false, block: charset.Unassigned}, 0, true
	}
	cp := decodeUtf8CodePoint(buf[pos:pos+n], n, lead)
	printable, block := classifyCodePoint(cp, cfg.ExcludeControl)
	return runUnit{length: n, printable: printable, block: block}, cp, true
}

// TryNextString implements Decoder.
func (Utf8Decoder) TryNextString(buf []byte, startInBuf int, cfg DecodeConfig) NextString {
	return scan(buf, startInBuf, cfg, utf8Step)
}
