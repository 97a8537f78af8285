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

// Utf16Decoder extracts runs of printable BMP code points encoded as
// 2-byte little-endian UTF-16 code units. Surrogates (high or low) are
// never reconstructed into pairs; encountering one terminates the
// current run.
type Utf16Decoder struct{}

func (Utf16Decoder) Name() string { return "UTF16" }

const (
	highSurrogateLo = 0xD800
	lowSurrogateHi  = 0xDFFF
)

func isSurrogate(v uint16) bool {
	return v >= highSurrogateLo && v <= lowSurrogateHi
}

func utf16Step(buf []byte, pos int, cfg DecodeConfig) (runUnit, rune, bool) {
	if pos+2 > len(buf) {
		return runUnit{}, 0, false
	}
	v := uint16(buf[pos]) | uint16(buf[pos+1])<<8
	if isSurrogate(v) {
		return runUnit{length: 2, printable: false, block: charset.Unassigned}, 0, true
	}
	cp := rune(v)
	printable, block := classifyCodePoint(cp, cfg.ExcludeControl)
	return runUnit{length: 2, printable: printable, block: block}, cp, true
}

// TryNextString implements Decoder. When startInBuf falls on an odd
// byte relative to the buffer, the caller's alignment choice stands:
// this decoder advances in 2-byte units from startInBuf itself and does
// not re-align mid-buffer (alignment is the
// caller's concern). Orchestrator.Scan aligns start_offset forward to
// an even offset for UTF-16 when it begins a scan; see DESIGN.md.
func (Utf16Decoder) TryNextString(buf []byte, startInBuf int, cfg DecodeConfig) NextString {
	return scan(buf, startInBuf, cfg, utf16Step)
}
