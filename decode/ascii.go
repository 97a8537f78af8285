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

// AsciiDecoder extracts runs of printable single-byte ASCII characters.
// A code point is always BasicLatin, so the block-compatibility check is
// always trivially satisfied.
type AsciiDecoder struct{}

func (AsciiDecoder) Name() string { return "ASCII" }

func asciiStep(buf []byte, pos int, cfg DecodeConfig) (runUnit, rune, bool) {
	if pos >= len(buf) {
		return runUnit{}, 0, false
	}
	b := buf[pos]
	printable := charset.IsPrintableASCII(b, cfg.ExcludeControl)
	return runUnit{length: 1, printable: printable, block: charset.BasicLatin}, rune(b), true
}

// TryNextString implements Decoder.
func (AsciiDecoder) TryNextString(buf []byte, startInBuf int, cfg DecodeConfig) NextString {
	cfg.Blocks.Add(charset.BasicLatin)
	return scan(buf, startInBuf, cfg, asciiStep)
}
