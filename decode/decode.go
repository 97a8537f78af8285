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

// Package decode implements the per-encoding run-extraction state
// machines: AsciiDecoder, Utf8Decoder and Utf16Decoder. Each decoder
// scans forward through a byte buffer looking for maximal runs of
// printable, block-compatible code points and reports them through
// TryNextString.
package decode

import (
	"strings"

	"github.com/gostrings/gostrings/charset"
	"github.com/gostrings/gostrings/ints"
)

// DecodeConfig holds the knobs shared by every decoder for one scan.
type DecodeConfig struct {
	// MinLength is the minimum run length, in decoded characters, for a
	// run to be emitted. Must be >= 1.
	MinLength int
	// ExcludeControl, when true, removes HT/LF/CR from the printable set.
	ExcludeControl bool
	// IsUnicodeConsole is carried through for sink/printer consumers
	// that render differently for console output; the decoders
	// themselves do not branch on it.
	IsUnicodeConsole bool
	// Blocks restricts which Unicode blocks a multi-byte/multi-unit
	// code point may belong to. BasicLatin is always implicitly
	// included once the set is non-empty (see effectiveBlocks).
	Blocks charset.UnicodeBlockSet
}

// NewDecodeConfig returns a DecodeConfig with the default tuning:
// MinLength 3, control characters allowed, blocks = {BasicLatin}.
func NewDecodeConfig() DecodeConfig {
	var blocks charset.UnicodeBlockSet
	blocks.Add(charset.BasicLatin)
	return DecodeConfig{MinLength: 3, Blocks: blocks}
}

func (c DecodeConfig) effectiveBlocks() charset.UnicodeBlockSet {
	return c.Blocks.WithBasicLatin()
}

func (c DecodeConfig) minLength() int {
	return ints.Max(c.MinLength, 1)
}

// classifyCodePoint reports whether cp is printable and which block it
// belongs to. Code points below 0x80 are classified through the ASCII
// printability tables (so exclude_control reaches them the same way it
// reaches the single-byte ASCII decoder); everything else is classified
// purely by Unicode block membership.
func classifyCodePoint(cp rune, excludeControl bool) (printable bool, block charset.BlockID) {
	if cp >= 0 && cp < 0x80 {
		return charset.IsPrintableASCII(byte(cp), excludeControl), charset.BasicLatin
	}
	b := charset.BlockOf(cp)
	return b != charset.Unassigned, b
}

// DecoderState tracks one decoder's progress through the current buffer.
// It is reset to BufferOffset=0, BytesConsumed=0, Running=true at the
// start of every buffer.
type DecoderState struct {
	BufferOffset  int
	BytesConsumed int
	Running       bool
}

// Reset re-initializes s for a new buffer.
func (s *DecoderState) Reset() {
	s.BufferOffset = 0
	s.BytesConsumed = 0
	s.Running = true
}

// Done reports whether the decoder has consumed the entire buffer.
func (s *DecoderState) Done(bufLen int) bool {
	return s.BytesConsumed >= bufLen
}

// NextString is the result of one TryNextString call: either a
// qualifying run was Found, or none was before the buffer ran out
// (NotFound, with BytesConsumedInBuf reporting how far scanning got).
type NextString struct {
	Found              bool
	BytesConsumedInBuf int
	StringByteLength   int
	String             string
}

// Decoder is satisfied by AsciiDecoder, Utf8Decoder and Utf16Decoder.
type Decoder interface {
	// Name identifies the decoder for result tagging and deterministic
	// ordering (ASCII, UTF8, UTF-16).
	Name() string
	// TryNextString scans buf starting at startInBuf for the next
	// qualifying run under cfg.
	TryNextString(buf []byte, startInBuf int, cfg DecodeConfig) NextString
}

// runUnit describes one decoded code unit: how many bytes it consumed,
// whether it is printable, and which Unicode block its code point
// belongs to (charset.Unassigned if the unit terminates a run outright,
// e.g. a UTF-16 surrogate or a UTF-8 4-byte sequence).
type runUnit struct {
	length    int
	printable bool
	block     charset.BlockID
}

// stepFunc decodes one unit at buf[pos:]. complete is false when fewer
// bytes remain in buf than the unit needs; callers must not read past
// buf in that case and instead treat the position as buffer end.
type stepFunc func(buf []byte, pos int, cfg DecodeConfig) (u runUnit, r rune, complete bool)

// scan implements the shared decoder contract from the run-extraction
// design: skip to the next printable, block-compatible unit, extend the
// run as far as it stays printable and block-compatible, and either
// emit it (if long enough) or discard it and keep scanning from right
// after it.
func scan(buf []byte, start int, cfg DecodeConfig, step stepFunc) NextString {
	blocks := cfg.effectiveBlocks()
	minLen := cfg.minLength()
	pos := start

	for pos < len(buf) {
		u, r, complete := step(buf, pos, cfg)
		if !complete {
			pos = len(buf)
			break
		}
		if !u.printable || !charset.BlockCompatible(blocks, u.block, u.block) {
			pos += u.length
			continue
		}

		runStart := pos
		runBlock := u.block
		var sb strings.Builder
		sb.WriteRune(r)
		pos += u.length
		charCount := 1

		for pos < len(buf) {
			u2, r2, complete2 := step(buf, pos, cfg)
			if !complete2 {
				break
			}
			if !u2.printable {
				break
			}
			if !charset.BlockCompatible(blocks, runBlock, u2.block) {
				break
			}
			sb.WriteRune(r2)
			pos += u2.length
			charCount++
		}

		if charCount >= minLen {
			return NextString{
				Found:              true,
				BytesConsumedInBuf: pos - start,
				StringByteLength:   pos - runStart,
				String:             sb.String(),
			}
		}
		// Run too short: discard and resume right after it (not one
		// byte past runStart).
	}

	return NextString{Found: false, BytesConsumedInBuf: pos - start}
}
