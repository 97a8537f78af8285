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

import (
	"testing"

	"github.com/gostrings/gostrings/charset"
)

func blockSet(names ...string) charset.UnicodeBlockSet {
	var set charset.UnicodeBlockSet
	for _, n := range names {
		s, ok := charset.ParseBlockSet(n)
		if !ok {
			panic("unknown block name in test: " + n)
		}
		set = set.Union(s)
	}
	return set
}

func TestAsciiDecoderHelloWorld(t *testing.T) {
	buf := []byte{0x00, 0x48, 0x65, 0x6C, 0x6C, 0x6F, 0x20, 0x57, 0x6F, 0x72, 0x6C, 0x64, 0x00, 0x41, 0x42}
	cfg := DecodeConfig{MinLength: 3, Blocks: blockSet("BasicLatin")}

	var d AsciiDecoder
	r := d.TryNextString(buf, 0, cfg)
	if !r.Found {
		t.Fatalf("expected a run to be found, got %+v", r)
	}
	if r.String != "Hello World" {
		t.Fatalf("string = %q, want %q", r.String, "Hello World")
	}
	if r.StringByteLength != 11 {
		t.Fatalf("StringByteLength = %d, want 11", r.StringByteLength)
	}

	// Past "Hello World", only "AB" (length 2) remains: too short.
	r2 := d.TryNextString(buf, r.BytesConsumedInBuf, cfg)
	if r2.Found {
		t.Fatalf("expected no further run, got %+v", r2)
	}
}

func TestUtf8DecoderMinLength(t *testing.T) {
	buf := []byte{0xE4, 0xB8, 0xAD, 0xE6, 0x96, 0x87, 0x00, 0x41, 0x42, 0x43}

	t.Run("min_length=3 drops the 2-char CJK run", func(t *testing.T) {
		cfg := DecodeConfig{MinLength: 3, Blocks: blockSet("BasicLatin", "Cjk")}
		var d Utf8Decoder
		r := d.TryNextString(buf, 0, cfg)
		if !r.Found {
			t.Fatalf("expected ABC to be found, got %+v", r)
		}
		if r.String != "ABC" {
			t.Fatalf("string = %q, want ABC", r.String)
		}
	})

	t.Run("min_length=2 keeps both runs in order", func(t *testing.T) {
		cfg := DecodeConfig{MinLength: 2, Blocks: blockSet("BasicLatin", "Cjk")}
		var d Utf8Decoder
		r1 := d.TryNextString(buf, 0, cfg)
		if !r1.Found || r1.String != "中文" {
			t.Fatalf("first run = %+v, want 中文", r1)
		}
		r2 := d.TryNextString(buf, r1.BytesConsumedInBuf, cfg)
		if !r2.Found || r2.String != "ABC" {
			t.Fatalf("second run = %+v, want ABC", r2)
		}
	})
}

func TestUtf16DecoderHello(t *testing.T) {
	buf := []byte{0x48, 0x00, 0x65, 0x00, 0x6C, 0x00, 0x6C, 0x00, 0x6F, 0x00, 0x00, 0x00, 0x42, 0x00}
	cfg := DecodeConfig{MinLength: 3, Blocks: blockSet("BasicLatin")}

	var d Utf16Decoder
	r := d.TryNextString(buf, 0, cfg)
	if !r.Found || r.String != "Hello" {
		t.Fatalf("run = %+v, want Hello", r)
	}
	if r.StringByteLength != 10 {
		t.Fatalf("StringByteLength = %d, want 10", r.StringByteLength)
	}
}

func TestAsciiDecoderExcludeControl(t *testing.T) {
	buf := []byte{0x41, 0x09, 0x42, 0x43, 0x44}
	var d AsciiDecoder

	r := d.TryNextString(buf, 0, DecodeConfig{MinLength: 3, Blocks: blockSet("BasicLatin")})
	if !r.Found || r.String != "A\tBCD" {
		t.Fatalf("exclude_control=false: run = %+v, want A\\tBCD", r)
	}

	r2 := d.TryNextString(buf, 0, DecodeConfig{MinLength: 3, ExcludeControl: true, Blocks: blockSet("BasicLatin")})
	if !r2.Found || r2.String != "BCD" {
		t.Fatalf("exclude_control=true: run = %+v, want BCD", r2)
	}
}

func TestUtf8DecoderBlockCompatibility(t *testing.T) {
	buf := []byte{0x41, 0x42, 0x43, 0xC3, 0xA9} // "ABC" + é

	t.Run("LatinExtensions allowed, whole run kept", func(t *testing.T) {
		cfg := DecodeConfig{MinLength: 3, Blocks: blockSet("BasicLatin", "LatinExtensions")}
		var d Utf8Decoder
		r := d.TryNextString(buf, 0, cfg)
		if !r.Found || r.String != "ABCé" {
			t.Fatalf("run = %+v, want ABCé", r)
		}
	})

	t.Run("BasicLatin only, é terminates the run", func(t *testing.T) {
		cfg := DecodeConfig{MinLength: 3, Blocks: blockSet("BasicLatin")}
		var d Utf8Decoder
		r := d.TryNextString(buf, 0, cfg)
		if !r.Found || r.String != "ABC" {
			t.Fatalf("run = %+v, want ABC", r)
		}
	})
}

func TestDecoderStateReset(t *testing.T) {
	var s DecoderState
	s.BufferOffset = 4
	s.BytesConsumed = 10
	s.Running = false
	s.Reset()
	if s.BufferOffset != 0 || s.BytesConsumed != 0 || !s.Running {
		t.Fatalf("Reset left state = %+v", s)
	}
	if s.Done(0) == false {
		t.Fatal("Done(0) on a freshly reset state should be true (nothing to consume)")
	}
}

func TestNewDecodeConfigDefaults(t *testing.T) {
	cfg := NewDecodeConfig()
	if cfg.MinLength != 3 {
		t.Fatalf("MinLength = %d, want 3", cfg.MinLength)
	}
	if cfg.Blocks.Empty() {
		t.Fatal("default blocks must include BasicLatin")
	}
	if !cfg.Blocks.Contains(charset.BasicLatin) {
		t.Fatal("default blocks must contain BasicLatin")
	}
}
