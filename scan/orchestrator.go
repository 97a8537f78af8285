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

// Package scan implements the orchestrator: it reads fixed-size
// buffers from a bytesource.ByteSource and, for each buffer, runs every
// configured decoder (optionally in parallel), filters and emits
// Results through a scanresult.Sink, and reports progress.
package scan

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/gostrings/gostrings/bytesource"
	"github.com/gostrings/gostrings/decode"
	"github.com/gostrings/gostrings/filter"
	"github.com/gostrings/gostrings/ints"
	"github.com/gostrings/gostrings/scanresult"
)

// EncodingFlag is a bitset over the requested decoders.
type EncodingFlag uint8

const (
	EncodingASCII EncodingFlag = 1 << iota
	EncodingUTF8
	EncodingUnicode
)

// defaultEncoding is used whenever a Request leaves Encoding unset.
const defaultEncoding = EncodingUTF8 | EncodingUnicode

const defaultBufferSize = 1 << 20 // 1 MiB.

// MakeResultFunc builds the source-specific half of a scanresult.Result
// (the File or Process variant) given the encoding and offsets the
// orchestrator computed; fsscan and procscan each supply their own.
type MakeResultFunc func(enc scanresult.EncodingTag, offsetStart, offsetEnd uint64, s string) scanresult.Result

// Request bundles everything one Orchestrator.Scan call needs.
type Request struct {
	Source      bytesource.ByteSource
	Config      decode.DecodeConfig
	StartOffset uint64
	BytesToScan uint64 // 0 means "scan to the end of Source"
	BufferSize  int    // 0 means defaultBufferSize
	Encoding    EncodingFlag
	Filter      filter.Filter
	Sync        bool
	MakeResult  MakeResultFunc
	Sink        scanresult.Sink
	Cancel      CancelToken
	Progress    *Progress
}

// Orchestrator runs scans against byte sources. The zero value is
// usable; Logger defaults to a discard logger when nil.
type Orchestrator struct {
	Logger *log.Logger
}

func (o *Orchestrator) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(io.Discard, "", 0)
}

func effectiveEncodings(requested EncodingFlag) EncodingFlag {
	if requested == 0 {
		requested = defaultEncoding
	}
	if requested&EncodingASCII != 0 && requested&EncodingUTF8 != 0 {
		// UTF-8 is a superset of ASCII for BMP printable bytes; keep
		// only UTF-8 to avoid duplicate results.
		requested &^= EncodingASCII
	}
	return requested
}

// decodersFor returns the decoders for encs in a fixed, deterministic
// order for synchronous-mode ordering: ASCII, UTF-8, then UTF-16.
func decodersFor(encs EncodingFlag) []decode.Decoder {
	var out []decode.Decoder
	if encs&EncodingASCII != 0 {
		out = append(out, decode.AsciiDecoder{})
	}
	if encs&EncodingUTF8 != 0 {
		out = append(out, decode.Utf8Decoder{})
	}
	if encs&EncodingUnicode != 0 {
		out = append(out, decode.Utf16Decoder{})
	}
	return out
}

func encodingTag(d decode.Decoder) scanresult.EncodingTag {
	switch d.Name() {
	case "UTF8":
		return scanresult.UTF8
	case "UTF16":
		return scanresult.Unicode
	default:
		return scanresult.ASCII
	}
}

// Scan reads req.Source from req.StartOffset, running every decoder
// selected by req.Encoding over each buffer it reads and emitting
// qualifying, filter-matching runs to req.Sink.
func (o *Orchestrator) Scan(req Request) error {
	sessionID := uuid.New()
	lg := o.logger()

	encs := effectiveEncodings(req.Encoding)
	decoders := decodersFor(encs)

	srcLen := req.Source.Len()
	bufSize := req.BufferSize
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}
	maxBuf := int(ints.Clamp(uint64(bufSize), 1, ints.Max(srcLen, 1)))
	buf := make([]byte, maxBuf)

	start := req.StartOffset
	if encs&EncodingUnicode != 0 {
		start = ints.AlignUp64(start, 2)
	}
	if start > srcLen {
		return fmt.Errorf("scan[%s]: start_offset %d exceeds source length %d", sessionID, start, srcLen)
	}
	if err := req.Source.Seek(start); err != nil {
		return fmt.Errorf("scan[%s]: seek to %d: %w", sessionID, start, err)
	}

	remaining := req.BytesToScan
	if remaining == 0 {
		remaining = srcLen - start
	}

	states := make([]decode.DecoderState, len(decoders))
	for remaining > 0 {
		if req.Cancel.Cancelled() {
			lg.Printf("scan[%s]: cancelled after %d bytes remaining", sessionID, remaining)
			return nil
		}
		toRead := uint64(len(buf))
		if toRead > remaining {
			toRead = remaining
		}
		n, err := req.Source.Read(buf[:toRead])
		if err != nil {
			return fmt.Errorf("scan[%s]: read: %w", sessionID, err)
		}
		if n == 0 {
			break
		}
		remaining -= uint64(n)
		bufBase := req.Source.Position() - uint64(n)

		for i := range states {
			states[i].Reset()
		}
		if err := o.runBuffer(req, decoders, states, buf[:n], bufBase); err != nil {
			lg.Printf("scan[%s]: aborting: %v", sessionID, err)
			return err
		}
		if req.Progress != nil {
			req.Progress.Add(int64(n))
		}
	}
	return nil
}

// runBuffer fans out the decoders over one buffer, synchronously or in
// parallel per req.Sync.
func (o *Orchestrator) runBuffer(req Request, decoders []decode.Decoder, states []decode.DecoderState, buf []byte, bufBase uint64) error {
	if req.Sync || len(decoders) <= 1 {
		for i, d := range decoders {
			if err := o.runDecoder(req, d, &states[i], buf, bufBase); err != nil {
				return err
			}
		}
		return nil
	}

	var wg sync.WaitGroup
	errs := make([]error, len(decoders))
	wg.Add(len(decoders))
	for i := range decoders {
		go func(i int) {
			defer wg.Done()
			errs[i] = o.runDecoder(req, decoders[i], &states[i], buf, bufBase)
		}(i)
	}
	wg.Wait()
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// runDecoder drives one decoder across the whole buffer, emitting every
// qualifying, filter-matching run it finds.
func (o *Orchestrator) runDecoder(req Request, d decode.Decoder, state *decode.DecoderState, buf []byte, bufBase uint64) error {
	enc := encodingTag(d)
	for state.BytesConsumed < len(buf) {
		if req.Cancel.Cancelled() {
			return nil
		}
		callStart := state.BytesConsumed
		r := d.TryNextString(buf, callStart, req.Config)
		if r.Found {
			skip := r.BytesConsumedInBuf - r.StringByteLength
			offsetStart := bufBase + uint64(callStart+skip)
			offsetEnd := offsetStart + uint64(r.StringByteLength)
			if req.Filter.IsMatch(r.String) {
				res := req.MakeResult(enc, offsetStart, offsetEnd, r.String)
				if err := req.Sink.Emit(res); err != nil {
					return fmt.Errorf("scan: sink: %w", err)
				}
			}
		}
		state.BytesConsumed = callStart + r.BytesConsumedInBuf
		if r.BytesConsumedInBuf == 0 {
			// Defensive: a decoder must always make progress: stop
			// instead of spinning if one doesn't.
			break
		}
	}
	return nil
}
