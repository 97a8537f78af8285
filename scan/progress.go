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

package scan

import (
	"context"
	"sync/atomic"
)

// Progress is an atomically-updated byte counter a driver can poll
// from another goroutine while a scan runs.
type Progress struct {
	bytesScanned int64
}

// Add records n more bytes as scanned.
func (p *Progress) Add(n int64) {
	atomic.AddInt64(&p.bytesScanned, n)
}

// BytesScanned returns a snapshot of the total bytes scanned so far.
func (p *Progress) BytesScanned() int64 {
	return atomic.LoadInt64(&p.bytesScanned)
}

// CancelToken is a cooperative cancellation signal, polled between
// buffers in Orchestrator.Scan, inside each decoder's inner loop at a
// coarse granularity, and by drivers between items.
type CancelToken struct {
	ctx context.Context
}

// NewCancelToken wraps ctx as a CancelToken. A nil ctx is treated as
// context.Background (never cancelled).
func NewCancelToken(ctx context.Context) CancelToken {
	if ctx == nil {
		ctx = context.Background()
	}
	return CancelToken{ctx: ctx}
}

// Cancelled reports whether cancellation has been requested.
func (c CancelToken) Cancelled() bool {
	if c.ctx == nil {
		return false
	}
	select {
	case <-c.ctx.Done():
		return true
	default:
		return false
	}
}
