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

package testutil

import (
	"testing"

	"github.com/gostrings/gostrings/scanresult"
)

func TestMemSourceReadSeek(t *testing.T) {
	m := NewMemSource([]byte("hello world"))
	if m.Len() != 11 {
		t.Fatalf("Len = %d, want 11", m.Len())
	}
	buf := make([]byte, 5)
	n, err := m.Read(buf)
	if err != nil || n != 5 || string(buf) != "hello" {
		t.Fatalf("Read = (%d,%v), buf=%q", n, err, buf)
	}
	if err := m.Seek(6); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	n, _ = m.Read(buf)
	if string(buf[:n]) != "world" {
		t.Fatalf("after seek, read %q", buf[:n])
	}
	if err := m.Seek(100); err == nil {
		t.Fatal("expected an error seeking past Len()")
	}
}

func TestCollectingSinkIsConcurrencySafe(t *testing.T) {
	sink, collect := CollectingSink()
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func(i int) {
			sink.Emit(scanresult.Result{OffsetStart: uint64(i)})
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	if len(collect()) != 10 {
		t.Fatalf("got %d results, want 10", len(collect()))
	}
}

func TestMakeFileResult(t *testing.T) {
	mk := MakeFileResult("/tmp/x")
	r := mk(scanresult.UTF8, 1, 5, "abcd")
	if r.File == nil || r.File.Path != "/tmp/x" {
		t.Fatalf("got %+v", r)
	}
}
