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

package bytesource

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, contents []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileSourceReadSeek(t *testing.T) {
	path := writeTempFile(t, []byte("0123456789"))
	src, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if src.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", src.Len())
	}

	buf := make([]byte, 4)
	n, err := src.Read(buf)
	if err != nil || n != 4 || string(buf) != "0123" {
		t.Fatalf("Read = (%d, %v), buf=%q", n, err, buf)
	}
	if src.Position() != 4 {
		t.Fatalf("Position() = %d, want 4", src.Position())
	}

	if err := src.Seek(8); err != nil {
		t.Fatal(err)
	}
	n, err = src.Read(buf)
	if err != nil || n != 2 || string(buf[:n]) != "89" {
		t.Fatalf("Read after seek = (%d, %v), buf=%q", n, err, buf[:n])
	}

	n, err = src.Read(buf)
	if err != nil || n != 0 {
		t.Fatalf("Read at EOF = (%d, %v), want (0, nil)", n, err)
	}
}

func TestFileSourceSeekOutOfRange(t *testing.T) {
	path := writeTempFile(t, []byte("abc"))
	src, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if err := src.Seek(100); err == nil {
		t.Fatal("expected an error seeking past Len()")
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.bin")); err == nil {
		t.Fatal("expected an error opening a missing file")
	}
}
