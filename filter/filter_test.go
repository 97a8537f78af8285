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

package filter

import "testing"

func TestRegexFilterAnchoredCaseSensitive(t *testing.T) {
	f, err := Regex(`^H.*d$`, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !f.IsMatch("Hello World") {
		t.Fatal("expected Hello World to match ^H.*d$")
	}

	f2, err := Regex(`^world$`, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if f2.IsMatch("Hello World") {
		t.Fatal("expected no match for ^world$ (case-sensitive)")
	}
}

func TestRegexFilterIgnoreCase(t *testing.T) {
	f, err := Regex(`^world$`, Options{IgnoreCase: true})
	if err != nil {
		t.Fatal(err)
	}
	if !f.IsMatch("WORLD") {
		t.Fatal("expected case-insensitive match")
	}
}

func TestZeroFilterMatchesEverything(t *testing.T) {
	var f Filter
	if !f.IsMatch("anything at all") {
		t.Fatal("zero-value Filter must match everything")
	}
}

func TestWildcardBasics(t *testing.T) {
	cases := []struct {
		pattern string
		s       string
		want    bool
	}{
		{"*.txt", "report.txt", true},
		{"*.txt", "report.log", false},
		{"file?.log", "file1.log", true},
		{"file?.log", "file12.log", false},
		{"[a-c]at", "bat", true},
		{"[a-c]at", "zat", false},
		{"[^a-c]at", "zat", true},
		{"h`*llo", "h*llo", true},
		{"h`*llo", "hello", false},
		{"*", "anything", true},
		{"*", "", true},
		{"a*b*c", "aXXbYYc", true},
		{"a*b*c", "ac", false},
	}
	for _, c := range cases {
		f, err := Wildcard(c.pattern, Options{})
		if err != nil {
			t.Fatalf("compile %q: %v", c.pattern, err)
		}
		if got := f.IsMatch(c.s); got != c.want {
			t.Errorf("Wildcard(%q).IsMatch(%q) = %v, want %v", c.pattern, c.s, got, c.want)
		}
	}
}

func TestWildcardIgnoreCase(t *testing.T) {
	f, err := Wildcard("HELLO*", Options{IgnoreCase: true})
	if err != nil {
		t.Fatal(err)
	}
	if !f.IsMatch("hello world") {
		t.Fatal("expected case-insensitive wildcard match")
	}
}

func TestWildcardCompileCacheReused(t *testing.T) {
	f1, err := Wildcard("cache*test", Options{})
	if err != nil {
		t.Fatal(err)
	}
	f2, err := Wildcard("cache*test", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !f1.IsMatch("cache-me-test") || !f2.IsMatch("cache-me-test") {
		t.Fatal("expected both compiled filters to match identically")
	}
}

func TestWildcardUnterminatedClassErrors(t *testing.T) {
	if _, err := Wildcard("[abc", Options{}); err == nil {
		t.Fatal("expected an error for an unterminated class")
	}
}
