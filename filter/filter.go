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

// Package filter implements the optional regex/wildcard predicate the
// scan orchestrator applies to each decoded string before handing it to
// the sink.
package filter

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Options controls case sensitivity shared by both filter kinds.
type Options struct {
	IgnoreCase bool
}

// Filter is either a compiled regex or a compiled wildcard matcher. The
// zero Filter matches everything (no filter configured).
type Filter struct {
	kind    kind
	re      *regexp.Regexp
	program wildcardProgram
}

type kind int

const (
	kindNone kind = iota
	kindRegex
	kindWildcard
)

// compileCache memoizes wildcard compilation per (pattern, options), per
// design note 9 ("pattern compilation is cached per (pattern, options)").
var compileCache sync.Map // map[wildcardCacheKey]wildcardProgram

type wildcardCacheKey struct {
	pattern    string
	ignoreCase bool
}

// Regex compiles pattern as a regular expression. Matching is
// thread-safe once compiled (stdlib *regexp.Regexp is safe for
// concurrent use).
func Regex(pattern string, opts Options) (Filter, error) {
	p := pattern
	if opts.IgnoreCase {
		p = "(?i)" + p
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return Filter{}, fmt.Errorf("filter: invalid regex %q: %w", pattern, err)
	}
	return Filter{kind: kindRegex, re: re}, nil
}

// Wildcard compiles pattern as a shell-style wildcard: `*` matches any
// run of characters, `?` matches exactly one, `[abc]`/`[a-z]` match a
// set or range, and a backtick escapes the following character so it is
// matched literally.
func Wildcard(pattern string, opts Options) (Filter, error) {
	key := wildcardCacheKey{pattern: pattern, ignoreCase: opts.IgnoreCase}
	if cached, ok := compileCache.Load(key); ok {
		return Filter{kind: kindWildcard, program: cached.(wildcardProgram)}, nil
	}
	prog, err := compileWildcard(pattern, opts)
	if err != nil {
		return Filter{}, fmt.Errorf("filter: invalid wildcard %q: %w", pattern, err)
	}
	compileCache.Store(key, prog)
	return Filter{kind: kindWildcard, program: prog}, nil
}

// IsMatch reports whether s satisfies the filter. A zero-value Filter
// (no filter configured) matches every string.
func (f Filter) IsMatch(s string) bool {
	switch f.kind {
	case kindRegex:
		return f.re.MatchString(s)
	case kindWildcard:
		return f.program.match(s)
	default:
		return true
	}
}

// String renders the filter kind for logging.
func (f Filter) String() string {
	switch f.kind {
	case kindRegex:
		return "regex(" + f.re.String() + ")"
	case kindWildcard:
		return "wildcard(" + strings.Join(f.program.source, "") + ")"
	default:
		return "none"
	}
}
