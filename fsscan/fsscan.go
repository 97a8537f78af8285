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

// Package fsscan implements FileScanner: the driver that expands a
// single path, a directory, a recursive directory, or a wildcard glob
// into a list of files and runs one scan.Orchestrator scan per file.
package fsscan

import (
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gostrings/gostrings/bytesource"
	"github.com/gostrings/gostrings/fsutil"
	"github.com/gostrings/gostrings/scan"
	"github.com/gostrings/gostrings/scanresult"
)

// Kind selects how Target.Path is interpreted.
type Kind int

const (
	// Single scans exactly the file named by Target.Path.
	Single Kind = iota
	// Directory scans every regular file directly inside Target.Path,
	// or the whole subtree when Target.Recurse is set.
	Directory
	// Glob scans every file matching Target.Path as a `*`/`?` wildcard
	// pattern, resolved against its parent directory.
	Glob
)

// Target describes the input-expansion half of a file scan, per
// a target expands into zero or more concrete file paths.
type Target struct {
	Kind    Kind
	Path    string
	Recurse bool
}

// RequestTemplate is the per-scan configuration shared by every file a
// FileScanner visits; Source and MakeResult are filled in per file.
type RequestTemplate = scan.Request

// FileScanner drives one or more scan.Orchestrator runs over files
// expanded from a Target.
type FileScanner struct {
	Orchestrator *scan.Orchestrator
	// Parallel runs one goroutine per matched file instead of scanning
	// them sequentially.
	Parallel bool
	// OutputSinkPath, when non-empty, is the configured output
	// destination: any input file resolving to the same path is
	// skipped.
	OutputSinkPath string
	Logger         *log.Logger
}

func (s *FileScanner) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.New(io.Discard, "", 0)
}

func (s *FileScanner) orchestrator() *scan.Orchestrator {
	if s.Orchestrator != nil {
		return s.Orchestrator
	}
	return &scan.Orchestrator{}
}

// Scan expands target into a file list and runs tmpl (minus Source and
// MakeResult, which FileScanner fills in per file) against each one.
func (s *FileScanner) Scan(target Target, tmpl RequestTemplate) error {
	files, err := s.expand(target)
	if err != nil {
		return fmt.Errorf("fsscan: expand %s: %w", target.Path, err)
	}
	sort.Strings(files)

	lg := s.logger()
	var skipPath string
	if s.OutputSinkPath != "" {
		if abs, err := filepath.Abs(s.OutputSinkPath); err == nil {
			skipPath = abs
		} else {
			skipPath = s.OutputSinkPath
		}
	}

	kept := files[:0]
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err == nil && skipPath != "" && abs == skipPath {
			lg.Printf("fsscan: skipping %s (matches output sink path)", f)
			continue
		}
		kept = append(kept, f)
	}
	files = kept

	if !s.Parallel {
		var errs []error
		for _, f := range files {
			if tmpl.Cancel.Cancelled() {
				break
			}
			if err := s.scanOne(f, tmpl); err != nil {
				lg.Printf("fsscan: %s: %v", f, err)
				errs = append(errs, err)
			}
		}
		return joinErrors(errs)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(files))
	wg.Add(len(files))
	for i, f := range files {
		go func(i int, f string) {
			defer wg.Done()
			if err := s.scanOne(f, tmpl); err != nil {
				lg.Printf("fsscan: %s: %v", f, err)
				errs[i] = err
			}
		}(i, f)
	}
	wg.Wait()
	return joinErrors(errs)
}

func joinErrors(errs []error) error {
	var n int
	var first error
	for _, e := range errs {
		if e != nil {
			n++
			if first == nil {
				first = e
			}
		}
	}
	if n == 0 {
		return nil
	}
	if n == 1 {
		return first
	}
	return fmt.Errorf("fsscan: %d of %d items failed, first: %w", n, len(errs), first)
}

func (s *FileScanner) scanOne(path string, tmpl RequestTemplate) error {
	src, err := bytesource.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	req := tmpl
	req.Source = src
	req.MakeResult = func(enc scanresult.EncodingTag, offsetStart, offsetEnd uint64, str string) scanresult.Result {
		return scanresult.Result{
			Encoding:    enc,
			OffsetStart: offsetStart,
			OffsetEnd:   offsetEnd,
			String:      str,
			File:        &scanresult.FileResult{Path: path},
		}
	}
	return s.orchestrator().Scan(req)
}

// expand resolves target into a list of candidate file paths (relative
// paths stay relative),
// honoring Single/Directory(+Recurse)/Glob.
func (s *FileScanner) expand(target Target) ([]string, error) {
	switch target.Kind {
	case Single:
		return []string{target.Path}, nil
	case Directory:
		return expandDirectory(target.Path, target.Recurse)
	case Glob:
		return expandGlob(target.Path)
	default:
		return nil, fmt.Errorf("fsscan: unknown target kind %d", target.Kind)
	}
}

func expandDirectory(dir string, recurse bool) ([]string, error) {
	root := os.DirFS(dir)
	var out []string
	if recurse {
		err := fsutil.WalkDir(root, ".", "", "", func(name string, d fsutil.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				out = append(out, filepath.Join(dir, name))
			}
			return nil
		})
		return out, err
	}
	err := fsutil.VisitDir(root, ".", "", "", func(d fsutil.DirEntry) error {
		if !d.IsDir() {
			out = append(out, filepath.Join(dir, d.Name()))
		}
		return nil
	})
	return out, err
}

// expandGlob resolves a `*`/`?` wildcard pattern against its parent
// directory, so a pattern like "/var/log/*.log" only ever matches
// directory" rule. filepath.Dir(pattern) becomes the walk root so the
// glob only ever matches within the one directory it names.
func expandGlob(pattern string) ([]string, error) {
	dir := filepath.Dir(pattern)
	base := filepath.Base(pattern)
	root := os.DirFS(dir)

	var out []string
	err := fsutil.WalkGlob(root, "", base, func(name string, f fs.File, err error) error {
		if err != nil {
			return err
		}
		defer f.Close()
		out = append(out, filepath.Join(dir, name))
		return nil
	})
	return out, err
}
