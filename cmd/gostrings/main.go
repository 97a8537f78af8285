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

//go:build linux

// Command gostrings is a minimal entry point wiring fsscan.FileScanner
// and procscan.ProcessScanner to a line-oriented sink. Full CLI UX,
// help text, and concrete printer sinks (CSV/XML/JSON) are out of
// scope; this exists to give the scanning engine a runnable home.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/gostrings/gostrings/decode"
	"github.com/gostrings/gostrings/filter"
	"github.com/gostrings/gostrings/fsscan"
	"github.com/gostrings/gostrings/procscan"
	"github.com/gostrings/gostrings/scan"
	"github.com/gostrings/gostrings/scanresult"
)

var (
	dashRecurse    bool
	dashMinLength  int
	dashEncoding   string
	dashExclCtrl   bool
	dashFilterKind string
	dashFilter     string
	dashIgnoreCase bool
	dashSync       bool
	dashOutput     string
	dashPids       string
)

func init() {
	flag.BoolVar(&dashRecurse, "recurse", false, "recurse into subdirectories (directory targets only)")
	flag.IntVar(&dashMinLength, "n", 3, "minimum run length to report")
	flag.StringVar(&dashEncoding, "encoding", "", "comma-separated encodings: ascii,utf8,unicode (default utf8,unicode)")
	flag.BoolVar(&dashExclCtrl, "exclude-control", false, "treat HT/LF/CR as non-printable")
	flag.StringVar(&dashFilterKind, "filter-kind", "wildcard", "filter kind: wildcard or regex")
	flag.StringVar(&dashFilter, "filter", "", "optional wildcard or regex filter applied to each match")
	flag.BoolVar(&dashIgnoreCase, "ignore-case", false, "case-insensitive filter matching")
	flag.BoolVar(&dashSync, "sync", false, "disable per-buffer decoder parallelism")
	flag.StringVar(&dashOutput, "o", "", "output file (default stdout)")
	flag.StringVar(&dashPids, "pid", "", "comma-separated process IDs to scan instead of file targets")
}

func main() {
	flag.Parse()
	lg := log.New(os.Stderr, "gostrings: ", 0)

	out := os.Stdout
	if dashOutput != "" {
		f, err := os.Create(dashOutput)
		if err != nil {
			lg.Fatalf("opening output: %v", err)
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)
	defer w.Flush()

	sink := scanresult.SinkFunc(func(r scanresult.Result) error {
		_, err := fmt.Fprintf(w, "%s\n", formatResult(r))
		return err
	})

	cfg := decode.NewDecodeConfig()
	cfg.MinLength = dashMinLength
	cfg.ExcludeControl = dashExclCtrl

	encFlags, err := parseEncoding(dashEncoding)
	if err != nil {
		lg.Fatalf("%v", err)
	}

	f, err := parseFilter()
	if err != nil {
		lg.Fatalf("%v", err)
	}

	req := scan.Request{
		Config:   cfg,
		Encoding: encFlags,
		Filter:   f,
		Sync:     dashSync,
		Sink:     sink,
	}

	if dashPids != "" {
		runProcessScan(lg, req)
		return
	}
	runFileScan(lg, req)
}

func parseEncoding(spec string) (scan.EncodingFlag, error) {
	if spec == "" {
		return 0, nil
	}
	var flags scan.EncodingFlag
	for _, name := range strings.Split(spec, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "ascii":
			flags |= scan.EncodingASCII
		case "utf8", "utf-8":
			flags |= scan.EncodingUTF8
		case "unicode", "utf16", "utf-16":
			flags |= scan.EncodingUnicode
		default:
			return 0, fmt.Errorf("unknown -encoding value %q", name)
		}
	}
	return flags, nil
}

func parseFilter() (filter.Filter, error) {
	if dashFilter == "" {
		return filter.Filter{}, nil
	}
	opts := filter.Options{IgnoreCase: dashIgnoreCase}
	switch strings.ToLower(dashFilterKind) {
	case "regex":
		return filter.Regex(dashFilter, opts)
	default:
		return filter.Wildcard(dashFilter, opts)
	}
}

func runFileScan(lg *log.Logger, req scan.Request) {
	args := flag.Args()
	if len(args) == 0 {
		lg.Fatal("usage: gostrings [flags] <file|dir|glob>...")
	}

	fs := &fsscan.FileScanner{
		Logger:         lg,
		OutputSinkPath: dashOutput,
	}
	for _, arg := range args {
		target := classifyTarget(arg)
		if err := fs.Scan(target, req); err != nil {
			lg.Printf("%s: %v", arg, err)
		}
	}
}

func classifyTarget(arg string) fsscan.Target {
	if strings.ContainsAny(arg, "*?") {
		return fsscan.Target{Kind: fsscan.Glob, Path: arg}
	}
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		return fsscan.Target{Kind: fsscan.Directory, Path: arg, Recurse: dashRecurse}
	}
	return fsscan.Target{Kind: fsscan.Single, Path: arg}
}

func runProcessScan(lg *log.Logger, req scan.Request) {
	var pids []int
	for _, s := range strings.Split(dashPids, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		pid, err := strconv.Atoi(s)
		if err != nil {
			lg.Fatalf("bad -pid value %q: %v", s, err)
		}
		pids = append(pids, pid)
	}

	ps := &procscan.ProcessScanner{Logger: lg}
	if err := ps.Scan(pids, req); err != nil {
		lg.Printf("%v", err)
	}
}

func formatResult(r scanresult.Result) string {
	switch {
	case r.File != nil:
		return fmt.Sprintf("%s:%d:%s:%s", r.File.Path, r.OffsetStart, r.Encoding, r.String)
	case r.Process != nil:
		return fmt.Sprintf("pid=%d:%s:%d:%s:%s", r.Process.PID, r.Process.RegionType, r.OffsetStart, r.Encoding, r.String)
	default:
		return fmt.Sprintf("%d:%s:%s", r.OffsetStart, r.Encoding, r.String)
	}
}
