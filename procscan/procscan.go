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

// Package procscan implements ProcessScanner: the driver that iterates
// a list of process IDs and runs one scan.Orchestrator scan per
// process, each against its own procmem.ProcessStream.
package procscan

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/gostrings/gostrings/procmem"
	"github.com/gostrings/gostrings/scan"
	"github.com/gostrings/gostrings/scanresult"
)

// RequestTemplate is the per-scan configuration shared by every
// process a ProcessScanner visits; Source and MakeResult are filled in
// per process.
type RequestTemplate = scan.Request

// ProcessScanner drives one or more scan.Orchestrator runs, one per
// PID, each over its own procmem.ProcessStream.
type ProcessScanner struct {
	Orchestrator *scan.Orchestrator
	// MemoryFlags selects which MemoryRegionTypes to retain; zero means
	// procmem.FlagAll.
	MemoryFlags procmem.ReadMemoryFlags
	// Parallel runs one goroutine per PID instead of scanning them
	// sequentially.
	Parallel bool
	Logger   *log.Logger
}

func (s *ProcessScanner) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.New(io.Discard, "", 0)
}

func (s *ProcessScanner) orchestrator() *scan.Orchestrator {
	if s.Orchestrator != nil {
		return s.Orchestrator
	}
	return &scan.Orchestrator{}
}

func (s *ProcessScanner) flags() procmem.ReadMemoryFlags {
	if s.MemoryFlags == 0 {
		return procmem.FlagAll
	}
	return s.MemoryFlags
}

// Scan opens each pid's ProcessStream and runs tmpl (minus Source and
// MakeResult, which ProcessScanner fills in per process) against it. A
// process that fails to open (e.g. insufficient permissions) is logged
// and skipped; other processes still run.
func (s *ProcessScanner) Scan(pids []int, tmpl RequestTemplate) error {
	lg := s.logger()

	if !s.Parallel {
		var errs []error
		for _, pid := range pids {
			if tmpl.Cancel.Cancelled() {
				break
			}
			if err := s.scanOne(pid, tmpl); err != nil {
				lg.Printf("procscan: pid %d: %v", pid, err)
				errs = append(errs, err)
			}
		}
		return joinErrors(errs)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(pids))
	wg.Add(len(pids))
	for i, pid := range pids {
		go func(i, pid int) {
			defer wg.Done()
			if err := s.scanOne(pid, tmpl); err != nil {
				lg.Printf("procscan: pid %d: %v", pid, err)
				errs[i] = err
			}
		}(i, pid)
	}
	wg.Wait()
	return joinErrors(errs)
}

func (s *ProcessScanner) scanOne(pid int, tmpl RequestTemplate) error {
	stream, err := procmem.Open(pid, s.flags())
	if err != nil {
		return fmt.Errorf("open process %d: %w", pid, err)
	}
	defer stream.Close()

	req := tmpl
	req.Source = stream
	req.MakeResult = func(enc scanresult.EncodingTag, offsetStart, offsetEnd uint64, str string) scanresult.Result {
		info, infoErr := stream.Info(offsetStart)
		res := scanresult.Result{
			Encoding:    enc,
			OffsetStart: offsetStart,
			OffsetEnd:   offsetEnd,
			String:      str,
		}
		if infoErr != nil {
			// Info failing for an offset the decoder just produced a
			// run at would mean the region table changed mid-scan,
			// which ProcessStream never does after Open; fall back to
			// the raw logical offsets rather than fail the whole item.
			res.Process = &scanresult.ProcessResult{PID: uint32(pid)}
			return res
		}
		res.OffsetStart = info.RelativeVA
		res.OffsetEnd = info.RelativeVA + (offsetEnd - offsetStart)
		res.Process = &scanresult.ProcessResult{
			PID:        info.PID,
			Name:       info.ImageName,
			RegionType: info.RegionType,
			Details:    info.Detail,
		}
		return res
	}
	return s.orchestrator().Scan(req)
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
	return fmt.Errorf("procscan: %d of %d items failed, first: %w", n, len(errs), first)
}
