package audit

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"
)

// Audit log line shape:
//
//	2026-03-14T09:26:53Z [a1b2c3d4/worker-0] ERROR TIMEOUT: slow_tool: no result within 2m0s
//
// Timestamp, process name, level, outcome prefix, tool, optional detail.
// Each outcome is exactly one line so the file stays greppable; Tally
// recomputes the counts from nothing but this artifact.

var statusLineRE = regexp.MustCompile(`\b(SUCCESS|FAILURE|TIMEOUT|CRASH): ([^\s:]+)`)

// logWriter serializes appends to the shared audit log. Workers log
// through the parent rather than writing the file themselves, so lines
// from concurrent checks never interleave mid-line.
type logWriter struct {
	mu sync.Mutex
	f  *os.File
}

func openLogWriter(path string) (*logWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &logWriter{f: f}, nil
}

func (w *logWriter) WriteRecord(proc string, rec Record) {
	level := "INFO"
	if rec.Outcome != OutcomeSuccess {
		level = "ERROR"
	}
	line := fmt.Sprintf("%s [%s] %s %s: %s", time.Now().UTC().Format(time.RFC3339), proc, level, rec.Outcome, rec.Tool)
	if rec.Detail != "" {
		line += ": " + rec.Detail
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintln(w.f, line)
}

func (w *logWriter) WriteSummary(proc string, s *Summary) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.f, "%s [%s] INFO audit run %s complete: %s\n",
		time.Now().UTC().Format(time.RFC3339), proc, s.RunID, s.String())
}

func (w *logWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// Tally holds outcome counts recomputed from the log artifact.
type Tally struct {
	Success int
	Failure int
	Timeout int
	Crash   int
}

// Total reports the number of outcome lines counted.
func (t Tally) Total() int { return t.Success + t.Failure + t.Timeout + t.Crash }

// ParseLog recomputes a tally from the consolidated audit log. This is the
// consumer-facing half of the greppable-log contract; the live run itself
// collects results over channels and never re-reads the file.
func ParseLog(path string) (Tally, error) {
	var tally Tally
	f, err := os.Open(path)
	if err != nil {
		return tally, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := statusLineRE.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		switch Outcome(m[1]) {
		case OutcomeSuccess:
			tally.Success++
		case OutcomeFailure:
			tally.Failure++
		case OutcomeTimeout:
			tally.Timeout++
		case OutcomeCrash:
			tally.Crash++
		}
	}
	if err := scanner.Err(); err != nil {
		return tally, fmt.Errorf("read audit log: %w", err)
	}
	return tally, nil
}
