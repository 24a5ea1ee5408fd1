// Package audit verifies that every cataloged tool can be constructed and
// minimally exercised without taking the host process down. Each tool is
// probed in its own OS process: manifest tools shell out to arbitrary
// commands that may hang or crash, and neither outcome must reach the
// parent. Results come back on a per-worker channel; the consolidated log
// file is kept as a greppable artifact, not as the transport.
package audit

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outcome classifies one tool's audit result.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
	OutcomeTimeout Outcome = "TIMEOUT"
	OutcomeCrash   Outcome = "CRASH"
)

// Record is one tool's finalized audit outcome.
type Record struct {
	Tool     string        `json:"tool"`
	Outcome  Outcome       `json:"outcome"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Summary aggregates a full audit run. Records preserve the order the
// tools were submitted in, regardless of which worker finished first.
type Summary struct {
	RunID     string    `json:"runId"`
	StartedAt time.Time `json:"startedAt"`
	Records   []Record  `json:"records"`
}

// Total reports how many tools were checked.
func (s *Summary) Total() int { return len(s.Records) }

// Count reports how many records carry the given outcome.
func (s *Summary) Count(outcome Outcome) int {
	n := 0
	for _, rec := range s.Records {
		if rec.Outcome == outcome {
			n++
		}
	}
	return n
}

// Failed reports whether any tool did not succeed.
func (s *Summary) Failed() bool {
	return s.Total() != s.Count(OutcomeSuccess)
}

func (s *Summary) String() string {
	return fmt.Sprintf("checked=%d succeeded=%d failed=%d timeout=%d crash=%d",
		s.Total(), s.Count(OutcomeSuccess), s.Count(OutcomeFailure),
		s.Count(OutcomeTimeout), s.Count(OutcomeCrash))
}

// WorkerCommand builds the subprocess that probes one tool. The command
// must print "SUCCESS: <tool>" or "FAILURE: <tool>: <detail>" as its final
// status line and exit accordingly.
type WorkerCommand func(ctx context.Context, toolName string) *exec.Cmd

// Options configures a Harness. Zero values fall back to sane defaults.
type Options struct {
	// Timeout bounds each worker's wall clock. Default 120s.
	Timeout time.Duration
	// PoolSize caps concurrent workers. Heavy tools can eat hundreds of
	// MB each, so unbounded fan-out is a resource hazard. Default 4.
	PoolSize int
	// LogPath appends one line per outcome to the consolidated audit log.
	// Empty disables file logging.
	LogPath string
	// Command overrides the worker subprocess, primarily for tests.
	// Default: re-exec this binary with "check <tool>".
	Command WorkerCommand
}

// Harness runs isolated per-tool checks with a bounded worker pool.
type Harness struct {
	timeout time.Duration
	pool    int
	logPath string
	command WorkerCommand
}

// New builds a Harness from options.
func New(opts Options) *Harness {
	h := &Harness{
		timeout: opts.Timeout,
		pool:    opts.PoolSize,
		logPath: opts.LogPath,
		command: opts.Command,
	}
	if h.timeout <= 0 {
		h.timeout = 120 * time.Second
	}
	if h.pool <= 0 {
		h.pool = 4
	}
	if h.command == nil {
		h.command = selfCheckCommand
	}
	return h
}

func selfCheckCommand(ctx context.Context, toolName string) *exec.Cmd {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	return exec.CommandContext(ctx, exe, "check", toolName)
}

// Run audits the named tools and returns the summary. Individual tool
// failures, hangs and crashes are recorded, never fatal: the run always
// completes and Total == the number of submitted names. The only error
// case is an unwritable log file.
func (h *Harness) Run(ctx context.Context, names []string) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Records:   make([]Record, len(names)),
	}

	var logFile *logWriter
	if h.logPath != "" {
		lw, err := openLogWriter(h.logPath)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		defer lw.Close()
		logFile = lw
	}

	type job struct {
		idx  int
		name string
	}
	jobs := make(chan job)
	results := make(chan struct {
		idx int
		rec Record
	})

	var wg sync.WaitGroup
	for w := 0; w < h.pool; w++ {
		wg.Add(1)
		worker := fmt.Sprintf("%s/worker-%d", shortID(summary.RunID), w)
		go func() {
			defer wg.Done()
			for j := range jobs {
				rec := h.checkOne(ctx, j.name)
				if logFile != nil {
					logFile.WriteRecord(worker, rec)
				}
				results <- struct {
					idx int
					rec Record
				}{j.idx, rec}
			}
		}()
	}

	go func() {
		for i, name := range names {
			jobs <- job{idx: i, name: name}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	for r := range results {
		summary.Records[r.idx] = r.rec
	}

	if logFile != nil {
		logFile.WriteSummary(shortID(summary.RunID), summary)
	}
	return summary, nil
}

// checkOne spawns one worker and classifies its exit. The worker and the
// parent share no memory; the status line on stdout is the whole protocol,
// so a worker that dies mid-probe still yields a deterministic outcome.
func (h *Harness) checkOne(ctx context.Context, name string) Record {
	workerCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	cmd := h.command(workerCtx, name)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	rec := Record{Tool: name, Duration: duration}

	if errors.Is(workerCtx.Err(), context.DeadlineExceeded) {
		rec.Outcome = OutcomeTimeout
		rec.Detail = fmt.Sprintf("no result within %s", h.timeout)
		return rec
	}

	okLine, failDetail, failFound := scanStatusLines(&buf, name)
	switch {
	case failFound:
		rec.Outcome = OutcomeFailure
		rec.Detail = failDetail
	case okLine && runErr == nil:
		rec.Outcome = OutcomeSuccess
	case runErr != nil:
		rec.Outcome = OutcomeCrash
		rec.Detail = crashDetail(runErr, &buf)
	default:
		rec.Outcome = OutcomeCrash
		rec.Detail = "worker exited without a status line"
	}
	return rec
}

// scanStatusLines looks for the worker protocol lines for the given tool.
func scanStatusLines(buf *bytes.Buffer, name string) (ok bool, failDetail string, failFound bool) {
	scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	okPrefix := string(OutcomeSuccess) + ": " + name
	failPrefix := string(OutcomeFailure) + ": " + name
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == okPrefix {
			ok = true
		}
		if strings.HasPrefix(line, failPrefix) {
			failFound = true
			failDetail = strings.TrimPrefix(line, failPrefix)
			failDetail = strings.TrimSpace(strings.TrimPrefix(failDetail, ":"))
		}
	}
	return ok, failDetail, failFound
}

func crashDetail(runErr error, buf *bytes.Buffer) string {
	detail := runErr.Error()
	if last := lastLine(buf); last != "" {
		detail = detail + ": " + last
	}
	return detail
}

func lastLine(buf *bytes.Buffer) string {
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
