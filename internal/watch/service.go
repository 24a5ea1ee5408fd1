// Package watch re-runs the tool audit on a schedule and whenever the
// manifest directory changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	rcron "github.com/robfig/cron/v3"
)

// AuditFunc runs one audit pass and reports whether anything failed.
type AuditFunc func(ctx context.Context) error

// Options configures a watch Service.
type Options struct {
	// Schedule is a cron spec (with seconds). Empty disables scheduled runs.
	Schedule string
	// ToolsDir is watched for manifest changes. Empty disables watching.
	ToolsDir string
	// Debounce collapses bursts of filesystem events into one audit.
	Debounce time.Duration
	// SignalChan overrides the OS signal source, for tests.
	SignalChan chan os.Signal
}

// Service drives periodic and reactive audit runs until stopped.
type Service struct {
	opts     Options
	runAudit AuditFunc
	cron     *rcron.Cron
}

// New builds a Service around the given audit function.
func New(opts Options, runAudit AuditFunc) *Service {
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}
	return &Service{opts: opts, runAudit: runAudit}
}

// Run performs an initial audit, then blocks re-running it on schedule and
// on manifest changes until the context is cancelled or a termination
// signal arrives. Audit failures are logged, not fatal: the watcher's job
// is to keep reporting, not to stop at the first broken tool.
func (s *Service) Run(ctx context.Context) error {
	if s.runAudit == nil {
		return errors.New("no audit function configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.runAudit(runCtx); err != nil {
		log.Printf("[watch] initial audit: %v", err)
	}

	trigger := make(chan string, 1)

	if s.opts.Schedule != "" {
		s.cron = rcron.New(rcron.WithSeconds())
		if _, err := s.cron.AddFunc(s.opts.Schedule, func() {
			select {
			case trigger <- "schedule":
			default:
			}
		}); err != nil {
			return fmt.Errorf("register schedule %q: %w", s.opts.Schedule, err)
		}
		s.cron.Start()
		defer s.cron.Stop()
		log.Printf("[watch] scheduled audits: %s", s.opts.Schedule)
	}

	var watcher *fsnotify.Watcher
	if s.opts.ToolsDir != "" {
		if _, err := os.Stat(s.opts.ToolsDir); err == nil {
			w, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer w.Close()
			if err := w.Add(s.opts.ToolsDir); err != nil {
				return fmt.Errorf("watch %s: %w", s.opts.ToolsDir, err)
			}
			watcher = w
			log.Printf("[watch] watching %s", s.opts.ToolsDir)
		} else {
			log.Printf("[watch] tools dir %s not found, change watching disabled", s.opts.ToolsDir)
		}
	}

	sigChan := s.opts.SignalChan
	if sigChan == nil {
		sigChan = make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
	}

	var debounce *time.Timer
	var debounceC <-chan time.Time

	events := eventChan(watcher)
	watchErrs := errChan(watcher)

	for {
		select {
		case <-runCtx.Done():
			return runCtx.Err()
		case sig := <-sigChan:
			log.Printf("[watch] received %v, shutting down", sig)
			return nil
		case reason := <-trigger:
			log.Printf("[watch] audit trigger: %s", reason)
			if err := s.runAudit(runCtx); err != nil {
				log.Printf("[watch] audit: %v", err)
			}
		case ev := <-events:
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(s.opts.Debounce)
				debounceC = debounce.C
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(s.opts.Debounce)
			}
		case <-debounceC:
			debounce = nil
			debounceC = nil
			log.Printf("[watch] audit trigger: manifest change")
			if err := s.runAudit(runCtx); err != nil {
				log.Printf("[watch] audit: %v", err)
			}
		case err := <-watchErrs:
			if err != nil {
				log.Printf("[watch] watcher error: %v", err)
			}
		}
	}
}

func eventChan(w *fsnotify.Watcher) <-chan fsnotify.Event {
	if w == nil {
		return nil
	}
	return w.Events
}

func errChan(w *fsnotify.Watcher) <-chan error {
	if w == nil {
		return nil
	}
	return w.Errors
}
