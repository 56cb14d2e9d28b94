// Package scheduler drives full analysis runs: every tracked asset in
// order, one at a time, with a fixed pause between items.
package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"entrywatch/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// ConsumerID identifies the scheduler to the call coordinator.
const ConsumerID = "analysis-scheduler"

const (
	defaultItemDelay = 12 * time.Second
	defaultCooldown  = 15 * time.Second
)

var (
	ErrRunInProgress = errors.New("analysis run already in progress")
	ErrCoolingDown   = errors.New("analysis run cooldown in effect")
	ErrLockHeld      = errors.New("intensive lock held by another consumer")
)

// AssetAnalyzer performs the per-asset pipeline, mutating the asset copy.
type AssetAnalyzer interface {
	AnalyzeAsset(ctx context.Context, consumerID string, asset *domain.TrackedAsset) error
}

// AssetRegistry is the scheduler's view of the tracked-asset set.
type AssetRegistry interface {
	List() []domain.TrackedAsset
	SetStatus(vendorID string, status domain.AnalysisStatus)
	ApplyAnalysis(asset domain.TrackedAsset)
}

// IntensiveGate is the coordinator's exclusive-lock surface.
type IntensiveGate interface {
	NotifyIntensiveOperationStart(consumerID string) bool
	NotifyIntensiveOperationComplete(consumerID string)
}

// Summary describes one finished run. It is handed to the completion
// callback exactly once per run.
type Summary struct {
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Total     int       `json:"total"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	Cancelled bool      `json:"cancelled"`
}

// Status is a point-in-time view of the scheduler for the API surface.
type Status struct {
	Running           bool      `json:"running"`
	Current           string    `json:"current,omitempty"`
	Processed         int       `json:"processed"`
	Total             int       `json:"total"`
	LastFinished      time.Time `json:"last_finished,omitempty"`
	CooldownRemaining float64   `json:"cooldown_remaining_secs"`
}

type Scheduler struct {
	tracer   trace.Tracer
	analyzer AssetAnalyzer
	registry AssetRegistry
	gate     IntensiveGate

	itemDelay time.Duration
	cooldown  time.Duration

	mu           sync.Mutex
	running      bool
	cancelled    bool
	current      string
	processed    int
	total        int
	lastStarted  time.Time
	lastFinished time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(tracer trace.Tracer, analyzer AssetAnalyzer, registry AssetRegistry, gate IntensiveGate) *Scheduler {
	return &Scheduler{
		tracer:    tracer,
		analyzer:  analyzer,
		registry:  registry,
		gate:      gate,
		itemDelay: defaultItemDelay,
		cooldown:  defaultCooldown,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// SetTiming overrides the inter-item delay and post-run cooldown.
func (s *Scheduler) SetTiming(itemDelay, cooldown time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.itemDelay = itemDelay
	s.cooldown = cooldown
}

// StartRun begins a full pass over the registry in a new goroutine.
// Rejected while a run is active, within the cooldown window of the
// previous run's start, or when the intensive lock is held by someone
// else. onComplete, if non-nil, fires exactly once when the run ends
// for any reason.
func (s *Scheduler) StartRun(ctx context.Context, onComplete func(Summary)) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrRunInProgress
	}
	// The window is anchored to the previous start, not its finish: a
	// long run that already outlasted the cooldown can be followed
	// immediately.
	if !s.lastStarted.IsZero() {
		if remaining := s.cooldown - s.now().Sub(s.lastStarted); remaining > 0 {
			s.mu.Unlock()
			return ErrCoolingDown
		}
	}
	if s.gate != nil && !s.gate.NotifyIntensiveOperationStart(ConsumerID) {
		s.mu.Unlock()
		return ErrLockHeld
	}
	s.lastStarted = s.now()
	s.running = true
	s.cancelled = false
	s.current = ""
	s.processed = 0
	s.total = 0
	s.mu.Unlock()

	go s.run(ctx, onComplete)
	return nil
}

// Cancel requests a cooperative stop. The asset currently in flight
// finishes normally; the run ends at the next checkpoint. Returns false
// when no run is active.
func (s *Scheduler) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.cancelled = true
	return true
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Running:      s.running,
		Current:      s.current,
		Processed:    s.processed,
		Total:        s.total,
		LastFinished: s.lastFinished,
	}
	if !s.running && !s.lastStarted.IsZero() {
		if remaining := s.cooldown - s.now().Sub(s.lastStarted); remaining > 0 {
			st.CooldownRemaining = remaining.Seconds()
		}
	}
	return st
}

func (s *Scheduler) run(ctx context.Context, onComplete func(Summary)) {
	ctx, span := s.tracer.Start(ctx, "scheduler.analysis-run")
	defer span.End()

	assets := s.registry.List()
	summary := Summary{Started: s.now(), Total: len(assets)}

	s.mu.Lock()
	s.total = len(assets)
	s.mu.Unlock()

	log.Printf("analysis run started: %d assets", len(assets))

	for i := range assets {
		if i > 0 {
			if err := s.sleep(ctx, s.itemDelay); err != nil {
				summary.Cancelled = true
				break
			}
		}
		if s.isCancelled() || ctx.Err() != nil {
			summary.Cancelled = true
			break
		}

		asset := assets[i]
		s.setCurrent(asset.VendorID)
		s.registry.SetStatus(asset.VendorID, domain.StatusRunning)

		if err := s.analyzer.AnalyzeAsset(ctx, ConsumerID, &asset); err != nil {
			s.registry.SetStatus(asset.VendorID, domain.StatusError)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				summary.Cancelled = true
				break
			}
			log.Printf("analysis of %s failed: %v", asset.Symbol, err)
			summary.Failed++
			continue
		}

		s.registry.ApplyAnalysis(asset)
		if asset.Status == domain.StatusError {
			summary.Failed++
		}
		summary.Processed++
		s.bumpProcessed()
	}

	summary.Finished = s.now()
	s.finish(summary)

	if onComplete != nil {
		onComplete(summary)
	}
}

func (s *Scheduler) finish(summary Summary) {
	s.mu.Lock()
	s.running = false
	s.current = ""
	s.lastFinished = summary.Finished
	s.mu.Unlock()

	if s.gate != nil {
		s.gate.NotifyIntensiveOperationComplete(ConsumerID)
	}
	log.Printf("analysis run finished: %d/%d processed, %d failed, cancelled=%t",
		summary.Processed, summary.Total, summary.Failed, summary.Cancelled)
}

func (s *Scheduler) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func (s *Scheduler) setCurrent(vendorID string) {
	s.mu.Lock()
	s.current = vendorID
	s.mu.Unlock()
}

func (s *Scheduler) bumpProcessed() {
	s.mu.Lock()
	s.processed++
	s.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
