package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Rule is a {limit, window} pair for one protected action
type Rule struct {
	Limit  int
	Window time.Duration
}

// Named presets, one per protected endpoint. They are deliberately not
// shared: exhausting the bid budget must not lock a bidder out of
// authentication.
var (
	BidSubmission  = Rule{Limit: 10, Window: time.Minute}
	Authentication = Rule{Limit: 5, Window: 15 * time.Minute}
	StatusPoll     = Rule{Limit: 60, Window: time.Minute}
)

// Result reports the outcome of a rate-limit check
type Result struct {
	Allowed           bool
	Remaining         int
	RetryAfterSeconds int
}

// Limiter decides whether a request identified by key may proceed under the
// given rule. Distinct keys are fully independent.
type Limiter interface {
	Check(ctx context.Context, key string, rule Rule) (Result, error)
}

// sweepEvery is how many checks pass between opportunistic sweeps of
// fully-aged keys. Cleanup is amortized rather than timer-driven.
const sweepEvery = 256

type entry struct {
	stamps []time.Time
	window time.Duration // window of the last rule applied, used by the sweep
}

// SlidingWindow is an in-memory Limiter counting request timestamps within a
// trailing window. It is single-process state: a multi-instance deployment
// needs the Redis-backed limiter instead.
type SlidingWindow struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
	checks  int
}

// Option configures a SlidingWindow
type Option func(*SlidingWindow)

// WithClock overrides the time source, for tests
func WithClock(now func() time.Time) Option {
	return func(s *SlidingWindow) { s.now = now }
}

// NewSlidingWindow creates an empty limiter
func NewSlidingWindow(opts ...Option) *SlidingWindow {
	s := &SlidingWindow{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check prunes timestamps older than the window, rejects when the remaining
// count has reached the limit, and otherwise records the call. The retry hint
// on rejection is the time until the oldest counted request leaves the
// window, rounded up to whole seconds.
func (s *SlidingWindow) Check(_ context.Context, key string, rule Rule) (Result, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.checks++
	if s.checks%sweepEvery == 0 {
		s.sweep(now)
	}

	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	e.window = rule.Window
	e.stamps = prune(e.stamps, now.Add(-rule.Window))

	if len(e.stamps) >= rule.Limit {
		oldest := e.stamps[0]
		wait := oldest.Add(rule.Window).Sub(now)
		retry := int(math.Ceil(wait.Seconds()))
		if retry < 1 {
			retry = 1
		}
		return Result{Allowed: false, Remaining: 0, RetryAfterSeconds: retry}, nil
	}

	e.stamps = append(e.stamps, now)
	return Result{Allowed: true, Remaining: rule.Limit - len(e.stamps)}, nil
}

// prune drops timestamps at or before cutoff. Stamps are appended in order,
// so a single scan from the front suffices.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return stamps
	}
	return append(stamps[:0], stamps[i:]...)
}

// sweep evicts keys whose timestamps have all aged out, bounding memory over
// the life of the process. Called with the mutex held.
func (s *SlidingWindow) sweep(now time.Time) {
	for key, e := range s.entries {
		e.stamps = prune(e.stamps, now.Add(-e.window))
		if len(e.stamps) == 0 {
			delete(s.entries, key)
		}
	}
}

// Len reports the number of tracked keys
func (s *SlidingWindow) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
