package ratelimit

import (
	"sync"
	"time"
)

// Result is the outcome of one TryAcquire call.
type Result struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// window is the per-key fixed-window counter state. Windows reset lazily:
// the first check after resetsAt re-initializes the window, no background
// sweep runs.
type window struct {
	count    int
	resetsAt time.Time
}

// FixedWindow bounds outbound request rate per key. Safe for concurrent
// callers; increments happen under one mutex so none are lost.
type FixedWindow struct {
	MaxRequests int
	WindowSize  time.Duration

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

func NewFixedWindow(maxRequests int, windowSize time.Duration) *FixedWindow {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if windowSize <= 0 {
		windowSize = time.Minute
	}
	return &FixedWindow{
		MaxRequests: maxRequests,
		WindowSize:  windowSize,
		Now:         time.Now,
		windows:     make(map[string]*window),
	}
}

// TryAcquire records one request against key if the current window has
// capacity. It never blocks; a denied caller should wait ResetIn and retry.
func (f *FixedWindow) TryAcquire(key string) Result {
	now := f.Now()

	f.mu.Lock()
	defer f.mu.Unlock()

	w, ok := f.windows[key]
	if !ok || !now.Before(w.resetsAt) {
		w = &window{count: 1, resetsAt: now.Add(f.WindowSize)}
		f.windows[key] = w
		return Result{Allowed: true, Remaining: f.MaxRequests - 1, ResetIn: f.WindowSize}
	}

	resetIn := w.resetsAt.Sub(now)
	if w.count >= f.MaxRequests {
		return Result{Allowed: false, Remaining: 0, ResetIn: resetIn}
	}
	w.count++
	return Result{Allowed: true, Remaining: f.MaxRequests - w.count, ResetIn: resetIn}
}
