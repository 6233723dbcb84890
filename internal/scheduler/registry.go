package scheduler

import "sync"

// registry holds the scheduler that commands submit through. It is set once
// by Init and read by every call that was not given a scheduler explicitly.
var registry struct {
	mu    sync.RWMutex
	sched Scheduler
}

// SetActiveScheduler replaces the active scheduler; nil clears it.
func SetActiveScheduler(s Scheduler) {
	registry.mu.Lock()
	registry.sched = s
	registry.mu.Unlock()
}

// ActiveScheduler returns the active scheduler, or nil.
func ActiveScheduler() Scheduler {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.sched
}

func ClearActiveScheduler() {
	SetActiveScheduler(nil)
}

// SwapActiveScheduler installs s and returns a func restoring the previous one.
func SwapActiveScheduler(s Scheduler) (restore func()) {
	registry.mu.Lock()
	prev := registry.sched
	registry.sched = s
	registry.mu.Unlock()
	return func() { SetActiveScheduler(prev) }
}
