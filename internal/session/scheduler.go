package session

import "time"

// Scheduler abstracts the debounce timer so tests can drive time
// deterministically instead of sleeping.
type Scheduler interface {
	// Schedule runs fn after delay and returns a cancel func. Cancel is
	// best-effort: a callback already running cannot be stopped.
	Schedule(delay time.Duration, fn func()) (cancel func())
}

// TimerScheduler schedules on real timers.
type TimerScheduler struct{}

// Schedule runs fn after delay via time.AfterFunc.
func (TimerScheduler) Schedule(delay time.Duration, fn func()) func() {
	t := time.AfterFunc(delay, fn)
	return func() { t.Stop() }
}
