package drive

import "time"

// Step exposes the single-cycle path so tests can drive ticks
// deterministically without a running loop.
func (d *Driver) Step(now time.Time) {
	d.step(now)
}

// SetStart pins the loop start time for startup-delay tests.
func (d *Driver) SetStart(t time.Time) {
	d.mu.Lock()
	d.start = t
	d.mu.Unlock()
}
