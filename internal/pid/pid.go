// Package pid implements a proportional-integral-derivative controller
// with a bounded error-history window for anti-windup protection.
package pid

// Config holds the gains and error-history window size for one
// controller channel. Gains are always injected; nothing in the control
// law is hard-coded to a particular channel.
type Config struct {
	KP     float64 // proportional gain
	KI     float64 // integral gain
	KD     float64 // derivative gain
	Window int     // max retained error samples (anti-windup bound, default 10)
}

// Controller is a single PID channel. It owns its own error history and
// must not be shared between channels; create one instance per control
// axis. Controller is not safe for concurrent use.
type Controller struct {
	cfg Config

	// Fixed-capacity ring of the most recent errors plus a running sum,
	// so the integral term is O(1) per call and bounded to Window samples.
	hist  []float64
	head  int
	count int
	sum   float64

	prevErr  float64
	prevTime float64
}

// New creates a Controller with the given configuration. A non-positive
// Window falls back to 10 samples.
func New(cfg Config) *Controller {
	if cfg.Window <= 0 {
		cfg.Window = 10
	}
	return &Controller{
		cfg:  cfg,
		hist: make([]float64, cfg.Window),
	}
}

// Control computes the controller output for an instantaneous error at
// timestamp t (seconds). It returns (0, false) without mutating any
// state when the timestamp has not advanced past the previous call;
// callers must treat that as "hold the previous command", not zero.
func (c *Controller) Control(err, t float64) (float64, bool) {
	dt := t - c.prevTime
	if dt <= 0 {
		// First call at t=0, a duplicate timestamp, or clock regression.
		return 0, false
	}

	c.push(err)

	u := c.cfg.KP*err + c.cfg.KI*c.sum*dt + c.cfg.KD*(err-c.prevErr)/dt

	c.prevErr = err
	c.prevTime = t
	return u, true
}

// push records err in the bounded history, evicting the oldest sample
// once the window is full so the running sum only ever covers the most
// recent Window errors.
func (c *Controller) push(err float64) {
	if c.count == len(c.hist) {
		c.sum -= c.hist[c.head]
		c.hist[c.head] = err
		c.head = (c.head + 1) % len(c.hist)
	} else {
		c.hist[(c.head+c.count)%len(c.hist)] = err
		c.count++
	}
	c.sum += err
}

// IntegralSum returns the running sum of the errors currently held in
// the history window. Exposed for telemetry and tests.
func (c *Controller) IntegralSum() float64 {
	return c.sum
}

// Reset clears all controller state. Called on (re)start; no state
// survives a process restart.
func (c *Controller) Reset() {
	for i := range c.hist {
		c.hist[i] = 0
	}
	c.head = 0
	c.count = 0
	c.sum = 0
	c.prevErr = 0
	c.prevTime = 0
}
