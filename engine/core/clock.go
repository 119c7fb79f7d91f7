package core

import "time"

type Clock struct {
	startTime time.Time
	lastTick  time.Time
	elapsed   time.Duration
	running   bool
	now       func() time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if c.running {
		c.elapsed = c.now().Sub(c.startTime)
	}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = c.now()
	c.lastTick = c.startTime
	c.elapsed = 0
	c.running = true
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.running = false
}

// Elapsed returns the seconds between Start and the last Update.
func (c *Clock) Elapsed() float64 {
	return c.elapsed.Seconds()
}

// Tick returns the seconds since the previous Tick (or Start), clamped to
// maxDelta so a resumed background tab does not produce a huge step.
func (c *Clock) Tick(maxDelta float64) float64 {
	if !c.running {
		return 0
	}
	now := c.now()
	dt := now.Sub(c.lastTick).Seconds()
	c.lastTick = now
	return ClampDelta(dt, maxDelta)
}

// ClampDelta keeps a frame delta inside [0, maxDelta].
func ClampDelta(dt, maxDelta float64) float64 {
	if dt < 0 || dt != dt {
		return 0
	}
	if maxDelta > 0 && dt > maxDelta {
		return maxDelta
	}
	return dt
}
