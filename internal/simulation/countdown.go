package simulation

import "math"

const countdownEpsilon = 1e-9

// countdown is the pre-race timer. It is advanced by Tick and announces one
// tick per elapsed second, starting from floor(duration) down to 0 (GO),
// then waits out the GO hold. A fractional part of the duration is dropped.
type countdown struct {
	elapsed float64
	first   int
	next    int // next whole second to announce
	hold    float64
	goShown bool
}

// newCountdown announces floor(duration) right away. A non-positive duration
// goes straight to GO.
func newCountdown(duration, hold float64, emit func(int)) *countdown {
	if duration < 0 || math.IsNaN(duration) {
		duration = 0
	}
	if hold < 0 || math.IsNaN(hold) {
		hold = 0
	}
	first := int(math.Floor(duration))
	c := &countdown{first: first, next: first - 1, hold: hold}
	emit(first)
	if first == 0 {
		c.goShown = true
	}
	return c
}

// Seconds is the whole seconds left before GO, rounded up.
func (c *countdown) Seconds() int {
	left := float64(c.first) - c.elapsed
	if c.goShown || left <= 0 {
		return 0
	}
	return int(math.Ceil(left - countdownEpsilon))
}

// advance moves the timer by dt and reports whether the race should begin.
func (c *countdown) advance(dt float64, emit func(int)) bool {
	if c.goShown {
		c.hold -= dt
		return c.hold <= countdownEpsilon
	}
	c.elapsed += dt
	for c.next >= 0 && c.elapsed+countdownEpsilon >= float64(c.first-c.next) {
		emit(c.next)
		c.next--
	}
	if c.next >= 0 {
		return false
	}
	c.goShown = true
	// time past the GO boundary counts toward the hold
	c.hold -= c.elapsed - float64(c.first)
	return c.hold <= countdownEpsilon
}
