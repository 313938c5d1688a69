package indicators

// Crossover tracks the sign of fast-slow between successive observations.
// Observe returns +1 on the bar where fast crosses above slow, -1 where it
// crosses below, and 0 otherwise. The first observation can never signal;
// there is no previous relationship to compare against.
type Crossover struct {
	prevDiff float64
	seen     bool
}

func (c *Crossover) Observe(fast, slow float64) int {
	diff := fast - slow

	if !c.seen {
		c.seen = true
		c.prevDiff = diff
		return 0
	}

	prev := c.prevDiff
	c.prevDiff = diff

	switch {
	case prev <= 0 && diff > 0:
		return 1
	case prev >= 0 && diff < 0:
		return -1
	default:
		return 0
	}
}

// Reset forgets the previous observation.
func (c *Crossover) Reset() {
	c.seen = false
	c.prevDiff = 0
}
