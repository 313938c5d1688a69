package journal

import "sync"

// Counting decorates a Journal with trade/signal tallies. Wrap the
// session journal with it and hand the same instance to both the broker
// and the runner so every record passes through one counter.
type Counting struct {
	Journal

	mu      sync.Mutex
	trades  int
	signals int
}

func WithCounts(j Journal) *Counting {
	return &Counting{Journal: j}
}

func (c *Counting) RecordTrade(t TradeRecord) error {
	c.mu.Lock()
	c.trades++
	c.mu.Unlock()

	if c.Journal == nil {
		return nil
	}
	return c.Journal.RecordTrade(t)
}

func (c *Counting) RecordSignal(s SignalRecord) error {
	c.mu.Lock()
	c.signals++
	c.mu.Unlock()

	if c.Journal == nil {
		return nil
	}
	return c.Journal.RecordSignal(s)
}

func (c *Counting) StartSession(s SessionStart) (string, error) {
	if c.Journal == nil {
		return "", nil
	}
	return c.Journal.StartSession(s)
}

func (c *Counting) RecordSnapshot(s SnapshotRecord) error {
	if c.Journal == nil {
		return nil
	}
	return c.Journal.RecordSnapshot(s)
}

func (c *Counting) EndSession(e SessionEnd) error {
	if c.Journal == nil {
		return nil
	}
	return c.Journal.EndSession(e)
}

func (c *Counting) Close() error {
	if c.Journal == nil {
		return nil
	}
	return c.Journal.Close()
}

func (c *Counting) Trades() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trades
}

func (c *Counting) Signals() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signals
}
