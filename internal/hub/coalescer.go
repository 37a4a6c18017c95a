package hub

import (
	"sync"
	"time"
)

// Coalescer batches per-tab screen updates so a chatty child produces a
// bounded broadcast rate. Later rows overwrite earlier ones for the
// same line; the flush interval bounds added latency.
type Coalescer struct {
	mu       sync.Mutex
	pending  map[string]*pendingScreen
	interval time.Duration
	onFlush  func(msg ScreenMessage)
}

type pendingScreen struct {
	msg   ScreenMessage
	timer *time.Timer
}

func NewCoalescer(interval time.Duration, onFlush func(ScreenMessage)) *Coalescer {
	return &Coalescer{
		pending:  make(map[string]*pendingScreen),
		interval: interval,
		onFlush:  onFlush,
	}
}

func (c *Coalescer) Add(msg ScreenMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, exists := c.pending[msg.Tab]
	if !exists {
		p = &pendingScreen{msg: ScreenMessage{
			Type: msg.Type,
			Tab:  msg.Tab,
			Rows: make(map[int]string),
		}}
		c.pending[msg.Tab] = p
	}

	for y, row := range msg.Rows {
		p.msg.Rows[y] = row
	}
	p.msg.CursorRow = msg.CursorRow
	p.msg.CursorCol = msg.CursorCol
	p.msg.Follow = p.msg.Follow || msg.Follow

	if p.timer == nil {
		tab := msg.Tab
		p.timer = time.AfterFunc(c.interval, func() {
			c.flushTab(tab)
		})
	}
}

func (c *Coalescer) flushTab(tab string) {
	c.mu.Lock()
	p, exists := c.pending[tab]
	if !exists {
		c.mu.Unlock()
		return
	}
	delete(c.pending, tab)
	c.mu.Unlock()

	if c.onFlush != nil {
		c.onFlush(p.msg)
	}
}

// Drop discards pending updates for a tab, e.g. after it closed.
func (c *Coalescer) Drop(tab string) {
	c.mu.Lock()
	if p, exists := c.pending[tab]; exists {
		if p.timer != nil {
			p.timer.Stop()
		}
		delete(c.pending, tab)
	}
	c.mu.Unlock()
}

func (c *Coalescer) FlushAll() {
	c.mu.Lock()
	tabList := make([]string, 0, len(c.pending))
	for tab := range c.pending {
		tabList = append(tabList, tab)
	}
	c.mu.Unlock()

	for _, tab := range tabList {
		c.flushTab(tab)
	}
}
