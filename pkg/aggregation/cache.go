package aggregation

import (
	"sync"
	"time"

	"github.com/bolsillito/bolsillito/internal/event_bus"
	"github.com/bolsillito/bolsillito/internal/scheduler"
	log "github.com/sirupsen/logrus"
)

// invalidateKey coalesces the quiescence timers: every Put replaces the
// pending sweep instead of stacking a new one.
const invalidateKey = "aggregation.invalidate"

// Cache memoizes per-category spend totals between mutations. Entries are
// dropped eagerly when a mutation event touches their category, and the whole
// cache is swept after a short quiescence window following the last Put, so a
// burst of writes settles into one rebuild instead of many.
type Cache struct {
	mu         sync.Mutex
	totals     map[string]float64
	sched      scheduler.Scheduler
	quiescence time.Duration
}

// New builds a cache wired to the mutation events that can change a spend
// total. A nil bus yields a detached cache, useful for tests.
func New(bus *event_bus.EventBus, sched scheduler.Scheduler, quiescence time.Duration) *Cache {
	c := &Cache{
		totals:     make(map[string]float64),
		sched:      sched,
		quiescence: quiescence,
	}
	if bus != nil {
		event_bus.SubscribeTyped(bus, event_bus.TypeExpenseAdded,
			func(e event_bus.EventT[event_bus.ExpenseAdded]) error {
				c.Invalidate(e.Data.CategoryID)
				return nil
			})
		event_bus.SubscribeTyped(bus, event_bus.TypeExpensePaidToggled,
			func(e event_bus.EventT[event_bus.ExpensePaidToggled]) error {
				c.Invalidate(e.Data.CategoryID)
				return nil
			})
		event_bus.SubscribeTyped(bus, event_bus.TypeLineItemRemoved,
			func(e event_bus.EventT[event_bus.LineItemRemoved]) error {
				c.Invalidate(e.Data.CategoryID)
				return nil
			})
	}
	return c
}

// Get returns the memoized total for the category, if present.
func (c *Cache) Get(category string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	total, ok := c.totals[category]
	return total, ok
}

// Put stores a freshly computed total and (re)arms the quiescence sweep.
func (c *Cache) Put(category string, total float64) {
	c.mu.Lock()
	c.totals[category] = total
	c.mu.Unlock()

	if c.sched != nil {
		c.sched.Schedule(invalidateKey, c.quiescence, c.InvalidateAll)
	}
}

// Invalidate drops the entry for one category.
func (c *Cache) Invalidate(category string) {
	c.mu.Lock()
	delete(c.totals, category)
	c.mu.Unlock()
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	n := len(c.totals)
	c.totals = make(map[string]float64)
	c.mu.Unlock()

	if n > 0 {
		log.Debugf("aggregation cache swept, %d entries dropped", n)
	}
}

// Len reports how many totals are currently memoized.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.totals)
}
