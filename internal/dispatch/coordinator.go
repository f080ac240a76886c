package dispatch

import (
	"sync"

	"github.com/Fantasim/looter/internal/models"
)

// coordinator counts finished groups and releases the finalization barrier
// exactly once, when the last group reports in.
type coordinator struct {
	mu        sync.Mutex
	total     int
	completed int
	sent      int
	empty     int
	items     []models.Item
	snapshots []models.GroupSnapshot

	once sync.Once
	done chan struct{}
}

func newCoordinator(total int) *coordinator {
	return &coordinator{
		total: total,
		done:  make(chan struct{}),
	}
}

// complete records a finished group and reports whether it was the last one.
func (c *coordinator) complete(g *TransferGroup) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch g.Status {
	case models.GroupDone:
		c.sent++
		c.items = append(c.items, g.Items...)
	case models.GroupEmpty:
		c.empty++
	}
	c.snapshots = append(c.snapshots, g.Snapshot())

	c.completed++
	if c.completed < c.total {
		return false
	}
	c.once.Do(func() { close(c.done) })
	return true
}

// Done is closed once every group has completed.
func (c *coordinator) Done() <-chan struct{} {
	return c.done
}

// result returns the finalization inputs. Call only after Done is closed.
func (c *coordinator) result() (sent, empty int, items []models.Item, snapshots []models.GroupSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent, c.empty, c.items, c.snapshots
}
