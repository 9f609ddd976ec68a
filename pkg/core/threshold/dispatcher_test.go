package threshold

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
)

type fixedCounter struct {
	mu    sync.Mutex
	total int64
	err   error
}

func (c *fixedCounter) Count(ctx context.Context, filter domain.LogFilter) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total, c.err
}

func (c *fixedCounter) set(total int64) {
	c.mu.Lock()
	c.total = total
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu       sync.Mutex
	statuses []domain.ThresholdStatus
	err      error
}

func (n *recordingNotifier) NotifyThreshold(ctx context.Context, status domain.ThresholdStatus) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, status)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.statuses)
}

func TestDispatcherNotifiesOncePerCycle(t *testing.T) {
	counter := &fixedCounter{total: 999}
	notifier := &recordingNotifier{}
	tracker := NewTracker(0, 0)
	d := NewDispatcher(tracker, counter, notifier, 8)
	defer d.Close()

	d.Check(context.Background())
	assert.Equal(t, 0, notifier.count())

	counter.set(1000)
	d.Check(context.Background())
	d.Check(context.Background())
	counter.set(1500)
	d.Check(context.Background())
	assert.Equal(t, 1, notifier.count())
	assert.Equal(t, int64(1000), notifier.statuses[0].TotalEntries)
	assert.Equal(t, int64(50), notifier.statuses[0].PageCount)

	tracker.Reset()
	d.Check(context.Background())
	assert.Equal(t, 2, notifier.count())
}

func TestDispatcherSwallowsFailures(t *testing.T) {
	counter := &fixedCounter{err: errors.New("db down")}
	notifier := &recordingNotifier{err: errors.New("webhook 500")}
	d := NewDispatcher(NewTracker(1, 1), counter, notifier, 1)

	d.Check(context.Background())
	assert.Equal(t, 0, notifier.count())

	counter.mu.Lock()
	counter.err = nil
	counter.total = 5
	counter.mu.Unlock()
	d.Check(context.Background())
	assert.Equal(t, 1, notifier.count())

	d.Close()
}

func TestDispatcherTriggerDrainsOnClose(t *testing.T) {
	counter := &fixedCounter{total: 10}
	notifier := &recordingNotifier{}
	d := NewDispatcher(NewTracker(1, 1), counter, notifier, 4)

	for i := 0; i < 20; i++ {
		d.Trigger()
	}
	d.Close()
	d.Close()

	assert.Equal(t, 1, notifier.count())
}
