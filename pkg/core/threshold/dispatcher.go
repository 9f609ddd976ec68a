package threshold

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wadjakorntonsri/guide-activity-log/pkg/core/domain"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/logging"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/metrics"
	"github.com/wadjakorntonsri/guide-activity-log/pkg/ports"
)

// EntryCounter counts stored entries.
type EntryCounter interface {
	Count(ctx context.Context, filter domain.LogFilter) (int64, error)
}

// Dispatcher re-checks the threshold off the request path and delivers notifications.
type Dispatcher struct {
	tracker  *Tracker
	counter  EntryCounter
	notifier ports.ThresholdNotifier
	timeout  time.Duration
	log      zerolog.Logger

	requests chan struct{}
	stop     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewDispatcher starts the background worker. bufferSize bounds pending re-checks.
func NewDispatcher(tracker *Tracker, counter EntryCounter, notifier ports.ThresholdNotifier, bufferSize int) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	d := &Dispatcher{
		tracker:  tracker,
		counter:  counter,
		notifier: notifier,
		timeout:  15 * time.Second,
		log:      logging.With().Str("component", "threshold").Logger(),
		requests: make(chan struct{}, bufferSize),
		stop:     make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()
	return d
}

// Trigger queues a re-check without blocking. Requests are coalesced when the queue is full.
func (d *Dispatcher) Trigger() {
	select {
	case d.requests <- struct{}{}:
	default:
		metrics.ThresholdChecksDropped.Inc()
	}
}

// Close drains pending re-checks and stops the worker.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.stop)
		d.wg.Wait()
	})
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case <-d.stop:
			for {
				select {
				case <-d.requests:
					d.Check(context.Background())
				default:
					return
				}
			}
		case <-d.requests:
			d.Check(context.Background())
		}
	}
}

// Check counts entries, evaluates the tracker and notifies when the cycle fires.
// Errors are logged, never returned: notification is advisory.
func (d *Dispatcher) Check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	total, err := d.counter.Count(ctx, domain.LogFilter{})
	if err != nil {
		d.log.Error().Err(err).Msg("threshold check: count entries")
		return
	}

	status, fire := d.tracker.Evaluate(total)
	if !fire {
		return
	}

	if err := d.notifier.NotifyThreshold(ctx, status); err != nil {
		metrics.ThresholdNotifications.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).Int64("total_entries", status.TotalEntries).Msg("threshold notification failed")
		return
	}
	metrics.ThresholdNotifications.WithLabelValues("sent").Inc()
	d.log.Info().
		Int64("total_entries", status.TotalEntries).
		Int64("page_count", status.PageCount).
		Msg("threshold notification sent")
}
