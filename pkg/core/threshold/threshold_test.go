package threshold

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstants(t *testing.T) {
	assert.Equal(t, 20, PageSize)
	assert.Equal(t, 50, NotificationThreshold)
	assert.Equal(t, 1000, TotalEntryThreshold)
}

func TestCalculatePageCount(t *testing.T) {
	assert.Equal(t, int64(0), CalculatePageCount(0))
	assert.Equal(t, int64(0), CalculatePageCount(-3))
	for total := int64(1); total <= 2050; total++ {
		want := (total + PageSize - 1) / PageSize
		require.Equal(t, want, CalculatePageCount(total), "total=%d", total)
	}
	assert.Equal(t, int64(1), CalculatePageCount(20))
	assert.Equal(t, int64(2), CalculatePageCount(21))
	assert.Equal(t, int64(50), CalculatePageCount(1000))
}

func TestIsThresholdReached(t *testing.T) {
	assert.False(t, IsThresholdReached(0))
	assert.False(t, IsThresholdReached(999))
	assert.True(t, IsThresholdReached(1000))
	assert.True(t, IsThresholdReached(5000))
}

func TestCreateThresholdStatusFiresOncePerCycle(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var notifiedAt *time.Time
	fires := 0

	for total := int64(900); total <= 1200; total += 7 {
		status, fire := CreateThresholdStatus(total, notifiedAt, now)
		assert.Equal(t, total >= TotalEntryThreshold, status.ThresholdReached)
		if fire {
			fires++
			require.NotNil(t, status.NotifiedAt)
			assert.Equal(t, now, *status.NotifiedAt)
		}
		notifiedAt = status.NotifiedAt
	}
	assert.Equal(t, 1, fires)

	below, fire := CreateThresholdStatus(10, nil, now)
	assert.False(t, fire)
	assert.Nil(t, below.NotifiedAt)
	assert.Equal(t, int64(1), below.PageCount)
}

func TestTrackerEvaluateAndReset(t *testing.T) {
	tr := NewTracker(0, 0)
	assert.Equal(t, PageSize, tr.PageSize())
	assert.Equal(t, int64(TotalEntryThreshold), tr.TotalEntryThreshold())

	_, fire := tr.Evaluate(999)
	assert.False(t, fire)
	assert.Nil(t, tr.NotifiedAt())

	status, fire := tr.Evaluate(1000)
	assert.True(t, fire)
	assert.True(t, status.ThresholdReached)
	assert.NotNil(t, tr.NotifiedAt())

	for i := 0; i < 5; i++ {
		status, fire = tr.Evaluate(1000 + int64(i)*100)
		assert.False(t, fire)
		assert.True(t, status.ThresholdReached)
	}

	tr.Reset()
	assert.Nil(t, tr.NotifiedAt())
	assert.False(t, tr.Status(1500).NotifiedAt != nil)

	_, fire = tr.Evaluate(1500)
	assert.True(t, fire, "reset re-arms the notifier")
}

func TestTrackerCustomLimits(t *testing.T) {
	tr := NewTracker(10, 3)
	assert.Equal(t, int64(30), tr.TotalEntryThreshold())

	status := tr.Status(25)
	assert.Equal(t, int64(3), status.PageCount)
	assert.False(t, status.ThresholdReached)

	_, fire := tr.Evaluate(30)
	assert.True(t, fire)
}

func TestTrackerConcurrentEvaluateFiresOnce(t *testing.T) {
	tr := NewTracker(1, 1)
	var fires atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, fire := tr.Evaluate(10); fire {
				fires.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fires.Load())
}
