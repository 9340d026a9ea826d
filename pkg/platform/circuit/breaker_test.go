package circuit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failTimes(b *Breaker, n int) (useFallback bool, change StateChange) {
	for range n {
		useFallback, change = b.RecordFailure()
	}
	return useFallback, change
}

func succeedTimes(b *Breaker, n int) (usePrimary bool, change StateChange) {
	for range n {
		usePrimary, change = b.RecordSuccess()
	}
	return usePrimary, change
}

func TestNewBreakerStartsClosed(t *testing.T) {
	b := New("ocr-vision")

	assert.Equal(t, "ocr-vision", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.False(t, b.IsOpen())
	assert.True(t, b.AllowPrimary())
}

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		run      func(b *Breaker) StateChange
		wantOpen bool
		want     StateChange
	}{
		{
			name:     "failures below threshold keep it closed",
			opts:     []Option{WithFailureThreshold(3)},
			run:      func(b *Breaker) StateChange { _, c := failTimes(b, 2); return c },
			wantOpen: false,
		},
		{
			name:     "reaching the threshold opens it",
			opts:     []Option{WithFailureThreshold(3)},
			run:      func(b *Breaker) StateChange { _, c := failTimes(b, 3); return c },
			wantOpen: true,
			want:     StateChange{Opened: true},
		},
		{
			name:     "failures while open report no change",
			opts:     []Option{WithFailureThreshold(1)},
			run:      func(b *Breaker) StateChange { _, c := failTimes(b, 2); return c },
			wantOpen: true,
		},
		{
			name: "a success resets the failure run",
			opts: []Option{WithFailureThreshold(3)},
			run: func(b *Breaker) StateChange {
				failTimes(b, 2)
				b.RecordSuccess()
				_, c := failTimes(b, 2)
				return c
			},
			wantOpen: false,
		},
		{
			name: "successes below threshold keep it open",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			run: func(b *Breaker) StateChange {
				b.RecordFailure()
				_, c := succeedTimes(b, 1)
				return c
			},
			wantOpen: true,
		},
		{
			name: "success threshold closes it",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(2)},
			run: func(b *Breaker) StateChange {
				b.RecordFailure()
				_, c := succeedTimes(b, 2)
				return c
			},
			wantOpen: false,
			want:     StateChange{Closed: true},
		},
		{
			name: "a failure while open resets the success run",
			opts: []Option{WithFailureThreshold(1), WithSuccessThreshold(3)},
			run: func(b *Breaker) StateChange {
				b.RecordFailure()
				succeedTimes(b, 2)
				b.RecordFailure()
				_, c := succeedTimes(b, 2)
				return c
			},
			wantOpen: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("audit-ops", tt.opts...)
			change := tt.run(b)
			assert.Equal(t, tt.wantOpen, b.IsOpen())
			assert.Equal(t, tt.want, change)
		})
	}
}

func TestRecordReturnsWhichPathToUse(t *testing.T) {
	b := New("ocr-vision", WithFailureThreshold(1), WithSuccessThreshold(1))

	useFallback, _ := b.RecordFailure()
	assert.True(t, useFallback)

	usePrimary, _ := b.RecordSuccess()
	assert.True(t, usePrimary)
}

func TestResetClosesAndClearsCounts(t *testing.T) {
	b := New("ocr-vision", WithFailureThreshold(2))
	failTimes(b, 2)
	require.True(t, b.IsOpen())

	b.Reset()

	assert.Equal(t, StateClosed, b.State())
	b.RecordFailure()
	assert.False(t, b.IsOpen(), "failure run restarts after reset")
}

func TestAllowPrimaryProbesOncePerInterval(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New("ocr-vision", WithFailureThreshold(1), WithProbeInterval(time.Minute))
	b.now = func() time.Time { return now }

	assert.True(t, b.AllowPrimary())
	b.RecordFailure()
	assert.False(t, b.AllowPrimary())

	now = now.Add(30 * time.Second)
	assert.False(t, b.AllowPrimary())

	now = now.Add(30 * time.Second)
	assert.True(t, b.AllowPrimary())
	assert.False(t, b.AllowPrimary(), "one probe per interval")
}

func TestBreakerConcurrentFailuresOpenOnce(t *testing.T) {
	b := New("audit-ops", WithFailureThreshold(5))
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		opened int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, change := b.RecordFailure(); change.Opened {
				mu.Lock()
				opened++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.True(t, b.IsOpen())
	assert.Equal(t, 1, opened)
}
