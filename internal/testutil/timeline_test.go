package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeline_Defaults(t *testing.T) {
	tl := NewTimeline(time.Time{}, 0)
	assert.Equal(t, DefaultEpoch, tl.Current())
	assert.Equal(t, DefaultEpoch.Add(time.Second), tl.Next())
}

func TestTimeline_NextAdvancesByStep(t *testing.T) {
	start := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)
	tl := NewTimeline(start, time.Minute)

	assert.Equal(t, start.Add(time.Minute), tl.Next())
	assert.Equal(t, start.Add(2*time.Minute), tl.Next())
	assert.Equal(t, start.Add(2*time.Minute), tl.Current())
	assert.Equal(t, start.Add(10*time.Minute), tl.At(10))
	assert.Equal(t, start.Add(2*time.Minute), tl.Current(), "At does not advance")
}

func TestTimeline_StartIsUTC(t *testing.T) {
	loc := time.FixedZone("east", 3*60*60)
	tl := NewTimeline(time.Date(2023, 1, 1, 3, 0, 0, 0, loc), time.Second)
	assert.Equal(t, time.UTC, tl.Current().Location())
	assert.Equal(t, 0, tl.Current().Hour())
}

func TestTimeline_Reset(t *testing.T) {
	tl := NewTimeline(time.Time{}, time.Hour)
	tl.Next()
	tl.Next()
	tl.Reset()
	assert.Equal(t, DefaultEpoch, tl.Current())
	assert.Equal(t, DefaultEpoch.Add(time.Hour), tl.Next())
}

func TestTimeline_ConcurrentNextIsUnique(t *testing.T) {
	tl := NewTimeline(time.Time{}, time.Millisecond)
	const workers, calls = 50, 100

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[time.Time]bool)
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range calls {
				ts := tl.Next()
				mu.Lock()
				seen[ts] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers*calls)
	assert.Equal(t, DefaultEpoch.Add(workers*calls*time.Millisecond), tl.Current())
}

func TestOpenManager(t *testing.T) {
	mgr := OpenManager(t)
	assert.FileExists(t, mgr.Path())
	assert.Equal(t, int64(0), mgr.Seq())
}
