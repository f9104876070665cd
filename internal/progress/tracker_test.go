package progress

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bnema/anyconv/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()

	tr.Start("job-1", "song.wav -> mp3", 100)
	rec, ok := tr.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, domain.JobStatusStarting, rec.Status)
	assert.Equal(t, int64(100), rec.Total)

	tr.Set("job-1", 40, 0)
	rec, _ = tr.Get("job-1")
	assert.Equal(t, domain.JobStatusProcessing, rec.Status)
	assert.Equal(t, 40, rec.Percent())

	tr.Done("job-1")
	rec, _ = tr.Get("job-1")
	assert.Equal(t, domain.JobStatusDone, rec.Status)
	assert.Equal(t, 100, rec.Percent())
}

func TestTrackerFailWithoutStart(t *testing.T) {
	tr := NewTracker()
	tr.Fail("ghost", errors.New("encoder exploded"))

	rec, ok := tr.Get("ghost")
	require.True(t, ok)
	assert.Equal(t, domain.JobStatusError, rec.Status)
	assert.Equal(t, "encoder exploded", rec.Error)
}

func TestTrackerSetUnknownJobIsNoop(t *testing.T) {
	tr := NewTracker()
	tr.Set("missing", 10, 100)
	_, ok := tr.Get("missing")
	assert.False(t, ok)
}

func TestTrackerThrottlesIntermediateUpdates(t *testing.T) {
	tr := NewTracker()
	ch := tr.Subscribe("job-1")
	defer tr.Unsubscribe("job-1", ch)

	tr.Start("job-1", "clip", 1000)
	for i := int64(1); i <= 50; i++ {
		tr.Set("job-1", i, 0)
	}
	tr.Done("job-1")

	var got []domain.JobProgress
	deadline := time.After(time.Second)
	for {
		select {
		case rec := <-ch:
			got = append(got, rec)
			if rec.Status == domain.JobStatusDone {
				// Rapid-fire updates collapse: start, at most a couple of
				// processing snapshots, then the terminal record.
				assert.Less(t, len(got), 10)
				assert.Equal(t, domain.JobStatusStarting, got[0].Status)
				return
			}
		case <-deadline:
			t.Fatal("terminal update never arrived")
		}
	}
}

func TestTrackerConcurrentSubscribeUnsubscribe(t *testing.T) {
	tr := NewTracker()
	tr.Start("job-1", "clip", 1000)

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				ch := tr.Subscribe("job-1")
				select {
				case <-ch:
				default:
				}
				tr.Unsubscribe("job-1", ch)
			}
		}()
	}

	for i := int64(0); i < 500; i++ {
		tr.Set("job-1", i, 0)
		tr.Done("job-1")
		tr.Start("job-1", "clip", 1000)
	}
	close(done)
	wg.Wait()

	rec, ok := tr.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, "job-1", rec.JobID)
}

func TestTrackerSnapshot(t *testing.T) {
	tr := NewTracker()
	tr.Start("a", "one", 10)
	tr.Start("b", "two", 20)
	assert.Len(t, tr.Snapshot(), 2)
}
