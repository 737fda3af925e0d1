package batchService

import (
	"SmoothTrack/internal/entity"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	events []entity.StreamEvent
}

func (l *eventLog) emit(ev entity.StreamEvent) error {
	l.events = append(l.events, ev)
	return nil
}

func (l *eventLog) types() []entity.StreamEventType {
	out := make([]entity.StreamEventType, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.Type)
	}
	return out
}

func streamConfig(src float64, maxTicks int) Config {
	return Config{
		StreamInterval: 5 * time.Millisecond,
		StreamMaxTicks: maxTicks,
		Source:         fixedSource(src),
	}
}

func TestStreamProgress_TracksRealJobs(t *testing.T) {
	f := newFixture(t, &fakePipeline{}, streamConfig(0.5, 200))
	ctx := context.Background()

	jobs, err := f.service.CreateBatch(ctx, files("a.jpg", "b.jpg"))
	require.NoError(t, err)

	var log eventLog
	require.NoError(t, f.service.StreamProgress(ctx, []string{jobs[0].ID, jobs[1].ID}, log.emit))

	types := log.types()
	require.GreaterOrEqual(t, len(types), 3)
	assert.Equal(t, entity.StreamConnected, types[0])
	assert.Equal(t, entity.StreamCompleted, types[len(types)-1])
	assert.Equal(t, StreamCompletedMessage, log.events[len(log.events)-1].Message)

	last := log.events[len(log.events)-2]
	require.Equal(t, entity.StreamProgressUpdate, last.Type)
	require.Len(t, last.Updates, 2)
	for _, u := range last.Updates {
		assert.Equal(t, entity.JobStatusCompleted, u.Status)
		assert.Equal(t, float64(100), u.Progress)
	}
}

func TestStreamProgress_PlaceholderCompletes(t *testing.T) {
	f := newFixture(t, &fakePipeline{}, streamConfig(0.9, 30))

	var log eventLog
	require.NoError(t, f.service.StreamProgress(context.Background(), []string{"job_1", "job_2"}, log.emit))

	assert.Equal(t, []entity.StreamEventType{
		entity.StreamConnected,
		entity.StreamProgressUpdate,
		entity.StreamCompleted,
	}, log.types())

	for _, u := range log.events[1].Updates {
		assert.Equal(t, entity.JobStatusCompleted, u.Status)
		assert.NotZero(t, u.Timestamp)
	}
}

func TestStreamProgress_StopsAtTickLimit(t *testing.T) {
	f := newFixture(t, &fakePipeline{}, streamConfig(0.5, 3))

	var log eventLog
	require.NoError(t, f.service.StreamProgress(context.Background(), []string{"job_1"}, log.emit))

	assert.Equal(t, []entity.StreamEventType{
		entity.StreamConnected,
		entity.StreamProgressUpdate,
		entity.StreamProgressUpdate,
		entity.StreamProgressUpdate,
		entity.StreamCompleted,
	}, log.types())

	u := log.events[1].Updates[0]
	assert.Equal(t, "job_1", u.JobID)
	assert.Equal(t, entity.JobStatusProcessing, u.Status)
	assert.Equal(t, float64(50), u.Progress)
}

func TestStreamProgress_EmitErrorEndsStream(t *testing.T) {
	f := newFixture(t, &fakePipeline{}, streamConfig(0.5, 30))
	gone := errors.New("client disconnected")

	calls := 0
	err := f.service.StreamProgress(context.Background(), []string{"job_1"}, func(ev entity.StreamEvent) error {
		calls++
		if ev.Type == entity.StreamProgressUpdate {
			return gone
		}
		return nil
	})

	assert.ErrorIs(t, err, gone)
	assert.Equal(t, 2, calls)
}

func TestStreamProgress_ContextCancelled(t *testing.T) {
	f := newFixture(t, &fakePipeline{}, Config{StreamInterval: time.Hour, Source: fixedSource(0.5)})

	ctx, cancel := context.WithCancel(context.Background())
	var log eventLog
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := f.service.StreamProgress(ctx, []string{"job_1"}, log.emit)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []entity.StreamEventType{entity.StreamConnected}, log.types())
}
