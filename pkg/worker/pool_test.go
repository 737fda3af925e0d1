package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestPool_RespectsConcurrencyCap(t *testing.T) {
	p := New(2, quietLogger())

	var running, peak atomic.Int32
	handles := make([]*Handle, 0, 8)

	for i := 0; i < 8; i++ {
		h, err := p.Submit(fmt.Sprintf("task-%d", i), func(ctx context.Context) error {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			running.Add(-1)
			return nil
		})
		require.NoError(t, err)
		handles = append(handles, h)
	}

	for _, h := range handles {
		assert.NoError(t, h.Err())
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, int32(0), running.Load())
}

func TestPool_ReturnsTaskError(t *testing.T) {
	p := New(1, quietLogger())
	boom := errors.New("boom")

	h, err := p.Submit("failing", func(ctx context.Context) error { return boom })
	require.NoError(t, err)

	assert.ErrorIs(t, h.Err(), boom)
}

func TestPool_RecoversPanics(t *testing.T) {
	p := New(1, quietLogger())

	h, err := p.Submit("panicky", func(ctx context.Context) error { panic("kaboom") })
	require.NoError(t, err)

	assert.ErrorContains(t, h.Err(), "kaboom")

	h, err = p.Submit("after", func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.NoError(t, h.Err(), "slot released after panic")
}

func TestPool_Cancel(t *testing.T) {
	p := New(1, quietLogger())

	h, err := p.Submit("long", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	h.Cancel()

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not stop after cancel")
	}
	assert.ErrorIs(t, h.Err(), context.Canceled)
}

func TestPool_QueuedTaskSeesCancellation(t *testing.T) {
	p := New(1, quietLogger())
	release := make(chan struct{})
	started := make(chan struct{})

	blocker, err := p.Submit("blocker", func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	require.NoError(t, err)
	<-started

	var sawCancel atomic.Bool
	queued, err := p.Submit("queued", func(ctx context.Context) error {
		if ctx.Err() != nil {
			sawCancel.Store(true)
		}
		return ctx.Err()
	})
	require.NoError(t, err)

	queued.Cancel()
	assert.ErrorIs(t, queued.Err(), context.Canceled)
	assert.True(t, sawCancel.Load())

	close(release)
	assert.NoError(t, blocker.Err())
}

func TestPool_Shutdown(t *testing.T) {
	p := New(2, quietLogger())

	h, err := p.Submit("long", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))

	assert.ErrorIs(t, h.Err(), context.Canceled)

	_, err = p.Submit("late", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolClosed)
}
