package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

var ErrPoolClosed = errors.New("worker pool is shut down")

// Task is one unit of background work. It must return when ctx is cancelled.
type Task func(ctx context.Context) error

// Handle tracks a submitted task.
type Handle struct {
	ID     string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Cancel asks the task to stop.
func (h *Handle) Cancel() {
	h.cancel()
}

func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the task result once Done is closed.
func (h *Handle) Err() error {
	<-h.done
	return h.err
}

type IPool interface {
	Submit(id string, task Task) (*Handle, error)
	Shutdown(ctx context.Context) error
}

type pool struct {
	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *logrus.Logger

	mu     sync.Mutex
	closed bool
}

// New builds a pool running at most size tasks at once.
func New(size int64, log *logrus.Logger) IPool {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &pool{
		sem:    semaphore.NewWeighted(size),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
}

func (p *pool) Submit(id string, task Task) (*Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	ctx, cancel := context.WithCancel(p.ctx)
	h := &Handle{
		ID:     id,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	p.wg.Add(1)
	go p.run(ctx, h, task)

	return h, nil
}

func (p *pool) run(ctx context.Context, h *Handle, task Task) {
	defer p.wg.Done()
	defer close(h.done)
	defer h.cancel()

	// A task cancelled while waiting for a slot still runs, with a done
	// context, so it can record its own outcome.
	if err := p.sem.Acquire(ctx, 1); err == nil {
		defer p.sem.Release(1)
	}

	h.err = p.safeRun(ctx, h.ID, task)
}

func (p *pool) safeRun(ctx context.Context, id string, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.WithFields(logrus.Fields{
				"task_id": id,
				"panic":   r,
				"stack":   string(debug.Stack()),
			}).Error("Worker task panicked")
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	return task(ctx)
}

// Shutdown cancels every task and waits for them to return or for ctx to expire.
func (p *pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
