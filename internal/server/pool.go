package server

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrQueueFull is returned by Submit when the backlog limit is reached.
	ErrQueueFull = errors.New("worker pool queue is full")
	// ErrPoolClosed is returned by Submit after Shutdown.
	ErrPoolClosed = errors.New("worker pool is closed")
)

// Task is a unit of work run by the pool. It must return once ctx is canceled.
type Task func(ctx context.Context)

// Pool runs at most size tasks at a time. Excess tasks wait in submission
// order and a freed slot is handed to the oldest waiting task; with a
// positive queue limit, Submit fails fast instead of growing the backlog.
type Pool struct {
	sem        *semaphore.Weighted
	size       int
	queueLimit int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	queue   *list.List
	running atomic.Int64
}

// pending is a task waiting for a slot. Fields other than ctx and task are guarded by Pool.mu.
type pending struct {
	ctx      context.Context
	task     Task
	elem     *list.Element
	dequeued bool
	stop     func() bool
}

// NewPool creates a pool with size slots. A queueLimit of zero leaves the backlog unbounded.
func NewPool(size, queueLimit int) *Pool {
	if size < 1 {
		size = 1
	}
	if queueLimit < 0 {
		queueLimit = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		sem:        semaphore.NewWeighted(int64(size)),
		size:       size,
		queueLimit: queueLimit,
		ctx:        ctx,
		cancel:     cancel,
		queue:      list.New(),
	}
}

// Submit starts task on a free slot or queues it behind earlier tasks,
// without blocking. The task's context is canceled when either ctx or the
// pool is shut down. A queued task whose ctx is canceled leaves the queue
// and runs at once with the canceled context, so it can release whatever
// it owns.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	// a slot is only ever free while the queue is empty
	if p.queue.Len() == 0 && p.sem.TryAcquire(1) {
		p.wg.Add(1)
		go p.work(ctx, task)
		return nil
	}
	if p.queueLimit > 0 && p.queue.Len() >= p.queueLimit {
		return ErrQueueFull
	}
	item := &pending{ctx: ctx, task: task}
	item.elem = p.queue.PushBack(item)
	p.wg.Add(1)
	item.stop = context.AfterFunc(ctx, func() { p.abandon(item) })
	return nil
}

// work runs task and then keeps the slot for queued tasks, oldest first.
func (p *Pool) work(ctx context.Context, task Task) {
	for {
		p.running.Add(1)
		p.runTask(ctx, task)
		p.running.Add(-1)
		p.wg.Done()

		item := p.next()
		if item == nil {
			return
		}
		ctx, task = item.ctx, item.task
	}
}

// next pops the oldest queued task, or releases the slot when none is waiting.
func (p *Pool) next() *pending {
	p.mu.Lock()
	front := p.queue.Front()
	if front == nil {
		p.sem.Release(1)
		p.mu.Unlock()
		return nil
	}
	item := p.dequeueLocked(front)
	p.mu.Unlock()
	item.stop()
	return item
}

func (p *Pool) abandon(item *pending) {
	p.mu.Lock()
	if item.dequeued {
		p.mu.Unlock()
		return
	}
	p.dequeueLocked(item.elem)
	p.mu.Unlock()

	defer p.wg.Done()
	p.runTask(item.ctx, item.task)
}

func (p *Pool) dequeueLocked(elem *list.Element) *pending {
	item := p.queue.Remove(elem).(*pending)
	item.dequeued = true
	return item
}

func (p *Pool) runTask(ctx context.Context, task Task) {
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(p.ctx, cancel)
	defer stop()
	if p.ctx.Err() != nil {
		cancel()
	}
	task(taskCtx)
}

// Size returns the number of slots.
func (p *Pool) Size() int { return p.size }

// Running returns the number of tasks holding a slot.
func (p *Pool) Running() int { return int(p.running.Load()) }

// Waiting returns the number of tasks queued for a slot.
func (p *Pool) Waiting() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Len()
}

// Shutdown stops accepting tasks, cancels running and queued ones and waits
// for them to return or for ctx to expire. Queued tasks run with a canceled
// context instead of waiting for a slot.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	var drained []*pending
	for p.queue.Len() > 0 {
		drained = append(drained, p.dequeueLocked(p.queue.Front()))
	}
	p.mu.Unlock()
	p.cancel()

	for _, item := range drained {
		item.stop()
		go func(item *pending) {
			defer p.wg.Done()
			p.runTask(item.ctx, item.task)
		}(item)
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "drain worker pool")
	}
}
