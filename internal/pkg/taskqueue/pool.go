package taskqueue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

const (
	// Pool settings
	DefaultWorkers   = 4
	DefaultQueueSize = 64
	TaskTimeout      = 30 * time.Second
)

var (
	// ErrQueueFull is returned by Submit when the task buffer is at capacity.
	ErrQueueFull = errors.New("taskqueue: queue full")
	// ErrStopped is returned by Submit after Stop has been called.
	ErrStopped = errors.New("taskqueue: pool stopped")
)

// Task is a unit of background work. Run receives a context that is cancelled
// after TaskTimeout.
type Task struct {
	ID   string
	Name string
	Run  func(ctx context.Context) error
}

// Pool runs submitted tasks on a fixed set of workers. Tasks queue in a
// bounded buffer; Submit never blocks the caller.
type Pool struct {
	tasks   chan Task
	workers int
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	stopped bool
}

// NewPool creates a task pool with the given worker count and buffer size.
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	return &Pool{
		tasks:   make(chan Task, queueSize),
		workers: workers,
	}
}

// Start launches the workers. Tasks submitted before Start wait in the buffer
// until a worker picks them up.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running || p.stopped {
		return
	}

	p.running = true
	log.Infof("[TaskQueue] Starting %d workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit queues a task for asynchronous execution and returns its ID. It
// never blocks: a full buffer yields ErrQueueFull, a stopped pool ErrStopped.
func (p *Pool) Submit(name string, run func(ctx context.Context) error) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return "", ErrStopped
	}

	task := Task{
		ID:   uuid.New().String(),
		Name: name,
		Run:  run,
	}

	// The non-blocking send must happen under the mutex so Stop cannot close
	// the channel between the stopped check and the send.
	select {
	case p.tasks <- task:
		log.Debugf("[TaskQueue] Enqueued task %s (%s)", task.ID, task.Name)
		return task.ID, nil
	default:
		return "", ErrQueueFull
	}
}

// Stop closes the queue and waits for the workers to finish buffered and
// in-flight tasks. Submit fails with ErrStopped afterwards.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.running = false
	close(p.tasks)
	p.mu.Unlock()

	log.Info("[TaskQueue] Stopping workers...")
	p.wg.Wait()
	log.Info("[TaskQueue] All workers stopped")
}

// Pending returns the number of buffered tasks no worker has picked up yet.
func (p *Pool) Pending() int {
	return len(p.tasks)
}

// IsRunning returns whether the pool has been started and not yet stopped.
func (p *Pool) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	log.Infof("[TaskQueue] Worker %d started", id)

	for task := range p.tasks {
		p.runTask(id, task)
	}

	log.Infof("[TaskQueue] Worker %d stopping", id)
}

// runTask executes a single task with a timeout and panic recovery. Failures
// are logged only; the pool never retries.
func (p *Pool) runTask(workerID int, task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), TaskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("[TaskQueue] Worker %d: task %s (%s) panicked: %v", workerID, task.ID, task.Name, r)
		}
	}()

	log.Debugf("[TaskQueue] Worker %d processing task %s (%s)", workerID, task.ID, task.Name)
	if err := task.Run(ctx); err != nil {
		log.Errorf("[TaskQueue] Task %s (%s) failed: %v", task.ID, task.Name, err)
		return
	}
	log.Debugf("[TaskQueue] Task %s (%s) completed", task.ID, task.Name)
}
