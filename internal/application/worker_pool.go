package app

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// PoolStats счётчики пула
type PoolStats struct {
	TotalJobs     int64
	CompletedJobs int64
	ActiveWorkers int64
}

// WorkerPool ограниченный пул горутин для посегментных вычислений
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	once     sync.Once

	mu     sync.RWMutex
	closed bool

	total     atomic.Int64
	completed atomic.Int64
	active    atomic.Int64
}

// NewWorkerPool создаёт пул; workers <= 0 означает число CPU
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Workers размер пула
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Start запускает воркеры, повторные вызовы ничего не делают
func (wp *WorkerPool) Start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		wp.run(job)
	}
}

func (wp *WorkerPool) run(job func()) {
	wp.active.Add(1)
	defer func() {
		wp.active.Add(-1)
		wp.completed.Add(1)
		wp.wg.Done()
	}()
	job()
}

// Submit ставит задачу в очередь. После Close задача выполняется в вызывающей горутине
// и Submit возвращает false.
func (wp *WorkerPool) Submit(job func()) bool {
	wp.wg.Add(1)
	wp.total.Add(1)

	wp.mu.RLock()
	if wp.closed {
		wp.mu.RUnlock()
		wp.run(job)
		return false
	}
	wp.jobQueue <- job
	wp.mu.RUnlock()
	return true
}

// ForEach вызывает fn для 0..n-1 на воркерах пула и ждёт только свои задачи.
// Пустой пул выполняет всё последовательно.
func (wp *WorkerPool) ForEach(n int, fn func(i int)) {
	if wp == nil || n <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	wp.Start()
	var local sync.WaitGroup
	local.Add(n)
	for i := 0; i < n; i++ {
		wp.Submit(func() {
			defer local.Done()
			fn(i)
		})
	}
	local.Wait()
}

// Wait ждёт завершения всех поставленных задач
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Close закрывает очередь; уже поставленные задачи дорабатывают
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.closed {
		return
	}
	wp.closed = true
	close(wp.jobQueue)
}

// GetStats снимок счётчиков
func (wp *WorkerPool) GetStats() PoolStats {
	return PoolStats{
		TotalJobs:     wp.total.Load(),
		CompletedJobs: wp.completed.Load(),
		ActiveWorkers: wp.active.Load(),
	}
}
