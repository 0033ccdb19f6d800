package peer

import "sync"

// Job is one unit of work for the pool.
type Job interface {
	Execute() error
}

// Result pairs a finished job with its outcome.
type Result struct {
	Job Job
	Err error
}

// WorkerPool runs jobs on a fixed number of workers and streams results
// in completion order, not submission order.
type WorkerPool struct {
	workers int
	jobs    chan Job
	results chan Result
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	return &WorkerPool{
		workers: workers,
		jobs:    make(chan Job),
		results: make(chan Result),
		done:    make(chan struct{}),
	}
}

// Start launches the workers. Results must be drained by the caller or
// workers will block.
func (p *WorkerPool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.results <- Result{Job: job, Err: job.Execute()}
			}
		}()
	}

	go func() {
		p.wg.Wait()
		close(p.results)
		close(p.done)
	}()
}

// Submit queues a job. Must not be called after Stop.
func (p *WorkerPool) Submit(job Job) {
	p.jobs <- job
}

// Stop signals that no more jobs will be submitted. Workers finish the
// queued jobs, then the results channel closes.
func (p *WorkerPool) Stop() {
	close(p.jobs)
}

// Results streams finished jobs as they complete.
func (p *WorkerPool) Results() <-chan Result {
	return p.results
}

// Done closes once every worker has exited.
func (p *WorkerPool) Done() <-chan struct{} {
	return p.done
}
