package peer

import (
	"errors"
	"sync/atomic"
	"testing"
)

type countJob struct {
	counter *int64
	fail    bool
}

func (j *countJob) Execute() error {
	atomic.AddInt64(j.counter, 1)
	if j.fail {
		return errors.New("job failed")
	}
	return nil
}

func TestWorkerPoolRunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Start()

	var counter int64
	const jobs = 50

	go func() {
		for i := 0; i < jobs; i++ {
			pool.Submit(&countJob{counter: &counter, fail: i%5 == 0})
		}
		pool.Stop()
	}()

	var failures int
	var results int
	for result := range pool.Results() {
		results++
		if result.Err != nil {
			failures++
		}
	}
	<-pool.Done()

	if atomic.LoadInt64(&counter) != jobs {
		t.Errorf("executed %d jobs, want %d", counter, jobs)
	}
	if results != jobs {
		t.Errorf("got %d results, want %d", results, jobs)
	}
	if failures != 10 {
		t.Errorf("got %d failures, want 10", failures)
	}
}

func TestWorkerPoolResultCarriesJob(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()

	var counter int64
	job := &countJob{counter: &counter}
	go func() {
		pool.Submit(job)
		pool.Stop()
	}()

	result := <-pool.Results()
	if result.Job != job {
		t.Error("result does not reference the submitted job")
	}
	<-pool.Done()
}
