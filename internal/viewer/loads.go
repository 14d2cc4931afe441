package viewer

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/splatview/internal/logger"
	"github.com/Faultbox/splatview/internal/pointcloud"
)

// Job produces one cloud off the render thread.
type Job struct {
	Name     string
	Build    func() (*pointcloud.Cloud, error)
	Activate bool // select the asset once registered
}

// LoadResult is a finished Job.
type LoadResult struct {
	Name     string
	Cloud    *pointcloud.Cloud
	Err      error
	Activate bool
}

// LoadQueue runs jobs on a single worker goroutine, so results arrive in
// submission order.
type LoadQueue struct {
	jobs    chan Job
	results chan LoadResult
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewLoadQueue starts the worker. size bounds both pending jobs and
// undrained results.
func NewLoadQueue(size int) *LoadQueue {
	if size < 1 {
		size = 1
	}
	q := &LoadQueue{
		jobs:    make(chan Job, size),
		results: make(chan LoadResult, size),
		done:    make(chan struct{}),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// Enqueue submits a job without blocking. It reports false if the queue is
// full or closed.
func (q *LoadQueue) Enqueue(j Job) bool {
	select {
	case <-q.done:
		return false
	default:
	}
	select {
	case q.jobs <- j:
		return true
	default:
		logger.Warn("load queue full, dropping job", zap.String("job", j.Name))
		return false
	}
}

// Results delivers finished jobs.
func (q *LoadQueue) Results() <-chan LoadResult {
	return q.results
}

// Close stops the worker. A job in progress finishes but its result is
// dropped.
func (q *LoadQueue) Close() {
	q.once.Do(func() { close(q.done) })
	q.wg.Wait()
}

func (q *LoadQueue) run() {
	defer q.wg.Done()
	for {
		select {
		case <-q.done:
			return
		case j := <-q.jobs:
			cloud, err := build(j)
			res := LoadResult{Name: j.Name, Cloud: cloud, Err: err, Activate: j.Activate}
			select {
			case q.results <- res:
			case <-q.done:
				return
			}
		}
	}
}

// build runs a job, turning a panic into an error so a bad file cannot take
// down the viewer.
func build(j Job) (cloud *pointcloud.Cloud, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("load job panicked", zap.String("job", j.Name), zap.Any("panic", r))
			cloud, err = nil, fmt.Errorf("loading %s: panic: %v", j.Name, r)
		}
	}()
	return j.Build()
}

// StartQueue creates a queue large enough to hold every job and result in
// jobs, then enqueues them in order. size is the minimum capacity.
func StartQueue(size int, jobs []Job) (*LoadQueue, error) {
	q := NewLoadQueue(max(size, len(jobs)))
	for _, j := range jobs {
		if !q.Enqueue(j) {
			q.Close()
			return nil, fmt.Errorf("queueing startup asset %s", j.Name)
		}
	}
	return q, nil
}
