package local

import "sync"

// Task runs on one pool goroutine; workerID identifies that goroutine.
type Task func(workerID int)

// Pool is a fixed set of goroutines draining a task channel.
type Pool struct {
	numWorkers int
	tasks      chan Task
	wg         sync.WaitGroup
}

func NewPool(numWorkers int) *Pool {
	return &Pool{
		numWorkers: max(numWorkers, 1),
		tasks:      make(chan Task),
	}
}

func (p *Pool) Start() {
	for id := range p.numWorkers {
		p.wg.Go(func() {
			for task := range p.tasks {
				task(id)
			}
		})
	}
}

func (p *Pool) Submit(task Task) {
	p.tasks <- task
}

// Close stops accepting tasks and waits for the running ones to finish.
func (p *Pool) Close() {
	close(p.tasks)
	p.wg.Wait()
}
