package tasks

import "time"

// Job represents a runnable operation, Run will be executed by a worker
// via the dispatch queue
type Job struct {
	Queue   string
	ID      string
	Added   time.Time
	Started time.Time
	Name    string
	Run     func() `json:"-"`
}

// Worker executes jobs handed to it through the shared worker pool.
type Worker struct {
	workerPool chan chan Job
	jobChannel chan Job
	quit       chan bool
}

func NewWorker(pool chan chan Job) *Worker {
	return &Worker{
		workerPool: pool,
		jobChannel: make(chan Job),
		quit:       make(chan bool),
	}
}

func (w *Worker) Start() {
	go func() {
		for {
			w.workerPool <- w.jobChannel
			select {
			case job := <-w.jobChannel:
				job.Run()
			case <-w.quit:
				return
			}
		}
	}()
}

func (w *Worker) Stop() {
	go func() {
		w.quit <- true
	}()
}
