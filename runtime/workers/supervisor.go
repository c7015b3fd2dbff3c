package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"upload-lab/contract"
	"upload-lab/errors"
	"upload-lab/observability"
)

const (
	waitTimeBeforeRestart = 200 * time.Millisecond
	maxWaitBeforeRestart  = 10 * time.Second
)

var _ contract.ISupervisor = (*Supervisor)(nil)

// Supervisor runs the background workers of the server, each in its own goroutine.
// A worker returning nil is done for good, a worker failing or panicking is
// restarted with a growing delay until the context is canceled.
type Supervisor struct {
	Cancel  context.CancelFunc
	wg      *sync.WaitGroup
	log     *slog.Logger
	metrics *observability.Metrics
	workers []contract.Worker
}

func NewSupervisor(log *slog.Logger, metrics *observability.Metrics) *Supervisor {
	return &Supervisor{wg: &sync.WaitGroup{}, log: log, metrics: metrics}
}

// Run blocks until every worker returned.
// Canceling ctx, or calling Stop, stops them all.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	defer s.Cancel()

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Start runs a worker under supervision. A panic is recovered and
// treated as a failure, it never takes the supervisor down.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	workerName := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()

		wait := waitTimeBeforeRestart
		for {
			if ctx.Err() != nil {
				s.log.Info(fmt.Sprintf("Stopping : %s", workerName))
				return
			}

			started := time.Now()
			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
					}
				}()
				return worker.Run(ctx)
			}()

			if err == nil {
				s.log.Info(fmt.Sprintf("Worker finished : %s", workerName))
				return
			}
			if ctx.Err() != nil {
				s.log.Info("Worker stopped (context canceled)", "name", workerName)
				return
			}

			// a worker that ran for a while before failing starts over with the short delay
			if time.Since(started) > maxWaitBeforeRestart {
				wait = waitTimeBeforeRestart
			}
			s.metrics.WorkerRestart(workerName)
			s.log.Warn("Worker crashed, restarting", "name", workerName, "error", err, "in", wait)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			wait = min(2*wait, maxWaitBeforeRestart)
		}
	}()
}

// Stop cancels every worker, Run returns once they are all done.
func (s *Supervisor) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
}
