package runtime

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

type worker struct {
	name   string
	run    func(context.Context) error
	closeF func() error
}

// Supervisor runs long-lived workers and shuts them down in reverse order of
// registration.
type Supervisor struct {
	mu      sync.Mutex
	workers []worker
	wg      sync.WaitGroup
	errOnce sync.Once
	err     error
}

func NewSupervisor() *Supervisor {
	return &Supervisor{}
}

func (s *Supervisor) Add(name string, run func(context.Context) error, closeF func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, worker{name: name, run: run, closeF: closeF})
}

func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.workers {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			log.WithField("worker", w.name).Debug("Worker started")
			if err := w.run(ctx); err != nil {
				log.WithField("worker", w.name).WithError(err).Error("Worker failed")
				s.errOnce.Do(func() { s.err = err })
			}
		}()
	}
	return nil
}

// Wait blocks until ctx is done, closes every worker and waits for them to
// return. The first run error is returned, combined with any close errors.
func (s *Supervisor) Wait(ctx context.Context) error {
	<-ctx.Done() // wait for signal

	s.mu.Lock()
	workers := append([]worker(nil), s.workers...)
	s.mu.Unlock()

	// Close in reverse order.
	var closeErr error
	for i := len(workers) - 1; i >= 0; i-- {
		if workers[i].closeF == nil {
			continue
		}
		if err := workers[i].closeF(); err != nil {
			log.WithField("worker", workers[i].name).WithError(err).Warn("Worker close failed")
			closeErr = multierr.Append(closeErr, err)
		}
	}
	s.wg.Wait()
	return multierr.Combine(s.err, closeErr)
}
