// Package scheduler drives the poll-and-present cycle against the
// simulation service.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/olivierh59500/physarum-viewport/internal/logging"
	"github.com/olivierh59500/physarum-viewport/internal/model"
)

// DefaultFetchTimeout bounds a single frame fetch.
const DefaultFetchTimeout = 2 * time.Second

// ErrRefused is returned when the service answers success=false.
var ErrRefused = errors.New("service refused the request")

// Remote is the subset of the service the scheduler drives.
type Remote interface {
	Start(ctx context.Context) (bool, error)
	Stop(ctx context.Context) (bool, error)
	Reset(ctx context.Context) (bool, error)
	Frame(ctx context.Context) (model.FrameResult, error)
}

// Presenter receives frames in fetch order. Present is called with the
// scheduler lock held and must not block or call back into the scheduler.
type Presenter interface {
	Present(frame *model.Frame, fps float64)
}

// Scheduler is an Idle/Running state machine. While running, a single
// goroutine waits for a repaint signal, fetches a frame and presents it,
// then waits again; a tick never overlaps the next one.
type Scheduler struct {
	remote       Remote
	out          Presenter
	repaint      <-chan struct{}
	fetchTimeout time.Duration

	// fetchMu serializes fetch+present so frames present in issue order.
	fetchMu sync.Mutex

	mu      sync.Mutex
	running bool
	gen     uint64
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closed  bool
}

// New returns an idle scheduler. repaint delivers one value per display
// refresh; a tick waits for it before fetching.
func New(remote Remote, out Presenter, repaint <-chan struct{}, fetchTimeout time.Duration) *Scheduler {
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	return &Scheduler{remote: remote, out: out, repaint: repaint, fetchTimeout: fetchTimeout}
}

// Running reports the local run flag.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start asks the service to run and begins ticking. It is a no-op while
// already running.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.Running() {
		return nil
	}
	ok, err := s.remote.Start(ctx)
	if err != nil {
		logging.Get().Errorf("start simulation: %v", err)
		return err
	}
	if !ok {
		logging.Get().Warnf("start simulation: service refused")
		return ErrRefused
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running && !s.closed {
		s.launchLocked()
	}
	return nil
}

// Stop asks the service to pause and stops ticking. Presentation is
// suspended before the request goes out, so a fetch in flight never
// renders; if the service refuses, ticking resumes.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.haltLocked()
	s.mu.Unlock()

	ok, err := s.remote.Stop(ctx)
	if err == nil && !ok {
		err = ErrRefused
	}
	if err != nil {
		logging.Get().Errorf("stop simulation: %v", err)
		s.mu.Lock()
		if !s.running && !s.closed {
			s.launchLocked()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// Reset asks the service to rebuild its world and presents the fresh
// frame whether or not the scheduler is running.
func (s *Scheduler) Reset(ctx context.Context) error {
	ok, err := s.remote.Reset(ctx)
	if err != nil {
		logging.Get().Errorf("reset simulation: %v", err)
		return err
	}
	if !ok {
		logging.Get().Warnf("reset simulation: service refused")
		return ErrRefused
	}
	return s.Refresh(ctx)
}

// Refresh fetches and presents one frame outside the tick loop, then
// adopts the service's run state. If Start or Stop ran while the fetch
// was in flight the result is stale and is dropped.
func (s *Scheduler) Refresh(ctx context.Context) error {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	res, err := s.fetch(ctx)
	if err != nil {
		logging.Get().Warnf("fetch frame: %v", err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.gen != gen {
		return nil
	}
	if res.Frame != nil {
		s.out.Present(res.Frame, res.FPS)
	}
	switch {
	case res.Running && !s.running:
		s.launchLocked()
	case !res.Running && s.running:
		s.haltLocked()
	}
	return nil
}

// Close stops ticking locally without contacting the service and waits
// for the tick goroutine to exit.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	if s.running {
		s.haltLocked()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) launchLocked() {
	s.running = true
	s.gen++
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go s.loop(ctx, s.gen)
}

func (s *Scheduler) haltLocked() {
	s.running = false
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Scheduler) loop(ctx context.Context, gen uint64) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.repaint:
		}
		if !s.tick(ctx, gen) {
			return
		}
	}
}

// tick performs one fetch+present and reports whether to keep ticking.
// The generation check after the fetch is what keeps a stopped loop from
// presenting a frame that was already in flight.
func (s *Scheduler) tick(ctx context.Context, gen uint64) bool {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	res, err := s.fetch(ctx)
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		logging.Get().Warnf("fetch frame: %v", err)
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || !s.running {
		return false
	}
	if res.Frame != nil {
		s.out.Present(res.Frame, res.FPS)
	}
	if !res.Running {
		logging.Get().Infof("service reports simulation stopped")
		s.haltLocked()
		return false
	}
	return true
}

func (s *Scheduler) fetch(ctx context.Context) (model.FrameResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	return s.remote.Frame(ctx)
}
