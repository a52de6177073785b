package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Ticker is the part of *time.Ticker the scheduler needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock creates tickers. Tests substitute a manual clock.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type realClock struct{}

type realTicker struct{ t *time.Ticker }

func (realClock) NewTicker(d time.Duration) Ticker { return realTicker{time.NewTicker(d)} }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// RealClock is backed by the time package.
var RealClock Clock = realClock{}

// Scheduler drives periodic refreshes. At most one period timer exists at a
// time; replacing the rate discards the old timer and starts counting anew.
type Scheduler struct {
	clock  Clock
	fire   func()
	logger *zap.Logger

	mu     sync.Mutex
	rateMs int
	cancel func()
	wg     sync.WaitGroup
}

// New returns an idle scheduler that calls fire on every tick.
func New(clock Clock, fire func(), logger *zap.Logger) *Scheduler {
	if clock == nil {
		clock = RealClock
	}
	return &Scheduler{clock: clock, fire: fire, logger: logger}
}

// Start arms the period timer with rateMs.
func (s *Scheduler) Start(rateMs int) { s.SetInterval(rateMs) }

// SetInterval replaces any existing timer. rateMs <= 0 disables periodic
// refresh; triggered fetches keep working.
func (s *Scheduler) SetInterval(rateMs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setIntervalLocked(rateMs)
}

// Restart re-arms the timer with the current rate so the next tick is a full
// period away.
func (s *Scheduler) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setIntervalLocked(s.rateMs)
}

func (s *Scheduler) setIntervalLocked(rateMs int) {
	s.stopLocked()
	s.rateMs = rateMs
	if rateMs <= 0 {
		s.logger.Info("auto refresh disabled")
		return
	}

	t := s.clock.NewTicker(time.Duration(rateMs) * time.Millisecond)
	done := make(chan struct{})
	s.cancel = func() {
		t.Stop()
		close(done)
	}

	s.wg.Add(1)
	go s.loop(t, done)
	s.logger.Info("auto refresh armed", zap.Int("rate_ms", rateMs))
}

// Stop disarms the timer and waits for the tick loop to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) Rate() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rateMs
}

// Active reports whether a period timer is armed.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Scheduler) loop(t Ticker, done <-chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-done:
			return
		case <-t.C():
			// a tick may race with cancellation
			select {
			case <-done:
				return
			default:
			}
			s.fire()
		}
	}
}
