package session

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// roundTimer holds at most one armed one-shot timer. Callers hold the session lock.
type roundTimer struct {
	clock clockwork.Clock
	timer clockwork.Timer
}

func newRoundTimer(clock clockwork.Clock) *roundTimer {
	return &roundTimer{clock: clock}
}

// arm replaces any armed timer with one that runs fn after d.
func (t *roundTimer) arm(d time.Duration, fn func()) {
	t.disarm()
	t.timer = t.clock.AfterFunc(d, fn)
}

func (t *roundTimer) disarm() {
	if t.timer == nil {
		return
	}
	stopAndDrainTimer(t.timer)
	t.timer = nil
}

func (t *roundTimer) armed() bool {
	return t.timer != nil
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

// tickLoop runs fn every interval until stop is called.
type tickLoop struct {
	ticker   clockwork.Ticker
	done     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
}

func startTickLoop(clock clockwork.Clock, interval time.Duration, fn func()) *tickLoop {
	l := &tickLoop{
		ticker: clock.NewTicker(interval),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}

	go func() {
		defer close(l.exited)
		for {
			select {
			case <-l.done:
				return
			case <-l.ticker.Chan():
				select {
				case <-l.done:
					return
				default:
				}
				fn()
			}
		}
	}()

	return l
}

// stop halts the ticker and waits for the loop goroutine to exit. Safe to call twice.
func (l *tickLoop) stop() {
	l.stopOnce.Do(func() {
		l.ticker.Stop()
		close(l.done)
	})
	<-l.exited
}
