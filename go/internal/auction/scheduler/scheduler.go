package scheduler

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// TimerID identifies a scheduled task. The zero value is never issued.
type TimerID uint64

// Scheduler runs deferred tasks on the owner's event loop.
type Scheduler interface {
	// Schedule arranges for task to run once after d.
	Schedule(d time.Duration, task func()) TimerID
	// Cancel disarms a pending task. It reports false when the task already
	// ran, was cancelled, or never existed.
	Cancel(id TimerID) bool
	// Now returns the scheduler's notion of the current time.
	Now() time.Time
}

// ClockScheduler is a Scheduler backed by a clockwork clock.
//
// Expired timers do not run their task on the timer goroutine. They hand a
// closure to post, which must execute it on the event loop that also calls
// Schedule and Cancel. The closure re-checks that the timer is still armed, so
// a task whose timer was cancelled after expiry but before the loop got to it
// is dropped.
type ClockScheduler struct {
	clock clockwork.Clock
	post  func(func())

	mu     sync.Mutex
	nextID TimerID
	armed  map[TimerID]clockwork.Timer
}

// NewClockScheduler creates a scheduler over clock that delivers expired
// tasks through post.
func NewClockScheduler(clock clockwork.Clock, post func(func())) *ClockScheduler {
	return &ClockScheduler{
		clock: clock,
		post:  post,
		armed: make(map[TimerID]clockwork.Timer),
	}
}

func (s *ClockScheduler) Schedule(d time.Duration, task func()) TimerID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.armed[id] = s.clock.AfterFunc(d, func() {
		s.post(func() { s.fire(id, task) })
	})

	log.Debug().Uint64("timer_id", uint64(id)).Dur("after", d).Msg("scheduled timer")
	return id
}

func (s *ClockScheduler) Cancel(id TimerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.armed[id]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.armed, id)

	log.Debug().Uint64("timer_id", uint64(id)).Msg("cancelled timer")
	return true
}

func (s *ClockScheduler) Now() time.Time {
	return s.clock.Now()
}

// Pending reports the number of armed timers.
func (s *ClockScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.armed)
}

// fire runs on the event loop.
func (s *ClockScheduler) fire(id TimerID, task func()) {
	s.mu.Lock()
	_, ok := s.armed[id]
	delete(s.armed, id)
	s.mu.Unlock()

	if !ok {
		log.Debug().Uint64("timer_id", uint64(id)).Msg("dropping cancelled timer")
		return
	}
	task()
}
