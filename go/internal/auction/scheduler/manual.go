package scheduler

import (
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
)

type manualTask struct {
	id  TimerID
	due time.Time
	run func()
}

// Manual is a single-threaded Scheduler for tests. Tasks only run when the
// test advances time, in due order, on the calling goroutine.
type Manual struct {
	clock  *clockwork.FakeClock
	nextID TimerID
	tasks  []manualTask
}

func NewManual() *Manual {
	return &Manual{clock: clockwork.NewFakeClock()}
}

func (m *Manual) Schedule(d time.Duration, task func()) TimerID {
	m.nextID++
	m.tasks = append(m.tasks, manualTask{id: m.nextID, due: m.clock.Now().Add(d), run: task})
	return m.nextID
}

func (m *Manual) Cancel(id TimerID) bool {
	for i, t := range m.tasks {
		if t.id == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Manual) Now() time.Time {
	return m.clock.Now()
}

// Pending reports the number of armed tasks.
func (m *Manual) Pending() int {
	return len(m.tasks)
}

// Advance moves time forward by d, running every task that falls due,
// including tasks scheduled by earlier tasks within the window.
func (m *Manual) Advance(d time.Duration) {
	target := m.clock.Now().Add(d)
	for {
		t, ok := m.popDue(target)
		if !ok {
			break
		}
		m.moveTo(t.due)
		t.run()
	}
	m.moveTo(target)
}

// FireNext jumps to the earliest armed task and runs it. It reports false
// when nothing is armed.
func (m *Manual) FireNext() bool {
	if len(m.tasks) == 0 {
		return false
	}
	m.sortTasks()
	t := m.tasks[0]
	m.tasks = m.tasks[1:]
	m.moveTo(t.due)
	t.run()
	return true
}

// NextDue reports how long until the earliest armed task.
func (m *Manual) NextDue() (time.Duration, bool) {
	if len(m.tasks) == 0 {
		return 0, false
	}
	m.sortTasks()
	return m.tasks[0].due.Sub(m.clock.Now()), true
}

func (m *Manual) popDue(target time.Time) (manualTask, bool) {
	if len(m.tasks) == 0 {
		return manualTask{}, false
	}
	m.sortTasks()
	if m.tasks[0].due.After(target) {
		return manualTask{}, false
	}
	t := m.tasks[0]
	m.tasks = m.tasks[1:]
	return t, true
}

// sortTasks orders by due time, then by scheduling order.
func (m *Manual) sortTasks() {
	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].due.Equal(m.tasks[j].due) {
			return m.tasks[i].id < m.tasks[j].id
		}
		return m.tasks[i].due.Before(m.tasks[j].due)
	})
}

func (m *Manual) moveTo(t time.Time) {
	if d := t.Sub(m.clock.Now()); d > 0 {
		m.clock.Advance(d)
	}
}
