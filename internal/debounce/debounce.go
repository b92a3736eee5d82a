// Package debounce collapses bursts of signals into a single settled trigger.
//
// A Debouncer is owned by one goroutine, typically a select loop:
//
//	for {
//		select {
//		case <-signals:
//			d.Signal()
//		case <-d.C():
//			d.Fired()
//			resolve()
//		}
//	}
//
// C returns nil while idle, so the select case blocks until a signal arrives.
package debounce

import "time"

// Timer is the minimal timer surface the Debouncer needs.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

type timeTimer struct {
	timer *time.Timer
}

func (t timeTimer) C() <-chan time.Time {
	return t.timer.C
}

func (t timeTimer) Stop() bool {
	return t.timer.Stop()
}

// Debouncer keeps at most one settle timer alive.
type Debouncer struct {
	window       time.Duration
	timerFactory func(time.Duration) Timer
	timer        Timer
	signals      int
}

// Option customizes Debouncer behavior.
type Option func(*Debouncer)

// WithTimerFactory overrides how settle timers are created.
func WithTimerFactory(factory func(time.Duration) Timer) Option {
	return func(d *Debouncer) {
		d.timerFactory = factory
	}
}

// New constructs a Debouncer with the given settle window.
func New(window time.Duration, opts ...Option) *Debouncer {
	d := &Debouncer{
		window: window,
		timerFactory: func(d time.Duration) Timer {
			return timeTimer{timer: time.NewTimer(d)}
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Window returns the settle window.
func (d *Debouncer) Window() time.Duration {
	return d.window
}

// Signal starts the settle timer, or restarts it if one is already running.
func (d *Debouncer) Signal() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.timerFactory(d.window)
	d.signals++
}

// C returns the active timer's channel, or nil when nothing is pending.
func (d *Debouncer) C() <-chan time.Time {
	if d.timer == nil {
		return nil
	}
	return d.timer.C()
}

// Fired acknowledges a settle and returns how many signals it absorbed.
func (d *Debouncer) Fired() int {
	absorbed := d.signals
	d.timer = nil
	d.signals = 0
	return absorbed
}

// Cancel drops a pending settle without firing.
func (d *Debouncer) Cancel() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = nil
	d.signals = 0
}

// Pending reports whether a settle timer is running.
func (d *Debouncer) Pending() bool {
	return d.timer != nil
}
