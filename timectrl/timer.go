package timectrl

import (
	"fmt"
	"time"
)

// TimerReason encodes what response a pending timer is waiting for, so the
// timeout handler can react per reason.
type TimerReason int

const (
	// ReasonNotRunning is reported by a timer that is not armed.
	ReasonNotRunning TimerReason = iota
	// ReasonWaitFeedback waits for HARQ feedback on a transmitted block.
	ReasonWaitFeedback
	// ReasonWaitCsiReport waits for a channel-state report from the peer.
	ReasonWaitCsiReport
	// ReasonWaitResponse waits for a generic upper-layer response.
	ReasonWaitResponse
)

func (r TimerReason) String() string {
	switch r {
	case ReasonNotRunning:
		return "not-running"
	case ReasonWaitFeedback:
		return "wait-feedback"
	case ReasonWaitCsiReport:
		return "wait-csi-report"
	case ReasonWaitResponse:
		return "wait-response"
	default:
		return fmt.Sprintf("TimerReason(%d)", int(r))
	}
}

// ResponseTimer is a one-shot timeout keyed to simulation time. It is armed
// with a reason and a delay; if the awaited response does not arrive before
// the deadline, the timeout callback fires with that reason on the next
// time advance. Rescheduling pushes the deadline out once, e.g. when the
// medium is known busy; cancelling disarms without firing.
//
// The timer observes time through the controller's listener callbacks, so
// it fires on the tick boundary at or after its deadline.
type ResponseTimer struct {
	clock SimClock

	reason      TimerReason
	deadline    time.Time
	onTimeout   func(TimerReason)
	running     bool
	rescheduled bool
}

// NewResponseTimer builds a timer over clock and registers it with tc so it
// is polled on every tick. tc may be nil when the caller drives Poll
// directly.
func NewResponseTimer(clock SimClock, tc *TimeController) *ResponseTimer {
	t := &ResponseTimer{clock: clock}
	if tc != nil {
		tc.AddListener(func(now time.Time) { t.Poll(now) })
	}
	return t
}

// Set arms the timer. Arming an already-running timer is an error; cancel
// or let it fire first.
func (t *ResponseTimer) Set(reason TimerReason, delay time.Duration, onTimeout func(TimerReason)) error {
	if t.running {
		return fmt.Errorf("response timer already armed for %s", t.reason)
	}
	if reason == ReasonNotRunning {
		return fmt.Errorf("cannot arm a response timer without a reason")
	}
	t.reason = reason
	t.deadline = t.clock.Now().Add(delay)
	t.onTimeout = onTimeout
	t.running = true
	t.rescheduled = false
	return nil
}

// Reschedule pushes the deadline to now+delay. Only the first reschedule of
// an armed timer takes effect; later ones are ignored.
func (t *ResponseTimer) Reschedule(delay time.Duration) {
	if !t.running || t.rescheduled {
		return
	}
	t.deadline = t.clock.Now().Add(delay)
	t.rescheduled = true
}

// Cancel disarms the timer without firing the callback.
func (t *ResponseTimer) Cancel() {
	t.running = false
	t.reason = ReasonNotRunning
	t.onTimeout = nil
}

// IsRunning reports whether the timer is armed and its deadline has not
// passed.
func (t *ResponseTimer) IsRunning() bool {
	return t.running && t.clock.Now().Before(t.deadline)
}

// Reason returns the reason the timer was armed with, ReasonNotRunning if
// it is not armed.
func (t *ResponseTimer) Reason() TimerReason {
	if !t.running {
		return ReasonNotRunning
	}
	return t.reason
}

// DelayLeft returns the remaining time before the deadline, zero when the
// timer is disarmed or expired.
func (t *ResponseTimer) DelayLeft() time.Duration {
	if !t.running {
		return 0
	}
	left := t.deadline.Sub(t.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

// Poll fires the timeout callback when the deadline has been reached.
// Called from the time controller's tick listener.
func (t *ResponseTimer) Poll(now time.Time) {
	if !t.running || now.Before(t.deadline) {
		return
	}
	reason := t.reason
	onTimeout := t.onTimeout
	t.running = false
	t.reason = ReasonNotRunning
	t.onTimeout = nil
	if onTimeout != nil {
		onTimeout(reason)
	}
}
