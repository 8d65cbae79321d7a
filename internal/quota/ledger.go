// Package quota tracks per-model request budgets against per-minute and
// per-day ceilings, and drives failover across an ordered model list.
package quota

import (
	"time"
)

// ModelLimits holds the configured ceilings for a single model.
type ModelLimits struct {
	Model string
	RPM   int // requests per minute
	RPD   int // requests per day
}

// modelState is the mutable bookkeeping for one model.
type modelState struct {
	limits ModelLimits

	// Rolling minute window: timestamps of calls in the trailing 60s.
	recent []time.Time

	// Calendar-day window, keyed by the local date.
	day      string
	dayCalls int
}

// Ledger is pure bookkeeping over attempted API calls. It is consulted
// before every call and updated after every attempt, success or failure,
// since the remote service counts attempts.
type Ledger struct {
	states map[string]*modelState
	now    func() time.Time
}

// NewLedger creates a ledger for the given models.
func NewLedger(limits []ModelLimits) *Ledger {
	l := &Ledger{
		states: make(map[string]*modelState, len(limits)),
		now:    time.Now,
	}
	for _, lim := range limits {
		l.states[lim.Model] = &modelState{limits: lim}
	}
	return l
}

// state returns the bookkeeping for model, rolling over elapsed windows.
func (l *Ledger) state(model string) *modelState {
	s, ok := l.states[model]
	if !ok {
		return nil
	}
	now := l.now()

	// Prune the rolling minute window.
	cutoff := now.Add(-time.Minute)
	keep := s.recent[:0]
	for _, t := range s.recent {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	s.recent = keep

	// Reset the day counter when the date changes.
	today := now.Format("2006-01-02")
	if s.day != today {
		s.day = today
		s.dayCalls = 0
	}
	return s
}

// CanCall reports whether a call to model is permitted right now: the
// minute count is below RPM and the day count is below RPD.
func (l *Ledger) CanCall(model string) bool {
	s := l.state(model)
	if s == nil {
		return false
	}
	return len(s.recent) < s.limits.RPM && s.dayCalls < s.limits.RPD
}

// DayExhausted reports whether model has no day budget left.
func (l *Ledger) DayExhausted(model string) bool {
	s := l.state(model)
	if s == nil {
		return true
	}
	return s.dayCalls >= s.limits.RPD
}

// RecordCall increments both counters for model. Call exactly once per
// attempted API call, whatever the outcome.
func (l *Ledger) RecordCall(model string) {
	s := l.state(model)
	if s == nil {
		return
	}
	s.recent = append(s.recent, l.now())
	s.dayCalls++
}

// TimeUntilNextSlot returns how long to wait before the minute window
// opens again for model. Zero means a slot is available now. The wait is
// until the oldest call in the window ages out.
func (l *Ledger) TimeUntilNextSlot(model string) time.Duration {
	s := l.state(model)
	if s == nil || len(s.recent) == 0 || len(s.recent) < s.limits.RPM {
		return 0
	}
	oldest := s.recent[0]
	wait := oldest.Add(time.Minute).Sub(l.now())
	if wait < 0 {
		return 0
	}
	return wait
}

// CallsToday returns the number of calls recorded for model today.
func (l *Ledger) CallsToday(model string) int {
	s := l.state(model)
	if s == nil {
		return 0
	}
	return s.dayCalls
}

// SeedCallsToday restores today's call count for model from persisted
// progress, so a restart on the same day does not reset the day budget.
func (l *Ledger) SeedCallsToday(model string, calls int) {
	s := l.state(model)
	if s == nil || calls <= 0 {
		return
	}
	s.dayCalls = calls
}
