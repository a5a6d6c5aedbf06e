package rx

import (
	"fmt"
	"time"
)

// CanTransition reports whether a prescription may move from one status to
// another through the normal workflow. Forward-only: pending -> processing
// -> ready -> dispensed, with expiry allowed from any non-terminal state.
func CanTransition(from, to Status) bool {
	if !to.IsValid() {
		return false
	}
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusExpired
	case StatusProcessing:
		return to == StatusReady || to == StatusExpired
	case StatusReady:
		return to == StatusDispensed || to == StatusExpired
	case StatusDispensed, StatusExpired:
		return false
	}
	return false
}

// Transition applies a legal status change: sets the new status, stamps the
// matching lifecycle timestamp the first time that status is reached,
// records the actor, and appends an audit entry. Returns false and leaves
// the record untouched when the transition is illegal.
func (p *Prescription) Transition(to Status, actor, note string, now time.Time) bool {
	if !CanTransition(p.Status, to) {
		return false
	}

	from := p.Status
	p.Status = to
	p.stampStatus(to, now)
	p.Metadata.LastModifiedBy = actor

	msg := fmt.Sprintf("status changed from %s to %s", from, to)
	if note != "" {
		msg += ": " + note
	}
	p.Audit(actor, "status_change", msg, now)
	return true
}

// ForceExpire moves a non-terminal prescription to expired regardless of its
// position in the workflow. Used by the automated monitor once the due date
// has passed. Returns false for records already in a terminal state.
func (p *Prescription) ForceExpire(actor string, now time.Time) bool {
	if p.Status.IsTerminal() {
		return false
	}

	from := p.Status
	p.Status = StatusExpired
	p.stampStatus(StatusExpired, now)
	p.Metadata.LastModifiedBy = actor
	p.Audit(actor, "expired", fmt.Sprintf("expired automatically from %s, due date passed", from), now)
	return true
}

// stampStatus sets the lifecycle timestamp for a status exactly once.
func (p *Prescription) stampStatus(s Status, now time.Time) {
	ts := &p.Timestamps
	switch s {
	case StatusProcessing:
		if ts.DateProcessed == nil {
			t := now
			ts.DateProcessed = &t
		}
	case StatusReady:
		if ts.DateReady == nil {
			t := now
			ts.DateReady = &t
		}
	case StatusDispensed:
		if ts.DateDispensed == nil {
			t := now
			ts.DateDispensed = &t
		}
	case StatusExpired:
		if ts.DateExpired == nil {
			t := now
			ts.DateExpired = &t
		}
	}
}
