// Package domain – lifecycle transition table.
//
// Transitions are modeled as an explicit table keyed by (current status,
// action) instead of ad-hoc string comparison, so that every illegal
// combination is a defined error rather than a silently ignored branch.
// Side effects of a transition (audit timestamps, publish metadata, error
// bookkeeping) are applied by the queue service; this file only answers
// "is this move legal, and where does it land".
package domain

import (
	"errors"
	"fmt"
)

// Action is a lifecycle operation requested against a queued post.
type Action string

// Externally requestable actions plus the two internal dispatch outcomes.
const (
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionSchedule Action = "schedule"
	ActionEdit     Action = "edit"

	// Applied by the dispatcher, never by the HTTP surface.
	ActionDispatchOK   Action = "dispatch-success"
	ActionDispatchFail Action = "dispatch-failure"
)

// ErrInvalidTransition is the sentinel wrapped by every transition rejection.
// Callers distinguish it from "post not found" via errors.Is.
var ErrInvalidTransition = errors.New("invalid status transition")

// InvalidTransitionError reports a rejected (status, action) combination.
type InvalidTransitionError struct {
	From   Status
	Action Action
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("action %q is not allowed from status %q", e.Action, e.From)
}

// Is makes the typed error match ErrInvalidTransition under errors.Is.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// transitions maps (current status, action) to the resulting status.
// Absent combinations are illegal. "edit" appears for every non-terminal
// state mapping back to the same status: it merges fields without moving
// the lifecycle. A failed dispatch keeps the post in "scheduled" (with
// LastError set by the caller) so it stays eligible for retry.
var transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionApprove: StatusApproved,
		ActionReject:  StatusRejected,
		ActionEdit:    StatusPending,
	},
	StatusApproved: {
		ActionReject:   StatusRejected,
		ActionSchedule: StatusScheduled,
		ActionEdit:     StatusApproved,
	},
	StatusScheduled: {
		ActionDispatchOK:   StatusPosted,
		ActionDispatchFail: StatusScheduled,
		ActionEdit:         StatusScheduled,
	},
	StatusRejected: {
		ActionEdit: StatusRejected,
	},
	// StatusPosted: no actions; posted is terminal, even for edit.
}

// Transition returns the status reached by applying action from the current
// status, or an *InvalidTransitionError when the combination is not defined.
func Transition(from Status, action Action) (Status, error) {
	if next, ok := transitions[from][action]; ok {
		return next, nil
	}
	return from, &InvalidTransitionError{From: from, Action: action}
}
