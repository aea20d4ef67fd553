package status

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidTransition is returned when an action is attempted from a status
// outside its allowed source set
var ErrInvalidTransition = errors.New("invalid state transition")

// TransitionError reports a rejected transition together with the status the
// RMA was in when the action was attempted.
type TransitionError struct {
	Current Status
	Action  Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: cannot %s from status %s", e.Action, e.Current)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// transitionTable is the single source of truth for which statuses each
// non-administrative action may be fired from. ActionAdminOverride is absent
// on purpose: it bypasses the table entirely and is audited separately.
var transitionTable = map[Action]map[Status]bool{
	ActionCompleteStep: {
		StatusStarted:                   true,
		StatusTroubleshootingInProgress: true,
	},
	ActionCompleteTroubleshooting: {
		StatusTroubleshootingInProgress: true,
	},
	ActionOptOut: {
		StatusStarted:                   true,
		StatusTroubleshootingInProgress: true,
		StatusTroubleshootingComplete:   true,
	},
	ActionAcceptTerms: {
		StatusTroubleshootingInProgress: true,
		StatusTroubleshootingComplete:   true,
		StatusAwaitingTermsAcceptance:   true,
	},
	ActionAuthorize: {
		StatusAwaitingTermsAcceptance: true,
	},
	ActionShowLabelOptions: {
		StatusAuthorized:               true,
		StatusLabelOptionsPresented:    true,
		StatusAwaitingCustomerShipment: true,
	},
	ActionPurchaseLabel: {
		StatusAuthorized:            true,
		StatusLabelOptionsPresented: true,
	},
	ActionRecordSelfShip: {
		StatusAuthorized:               true,
		StatusLabelOptionsPresented:    true,
		StatusAwaitingCustomerShipment: true,
	},
	ActionCloseFixed: {
		StatusTroubleshootingInProgress: true,
		StatusTroubleshootingComplete:   true,
		StatusAwaitingTermsAcceptance:   true,
	},
}

// Assert rejects the action unless the current status is in the action's
// allowed source set. Admin override is always permitted; callers are
// responsible for auditing it with previous/new status and a reason.
func Assert(current Status, action Action) error {
	if action == ActionAdminOverride {
		return nil
	}

	sources, known := transitionTable[action]
	if !known || !sources[current] {
		return &TransitionError{Current: current, Action: action}
	}

	return nil
}

// CanFire returns true if the action would be accepted from the given status
func CanFire(current Status, action Action) bool {
	return Assert(current, action) == nil
}

// AllowedActions returns the non-administrative actions permitted from the
// given status, in stable order.
func AllowedActions(current Status) []Action {
	var actions []Action
	for action, sources := range transitionTable {
		if sources[current] {
			actions = append(actions, action)
		}
	}

	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}
