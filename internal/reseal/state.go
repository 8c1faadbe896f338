// Package reseal implements the open → edit → reseal workflow over one
// encrypted pack: the pack is unpacked into a working directory, the user
// edits it freely, and a single decision either re-encrypts the directory
// over the original pack or throws it away.
package reseal

import (
	"context"
	"fmt"
)

// State is a step of the workflow.
type State int

const (
	StateOpening State = iota
	StateOpen
	StateDecision
	StateResealing
	StateDiscarding
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateDecision:
		return "decision"
	case StateResealing:
		return "resealing"
	case StateDiscarding:
		return "discarding"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Decision is the user's answer once the pack is open.
type Decision int

const (
	DecisionDiscard Decision = iota
	DecisionUpdate
)

// UpdateKey is the key that selects DecisionUpdate.
const UpdateKey = 'u'

// DecisionFromKey maps a keypress to a decision: UpdateKey updates, every
// other key discards.
func DecisionFromKey(key rune) Decision {
	if key == UpdateKey {
		return DecisionUpdate
	}
	return DecisionDiscard
}

// Decider blocks until the user has decided what to do with the open
// working directory.
type Decider interface {
	Decide(ctx context.Context) (Decision, error)
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(ctx context.Context) (Decision, error)

// Decide calls f(ctx).
func (f DeciderFunc) Decide(ctx context.Context) (Decision, error) {
	return f(ctx)
}

// Outcome is the terminal result of Run.
type Outcome int

const (
	OutcomeDiscarded Outcome = iota
	OutcomeResealed
)

func (o Outcome) String() string {
	if o == OutcomeResealed {
		return "resealed"
	}
	return "discarded"
}

// PhaseError tags a workflow failure with the state it happened in.
type PhaseError struct {
	Phase State
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

func phaseError(phase State, err error) error {
	if err == nil {
		return nil
	}
	return &PhaseError{Phase: phase, Err: err}
}
