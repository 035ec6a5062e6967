package domain

import "fmt"

// WindowState is the per-window scheduler state.
type WindowState string

// Scheduler states.
const (
	StateIdle        WindowState = "idle"
	StatePending     WindowState = "pending"
	StateCapturing   WindowState = "capturing"
	StateHashing     WindowState = "hashing"
	StateSkipped     WindowState = "skipped"
	StateExtracting  WindowState = "extracting"
	StateIngesting   WindowState = "ingesting"
	StateBlocked     WindowState = "blocked"
	StateProblematic WindowState = "problematic"
)

// transitions lists the legal successors of each state. Blocked and
// Problematic are reachable from every state and are not listed here.
var transitions = map[WindowState][]WindowState{
	StateIdle:        {StatePending, StateIngesting},
	StatePending:     {StateCapturing, StateIngesting, StateIdle},
	StateCapturing:   {StateHashing, StateIdle},
	StateHashing:     {StateSkipped, StateExtracting, StateIdle},
	StateSkipped:     {StateIdle},
	StateExtracting:  {StateExtracting, StateIngesting, StateIdle},
	StateIngesting:   {StateIdle},
	StateBlocked:     {StateIdle, StatePending},
	StateProblematic: {StateIdle},
}

// States returns every scheduler state in lifecycle order.
func States() []WindowState {
	return []WindowState{
		StateIdle, StatePending, StateCapturing, StateHashing, StateSkipped,
		StateExtracting, StateIngesting, StateBlocked, StateProblematic,
	}
}

// CanTransition reports whether the scheduler may move a window from one
// state to another.
func CanTransition(from, to WindowState) bool {
	if to == StateBlocked || to == StateProblematic {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a state change and returns the new state.
func Transition(from, to WindowState) (WindowState, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

// Busy reports whether the state represents in-flight work.
func (s WindowState) Busy() bool {
	switch s {
	case StatePending, StateCapturing, StateHashing, StateExtracting, StateIngesting:
		return true
	default:
		return false
	}
}
