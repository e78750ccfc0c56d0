package statemachine

import (
	"errors"
	"fmt"
)

// Configuration errors. These are returned to whoever sets the machine up and
// leave the machine inert rather than crashing anything.
var (
	// ErrStateNameRequired indicates that a state was registered without a name.
	ErrStateNameRequired = errors.New("state name is required")
	// ErrNilState indicates that a nil State was registered.
	ErrNilState = errors.New("state is nil")
	// ErrDuplicateStateName indicates that a name was registered twice.
	ErrDuplicateStateName = errors.New("duplicate state name")
	// ErrNoStates indicates that Initialize was called with no registered states.
	ErrNoStates = errors.New("no states registered")
	// ErrRegistryFrozen indicates an attempt to register a state after Initialize.
	ErrRegistryFrozen = errors.New("states cannot be registered after initialization")
	// ErrAlreadyInitialized indicates that Initialize was called more than once.
	ErrAlreadyInitialized = errors.New("state machine already initialized")
)

// Runtime errors. These are reported through the diagnostic sink and leave the
// active state unchanged.
var (
	// ErrStateNotFound indicates a transition to a name that was never registered.
	ErrStateNotFound = errors.New("no state found with key")
	// ErrNoDefaultState indicates that Initialize fell back to the first registered state.
	ErrNoDefaultState = errors.New("no default state set")
	// ErrTransitionNotAllowed indicates a transition outside the declared edges.
	ErrTransitionNotAllowed = errors.New("transition not allowed")
	// ErrStaleRequest indicates a transition request from a state that is no longer active.
	ErrStaleRequest = errors.New("transition requested by inactive state")
	// ErrTransitionLoop indicates that queued transition requests kept producing
	// new requests past the drain limit.
	ErrTransitionLoop = errors.New("too many chained transition requests")
	// ErrNotInitialized indicates use of a machine before Initialize.
	ErrNotInitialized = errors.New("state machine not initialized")
	// ErrMachineClosed indicates use of a machine after Close.
	ErrMachineClosed = errors.New("state machine closed")
	// ErrInvalidDelta indicates a negative or non-finite tick delta.
	ErrInvalidDelta = errors.New("invalid tick delta")
)

// Config errors.
var (
	// ErrConfigNameRequired indicates that a configuration name is required.
	ErrConfigNameRequired = errors.New("config name is required")
	// ErrInitialStateNotFound indicates that the configured initial state does not exist.
	ErrInitialStateNotFound = errors.New("initial state does not exist")
	// ErrTransitionFromRequired indicates that a transition from state is required.
	ErrTransitionFromRequired = errors.New("transition from state is required")
	// ErrTransitionToRequired indicates that a transition to state is required.
	ErrTransitionToRequired = errors.New("transition to state is required")
	// ErrTransitionFromNotFound indicates that a transition from state does not exist.
	ErrTransitionFromNotFound = errors.New("transition from state does not exist")
	// ErrTransitionToNotFound indicates that a transition to state does not exist.
	ErrTransitionToNotFound = errors.New("transition to state does not exist")
	// ErrUnknownStateKind indicates a state kind with no constructor in the catalog.
	ErrUnknownStateKind = errors.New("unknown state kind")
)

// IsConfigurationError reports whether err is one of the setup-time errors that
// leave a machine inert.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrStateNameRequired) ||
		errors.Is(err, ErrNilState) ||
		errors.Is(err, ErrDuplicateStateName) ||
		errors.Is(err, ErrNoStates) ||
		errors.Is(err, ErrRegistryFrozen) ||
		errors.Is(err, ErrAlreadyInitialized)
}

// StateError wraps an error with state context.
type StateError struct {
	State string
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state %s: %v", e.State, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// TransitionError wraps an error with transition context.
type TransitionError struct {
	From string
	To   string
	Err  error
}

func (e *TransitionError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("transition to %s: %v", e.To, e.Err)
	}

	return fmt.Sprintf("transition %s -> %s: %v", e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// WrapStateError wraps an error with state context.
func WrapStateError(state string, err error) error {
	if err == nil {
		return nil
	}

	return &StateError{
		State: state,
		Err:   err,
	}
}

// WrapTransitionError wraps an error with transition context.
func WrapTransitionError(from, to string, err error) error {
	if err == nil {
		return nil
	}

	return &TransitionError{
		From: from,
		To:   to,
		Err:  err,
	}
}
