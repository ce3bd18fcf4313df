package presence

import "errors"

// Domain errors for presence handling. The mapper itself never returns an
// error; these are used at the edges where names are parsed or tables are
// tuned.
var (
	// ErrUnknownState indicates a state name is not a canonical state.
	ErrUnknownState = errors.New("unknown presence state")

	// ErrInvalidInitialState indicates a state cannot be used as an initial value.
	ErrInvalidInitialState = errors.New("invalid initial state")

	// ErrInvalidTable indicates a tuned table breaks a profile invariant.
	ErrInvalidTable = errors.New("invalid presentation table")
)
