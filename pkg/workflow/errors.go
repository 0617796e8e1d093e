package workflow

import "errors"

// Sentinel errors identifying the condition behind a *Error. Callers match
// against these with errors.Is rather than string comparison.
var (
	ErrNilDefinition        = errors.New("workflow: nil definition")
	ErrMissingStartAt       = errors.New("workflow: definition missing StartAt")
	ErrStateNotFound        = errors.New("workflow: referenced state not found")
	ErrInvalidState         = errors.New("workflow: invalid state definition")
	ErrUnsupportedStateType = errors.New("workflow: unsupported state type")
	ErrItemsPathNoMatch     = errors.New("workflow: items_path matched no value")
	ErrItemsPathAmbiguous   = errors.New("workflow: items_path matched more than one value")
	ErrItemsPathNotArray    = errors.New("workflow: items_path value is not a JSON array")
	ErrEmptyMemorySpace     = errors.New("workflow: sampler returned an empty memory space")
	ErrInfeasible           = errors.New("workflow: execution time threshold is infeasible")
)

// Kind tags the stage of the pipeline a *Error originated from.
type Kind string

const (
	KindDefinition    Kind = "definition"
	KindPropagation   Kind = "propagation"
	KindOptimization  Kind = "optimization"
	KindInfeasibility Kind = "infeasibility"
)

// Error wraps an underlying error with the pipeline stage and, where
// applicable, the state name it occurred on.
type Error struct {
	Kind  Kind
	State string
	Err   error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.State != "" {
		msg += " state " + e.State
	}
	return msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
