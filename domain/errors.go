package domain

import (
	"errors"
	"fmt"
)

// Process exit codes, one per failure class. Zero is success.
const (
	ExitOK                 = 0
	ExitGeneric            = 1 // any failure without a more specific class
	ExitMissingParameter   = 2 // required value absent in non-interactive mode
	ExitMissingLocalFile   = 3 // a required local file does not exist
	ExitEmptyField         = 4 // a required field validated empty
	ExitMissingKeyFile     = 5 // the private key file does not exist
	ExitConnectivity       = 6 // the remote host could not be reached
	ExitNoRunningContainer = 7 // nothing was running after the deploy step
)

// StepError is a workflow failure tagged with the step that produced it and
// the exit-code class the process should terminate with.
type StepError struct {
	Step string
	Code int
	Err  error
}

// NewStepError builds a StepError wrapping an underlying cause.
func NewStepError(step string, code int, err error) *StepError {
	return &StepError{Step: step, Code: code, Err: err}
}

// Stepf builds a StepError from a formatted message.
func Stepf(step string, code int, format string, args ...interface{}) *StepError {
	return &StepError{Step: step, Code: code, Err: fmt.Errorf(format, args...)}
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ExitCodeOf maps an error to the process exit code. Nil maps to ExitOK and
// anything without a StepError in its chain maps to ExitGeneric.
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitOK
	}
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Code
	}
	return ExitGeneric
}
