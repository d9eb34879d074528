package types

import "fmt"

// MalformedResultError is returned when the analysis output is not a JSON
// array of error objects. Payload holds the raw output for diagnostics.
type MalformedResultError struct {
	Payload string
	Err     error
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf("Invalid output: `%s`.", e.Payload)
}

func (e *MalformedResultError) Unwrap() error {
	return e.Err
}
