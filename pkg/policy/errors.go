package policy

import "fmt"

// InvalidStateError reports a state-restricted operation attempted
// while the device's live state does not match the required kind.
type InvalidStateError struct {
	// Expected is the kind the operation requires.
	Expected Kind
	// Actual is the device's live state kind.
	Actual Kind
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid device state: expected %s, actual %s", e.Expected, e.Actual)
}

// Is reports whether target is an InvalidStateError with the same
// expected and actual kinds, supporting errors.Is comparisons.
func (e *InvalidStateError) Is(target error) bool {
	t, ok := target.(*InvalidStateError)
	if !ok {
		return false
	}
	return e.Expected == t.Expected && e.Actual == t.Actual
}
