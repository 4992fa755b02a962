package disclosure

import (
	"errors"
	"fmt"
)

var (
	// ErrProfileNotFound means no profile exists for the target username.
	// Callers must render this differently from a present-but-empty
	// disclosure (profile exists, nothing visible).
	ErrProfileNotFound = errors.New("no profile exists for the given username")

	ErrSessionNotFound = errors.New("no access session for the given token")
	ErrSessionClosed   = errors.New("access session is closed")
	ErrAlreadyClaimed  = errors.New("professional access already claimed for this session")
)

// policyViolation marks a programming/configuration defect in the
// visibility rules. Disclosure fails closed on these - data is never
// returned under an unclassified rule.
type policyViolation struct {
	msg string
}

func (e *policyViolation) Error() string {
	return e.msg
}

func newPolicyViolation(format string, args ...interface{}) error {
	return &policyViolation{msg: fmt.Sprintf(format, args...)}
}

// IsPolicyViolation reports whether err came from an unrecognized field
// group or viewer role reaching the visibility policy.
func IsPolicyViolation(err error) bool {
	var violation *policyViolation
	return errors.As(err, &violation)
}
