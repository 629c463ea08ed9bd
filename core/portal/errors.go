package portal

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrServiceUnavailable = errors.New("portal: server temporarily unavailable")
	ErrNetwork            = errors.New("portal: failed to fetch")
	ErrNoData             = errors.New("portal: no data for this period")
	ErrNotLoggedIn        = errors.New("portal: not logged in")
	ErrBadCredentials     = errors.New("portal: invalid credentials")

	// ErrNoAttendance is what the portal answers for a semester without attendance records.
	ErrNoAttendance = &NoDataError{Message: "NO Attendance Found"}
)

// NoDataError is returned when the portal has nothing for the requested period.
// It matches ErrNoData with errors.Is.
type NoDataError struct {
	Message string
}

func (e *NoDataError) Error() string {
	return e.Message
}

func (e *NoDataError) Is(target error) bool {
	return target == ErrNoData
}

// APIError is a non-success answer of the portal that fits no other category.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("portal: %s (status %d)", e.Message, e.Status)
	}
	return "portal: " + e.Message
}

// LoginError wraps the reason a login attempt was rejected.
type LoginError struct {
	Err error
}

func (e *LoginError) Error() string {
	return "login failed: " + e.Err.Error()
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

func IsNoData(err error) bool {
	return errors.Is(err, ErrNoData)
}

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}

func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

func IsLoginError(err error) bool {
	var lErr *LoginError
	return errors.As(err, &lErr)
}
