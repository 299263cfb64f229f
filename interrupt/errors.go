package interrupt

import (
	"errors"

	"github.com/gloworm-vision/gpio-interrupt/hardware"
)

// Process exit statuses. The numbers follow the libmraa result codes so
// scripts written against the C examples keep working.
const (
	ExitSuccess          = 0
	ExitFailure          = 1
	ExitInvalidParameter = 4
	ExitNoResources      = 6
	ExitInvalidPlatform  = 10
	ExitUnspecified      = 99
)

// ErrLineUnavailable is returned when the GPIO line can't be acquired.
type ErrLineUnavailable struct {
	error
}

func (err ErrLineUnavailable) Is(target error) bool {
	_, ok := target.(ErrLineUnavailable)
	return ok
}

func (err ErrLineUnavailable) Unwrap() error { return err.error }

// ErrDirection is returned when the line can't be configured as an input.
type ErrDirection struct {
	error
}

func (err ErrDirection) Is(target error) bool {
	_, ok := target.(ErrDirection)
	return ok
}

func (err ErrDirection) Unwrap() error { return err.error }

// ErrRegistration is returned when the edge handler can't be attached.
type ErrRegistration struct {
	error
}

func (err ErrRegistration) Is(target error) bool {
	_, ok := target.(ErrRegistration)
	return ok
}

func (err ErrRegistration) Unwrap() error { return err.error }

// ExitCode maps an error returned by Demo.Run to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, hardware.ErrUnsupportedPlatform{}):
		return ExitInvalidPlatform
	case errors.Is(err, ErrLineUnavailable{}):
		return ExitNoResources
	case errors.Is(err, ErrDirection{}):
		return ExitInvalidParameter
	case errors.Is(err, ErrRegistration{}):
		return ExitUnspecified
	}

	return ExitFailure
}
