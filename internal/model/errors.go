package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")

	// ErrProvisioning is the sentinel wrapped by ProvisioningError.
	ErrProvisioning = errors.New("provisioning failed")
	// ErrLaunch is the sentinel wrapped by LaunchFailure.
	ErrLaunch = errors.New("launch failed")
)

// ProvisioningError is returned when a package installation step fails. It is
// fatal: the image construction is aborted and no image is tagged.
type ProvisioningError struct {
	// Step is the name of the step that failed (e.g. the RUN layer).
	Step string
	Err  error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provisioning step %q failed: %s", e.Step, e.Err)
}

// Unwrap returns both the cause and ErrProvisioning so callers can use errors.Is
// with any of them.
func (e *ProvisioningError) Unwrap() []error { return []error{ErrProvisioning, e.Err} }

// LaunchFailure is returned when the entry process exits with a non-zero code
// or crashes. The exit code must be propagated as the caller's own.
type LaunchFailure struct {
	ExitCode int
	Err      error
}

func (e *LaunchFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("entry process failed with exit code %d: %s", e.ExitCode, e.Err)
	}
	return fmt.Sprintf("entry process failed with exit code %d", e.ExitCode)
}

func (e *LaunchFailure) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLaunch}
	}
	return []error{ErrLaunch, e.Err}
}
