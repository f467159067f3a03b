package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is matched by every *MissingCredentialError.
	ErrMissingCredential = errors.New("missing credential")

	// ErrShapeMismatch is returned when two grids do not share dimensions.
	ErrShapeMismatch = errors.New("grid shape mismatch")

	// ErrNoTimeStep is returned when a dataset has no slice for the requested date.
	ErrNoTimeStep = errors.New("no time step for date")
)

// MissingCredentialError reports a required secret that was not configured.
// Components return it before any network call is attempted.
type MissingCredentialError struct {
	Name string // environment variable that should hold the secret
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing credential: %s is not set", e.Name)
}

func (e *MissingCredentialError) Is(target error) bool {
	return target == ErrMissingCredential
}
