package lifecycle

import (
	"errors"
	"fmt"

	"sidecrew/internal/domain/application"
	"sidecrew/internal/domain/job"
	"sidecrew/internal/repository"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal error")
)

var (
	ErrAlreadyApplied  = fmt.Errorf("%w: already applied to this posting", ErrInvalidState)
	ErrAlreadyRated    = fmt.Errorf("%w: already rated", ErrInvalidState)
	ErrPostingFilled   = fmt.Errorf("%w: posting is no longer accepting workers", ErrInvalidState)
	ErrNoAgent         = fmt.Errorf("%w: job has no agent", ErrInvalidState)
	ErrJobCompleted    = fmt.Errorf("%w: completed jobs cannot be deleted", ErrConflict)
	ErrRemarksRequired = fmt.Errorf("%w: remarks are required when rejecting proof", ErrValidation)
	ErrProofIncomplete = fmt.Errorf("%w: image, latitude and longitude are required", ErrValidation)
	ErrInvalidRating   = fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
)

var taxonomy = []error{ErrNotFound, ErrUnauthorized, ErrInvalidState, ErrValidation, ErrConflict}

// classify maps store and domain errors onto the package taxonomy. Anything
// it does not recognise becomes ErrInternal.
func classify(err error) error {
	for _, e := range taxonomy {
		if errors.Is(err, e) {
			return err
		}
	}
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrReference):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	case errors.Is(err, job.ErrInvalidTransition), errors.Is(err, application.ErrInvalidTransition):
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return ErrInternal
}
