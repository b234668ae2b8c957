package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// The messages are what clients see in the {"error": ...} body.
var (
	ErrNotFound           = errors.New("Not found.")
	ErrForbidden          = errors.New("Only the creator can modify this item.")
	ErrInvalidIdentifier  = errors.New("Malformed id.")
	ErrAlreadyVoted       = errors.New("You have already voted on this item.")
	ErrInvalidVoteType    = errors.New("Vote type must be upVote or downVote.")
	ErrInvalidCoordinates = errors.New("Invalid coordinates.")
	ErrConflict           = errors.New("Username or email address already in use.")
	ErrParentGone         = errors.New("The hotspot this comment is related to wasn't found on the server.")
	ErrInvalidCredentials = errors.New("Wrong credentials.")
)

// NotFoundError is an ErrNotFound naming the missing resource.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found."
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// ValidationError names the fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "Validation error: problem with " + strings.Join(e.Fields, ", ") + "."
}

func newValidationError(fields ...string) *ValidationError {
	sorted := append([]string(nil), fields...)
	sort.Strings(sorted)
	return &ValidationError{Fields: sorted}
}

// parseID rejects anything that is not a canonical uuid.
func parseID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", ErrInvalidIdentifier
	}
	return u.String(), nil
}
