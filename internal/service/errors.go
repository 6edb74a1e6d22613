package service

import (
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates the actor may not perform the operation.
	ErrUnauthorized = errors.New("not authorized")
	// ErrDuplicate indicates a uniqueness rule would be violated.
	ErrDuplicate = errors.New("already exists")
	// ErrCapacityExceeded indicates a class has no free seats.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrInvalidState indicates the record is not in a state that allows the operation.
	ErrInvalidState = errors.New("invalid state")
)

func notFound(entity string, id interface{}) error {
	return fmt.Errorf("%s %v %w", entity, id, ErrNotFound)
}

func duplicate(entity string, key interface{}) error {
	return fmt.Errorf("%s %v %w", entity, key, ErrDuplicate)
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func fmtInvalidState(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrInvalidState)
}

// lookupError maps a missing row to ErrNotFound and passes anything else through.
func lookupError(err error, entity string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(entity, id)
	}
	return err
}
