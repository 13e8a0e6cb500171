package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrEntryNotFound     = errors.New("journal entry not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrTemporary         = errors.New("temporary failure")
	ErrProvider          = errors.New("provider failure")

	// Upload validation kinds. Both satisfy errors.Is(err, ErrInvalidInput).
	ErrFileTooLarge        = fmt.Errorf("%w: file too large", ErrInvalidInput)
	ErrUnsupportedFileType = fmt.Errorf("%w: unsupported file type", ErrInvalidInput)
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
