package domain

import "errors"

// Sentinel errors for the flashcard packages.
// Callers check them with errors.Is: errors.Is(err, domain.ErrNotFound)
var (
	// ErrValidation marks a required field that is empty after trimming.
	ErrValidation = errors.New("flashcard: empty required field")

	// ErrNotFound marks an operation referencing a nonexistent card id.
	ErrNotFound = errors.New("flashcard: card not found")

	// ErrFormat marks a malformed import payload (dictionary or deck file).
	ErrFormat = errors.New("flashcard: malformed import payload")

	// ErrImport marks an access failure on the source store during a
	// cross-store import.
	ErrImport = errors.New("flashcard: source store import failed")
)
