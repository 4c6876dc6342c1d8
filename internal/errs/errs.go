package errs

import "errors"

// Domain errors. Handlers and pipelines match these with errors.Is.
var (
	ErrSignalementNotFound  = errors.New("signalement not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrEntrepriseNotFound   = errors.New("entreprise not found")
	ErrUserNotFound         = errors.New("user not found")

	// ErrInvalidStatus rejects a status outside NEW/IN_PROGRESS/DONE.
	ErrInvalidStatus = errors.New("invalid status")
)

// Document store errors, shared by the firestore client and the sync
// pipelines.
var (
	// ErrUnavailable is a transient transport or store failure. The whole
	// operation is safe to retry later.
	ErrUnavailable = errors.New("document store unavailable")

	// ErrNotFound means the referenced document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrMalformed means a record cannot be used as-is (required field
	// missing or wrongly typed). Terminal for that single record.
	ErrMalformed = errors.New("malformed record")

	// ErrNoMatch means propagation found no external counterpart. The
	// pipeline never creates documents, so this needs manual investigation.
	ErrNoMatch = errors.New("no matching document")

	// ErrPartialFailure marks a transition that committed locally but did
	// not fully reach the document store.
	ErrPartialFailure = errors.New("partial failure")
)
