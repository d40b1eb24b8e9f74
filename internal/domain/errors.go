package domain

import "errors"

var (
	// ErrNotFound indicates the referenced RawItem or EnrichedItem does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyApproved indicates a transition that requires a pending item.
	ErrAlreadyApproved = errors.New("already approved")

	// ErrDuplicateURL indicates the url unique constraint rejected a write.
	ErrDuplicateURL = errors.New("duplicate url")

	// ErrUnknownSource indicates a source name missing from the registry.
	ErrUnknownSource = errors.New("unknown source")

	// ErrSourceUnavailable indicates that no requested source produced a result.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrEnrichmentFailure wraps collaborator errors (network, quota, empty answer).
	ErrEnrichmentFailure = errors.New("enrichment failed")

	// ErrMalformedEnrichment indicates the collaborator answered with the wrong shape
	// or a category outside the taxonomy.
	ErrMalformedEnrichment = errors.New("malformed enrichment")

	// ErrProcessLogClosed indicates a second terminal update on the same run.
	ErrProcessLogClosed = errors.New("process log already completed")

	// ErrInvalidInput indicates caller-supplied arguments are unusable.
	ErrInvalidInput = errors.New("invalid input")
)
