package standingsdb

import "errors"

// Sentinel errors for the repository layer. Infrastructure signals only;
// the service layer decides whether they are domain failures.
var (
	// ErrSlateNotFound indicates the requested slate does not exist.
	ErrSlateNotFound = errors.New("slate not found")

	// ErrNoRowsAffected indicates an UPDATE matched zero rows.
	ErrNoRowsAffected = errors.New("no rows affected")
)
