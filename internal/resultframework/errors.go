package resultframework

import "errors"

// Sentinel errors for recoverable, user-reportable conditions. Handlers
// map these to 404/409 responses; anything else is an infrastructure
// failure.
var (
	ErrIndicatorNotFound = errors.New("indicator not found")
	ErrSnapshotNotFound  = errors.New("snapshot not found")
	ErrAlreadyFinalized  = errors.New("snapshot is already finalized")
)
