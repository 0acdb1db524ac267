package update

import "errors"

// Sentinel errors for update metadata operations.
var (
	// ErrNoStaged indicates no staged update metadata exists.
	ErrNoStaged = errors.New("no staged update")

	// ErrInvalidVersion indicates a version string is not valid SemVer.
	ErrInvalidVersion = errors.New("invalid version")

	// ErrNotNewer indicates the staged version does not supersede the
	// current one.
	ErrNotNewer = errors.New("staged version is not newer")
)
