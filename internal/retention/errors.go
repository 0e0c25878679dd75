package retention

import "errors"

// ErrSafetyViolation is returned by FreshReset when Confirm is false:
// the operator CLI must exit with a distinct code and change nothing
// on disk or in the database.
var ErrSafetyViolation = errors.New("retention: fresh reset requires explicit confirmation")
