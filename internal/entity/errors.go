package entity

import "errors"

// ErrRefreshRotationConflict reports that a guarded refresh-token update
// matched no row: another login, refresh, or logout touched the user's
// rotation state first.
var ErrRefreshRotationConflict = errors.New("refresh token state changed concurrently")
