package services

import (
	apperrors "infrapulse/internal/errors"
)

// ErrNoReport is returned before the first successful run
var ErrNoReport = apperrors.NewNotFoundError("market health report")

// ErrShuttingDown is returned when a run is requested after Close
var ErrShuttingDown = apperrors.NewLockError("service is shutting down", nil)
