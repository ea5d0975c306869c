package scheduler

import "github.com/cockroachdb/errors"

// ErrInvalidConfig is returned when configuration is invalid
var ErrInvalidConfig = errors.New("invalid scheduler configuration")
