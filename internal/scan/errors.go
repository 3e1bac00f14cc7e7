package scan

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidRange  = errors.New("invalid seed range")
	ErrInvalidMetric = errors.New("unknown battle metric")
	ErrInvalidTarget = errors.New("invalid target operation")
	ErrTimeout       = errors.New("scan timed out")
)

// TimeoutError reports the deadline a scan ran out of. It matches ErrTimeout.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("scan timed out after %s", e.Timeout)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
