package process

import "errors"

var (
	// ErrInvalid indicates a process was requested with a non-positive size or
	// a priority outside [MinPriority, MaxPriority].
	ErrInvalid = errors.New("process: invalid size or priority")
)
