package memory

import "errors"

var (
	// ErrCapacityExceeded is wrapped around every allocator failure caused by
	// lack of memory: a process larger than all pages, a fault without enough
	// victims, or no segment large enough after compaction.
	ErrCapacityExceeded = errors.New("memory: capacity exceeded")

	// ErrUnknownProcess indicates an operation on an id that is not registered.
	ErrUnknownProcess = errors.New("memory: unknown process")

	// ErrPartialAllocation indicates a segmentation allocation that failed
	// part-way and was rolled back.
	ErrPartialAllocation = errors.New("memory: partial allocation rolled back")

	// ErrBadOptions indicates invalid Options.
	ErrBadOptions = errors.New("memory: invalid options")
)
