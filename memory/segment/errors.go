package segment

import "errors"

var (
	// ErrBadConfig indicates a non-positive total memory.
	ErrBadConfig = errors.New("segment: bad configuration")

	// ErrBadSize indicates a request for a non-positive size.
	ErrBadSize = errors.New("segment: size must be positive")

	// ErrBadKind indicates an unknown kind name or a request to allocate a
	// FREE segment.
	ErrBadKind = errors.New("segment: kind must be CODE, DATA or STACK")

	// ErrNoSpace indicates that no free segment is large enough, even after
	// compaction.
	ErrNoSpace = errors.New("segment: no free segment large enough")

	// ErrAddressFault indicates an offset outside a segment or a missing segment.
	ErrAddressFault = errors.New("segment: address fault")
)
