package paging

import "errors"

var (
	// ErrBadConfig indicates a non-positive page size or a total memory
	// smaller than one page.
	ErrBadConfig = errors.New("paging: bad configuration")

	// ErrProcessTooLarge indicates the process needs more pages than exist.
	ErrProcessTooLarge = errors.New("paging: process larger than total pages")

	// ErrNoVictims indicates the replacement policy found fewer victim pages
	// than the fault required.
	ErrNoVictims = errors.New("paging: not enough pages to replace")

	// ErrBadPolicy indicates an unrecognized replacement policy name.
	ErrBadPolicy = errors.New("paging: unknown replacement policy")

	// ErrAddressFault indicates a logical address outside the process's pages.
	ErrAddressFault = errors.New("paging: address fault")
)
