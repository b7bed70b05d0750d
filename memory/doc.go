// Package memory coordinates the paging and segmentation allocators over one
// shared set of processes.
//
// # Overview
//
// Manager is the single entry point for callers. It owns the process
// registry and both allocators, and forwards allocation requests to the
// active Strategy:
//
//	m, err := memory.New(memory.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	p, err := m.CreateProcess("Browser", 130, 5)
//	if err != nil {
//	    return err
//	}
//	if err := m.Allocate(p.ID); err != nil {
//	    // errors.Is(err, memory.ErrCapacityExceeded)
//	}
//
// # Strategies
//
// Under paging a process receives ceil(size/pageSize) pages. Under
// segmentation it receives three segments, CODE, DATA and STACK, sized
// size/3, size/3 and the remainder. Segmentation allocation is all-or-nothing:
// if any part fails, the parts already granted are released.
//
// SetStrategy drains every active process under the outgoing strategy, then
// reallocates every inactive process under the new one. Processes that do not
// fit stay inactive.
//
// # Thread Safety
//
// Manager is safe for concurrent use. Mutations hold an exclusive lock for
// their whole duration, including segmentation rollback. Read-only views
// share a read lock and return copies.
package memory
