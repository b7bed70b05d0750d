// Package paging implements a fixed-size page allocator with pluggable page
// replacement.
//
// # Overview
//
// Memory is divided into totalMemory/pageSize pages. A process of size S needs
// ceil(S/pageSize) pages. Pages come off a free list seeded in ascending order,
// so a fresh allocator hands out the lowest indices first.
//
// When the free list cannot satisfy a request the allocator takes a page fault:
// it selects victims among the allocated pages with the active replacement
// policy and reassigns them to the requester. The previous owner learns about
// each eviction through the EvictFunc hook, so no page is ever listed by two
// processes.
//
// # Replacement Policies
//
//   - FIFO: oldest admitted page first.
//   - LRU: least recently stamped page first. Access refreshes a page's stamp.
//   - Optimal: approximated by LRU. There is no future access trace, so true
//     Belady replacement is not possible here.
//
// The policy can be changed at any time and applies to the next fault. Both
// FIFO and LRU metadata are maintained continuously.
//
// # Invariants
//
// The free list and the owned pages always partition [0, TotalPages()).
// Failed allocations leave every structure untouched.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. memory.Manager serializes access.
package paging
