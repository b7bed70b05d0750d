// Package segment implements variable-size segment allocation over a linear
// address range.
//
// # Overview
//
// Memory is an ordered, gapless list of segments covering [0, total). Each
// segment is either FREE or owned by one process and tagged CODE, DATA or
// STACK.
//
//   - Allocate: best-fit search over free segments. The smallest segment that
//     fits wins; among equal sizes the lowest address wins. When nothing fits
//     the allocator compacts once and retries. A larger segment is split into
//     an exact-size allocated prefix and a free remainder.
//   - Deallocate: frees every segment of a process, then coalesces adjacent
//     free segments.
//   - Compact: slides allocated segments down to address 0 in their current
//     order and leaves a single trailing free segment.
//
// # Segment Handles
//
// Processes hold segment IDs, never segment values. IDs are stable across
// compaction, which is the only operation that moves allocated segments.
//
// # Fragmentation
//
// Fragmentation is (totalFree - largestFree) / totalFree * 100: the share of
// free memory that sits outside the largest free block.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. memory.Manager serializes access.
package segment
