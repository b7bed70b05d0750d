// Package process defines the logical process entity shared by the paging and
// segmentation allocators, and the registry the coordinator keeps them in.
//
// A Process never holds allocator state directly. It only records the page
// indices (paging) or segment ids (segmentation) an allocator handed to it.
//
// # Thread Safety
//
// Process and Registry are not thread-safe. The memory.Manager serializes all
// access; callers outside the manager receive Info snapshots.
package process
