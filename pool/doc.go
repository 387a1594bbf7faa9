// Package pool
// Author: momentics <momentics@gmail.com>
//
// Process-wide segment pool backing every buffer chain.
// Idle segments are kept in a capacity-ordered min-heap under a single mutex;
// hit, miss, eviction and drop counters are lock-free. Clients bind a pool to
// a pooling capability and act as buffer.Allocator implementations.
package pool
