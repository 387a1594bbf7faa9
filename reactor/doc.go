// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the single-goroutine task loops that drive stream
// pipelines. A pipeline's chains and filters are touched only by the loop
// that owns it; other goroutines hand work over with Post.
package reactor
