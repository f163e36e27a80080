// Package mono provides a monotonic clock reading for rate-limited
// log-flush and idle-timeout decisions.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

var start = time.Now()

// NanoTime returns nanoseconds elapsed since package init, monotonic for
// the lifetime of the process (time.Since uses the runtime's monotonic
// clock reading under the hood).
func NanoTime() int64 { return int64(time.Since(start)) }
