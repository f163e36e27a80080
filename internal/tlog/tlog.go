// Package tlog is a thin test-scoped logger: prefixes every line with the
// running test's name so concurrent subtests interleave legibly, mirroring
// the teacher's own tools/tlog convention of tagging output per test.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package tlog

import "testing"

func Logf(t *testing.T, format string, args ...any) {
	t.Helper()
	t.Logf("["+t.Name()+"] "+format, args...)
}

func Logln(t *testing.T, args ...any) {
	t.Helper()
	t.Log(append([]any{"[" + t.Name() + "]"}, args...)...)
}
