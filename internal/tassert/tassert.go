// Package tassert provides fatal-on-error test assertions, kept separate
// from Ginkgo/Gomega matchers so plain testing.T leaf-package tests (wire,
// sassvalue, signature) don't need to pull in a BDD framework.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package tassert

import "testing"

func Fatal(t *testing.T, cond bool, args ...any) {
	t.Helper()
	if !cond {
		t.Fatal(args...)
	}
}

func CheckFatal(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func Errorf(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Errorf(format, args...)
	}
}
