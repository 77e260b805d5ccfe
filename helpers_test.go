package main

import "testing"

// tcheck fails the test immediately if err is not nil.
func tcheck(tb testing.TB, err error) {
	tb.Helper()
	if err != nil {
		tb.Fatal(err)
	}
}

// tcheckf is like tcheck, prefixing the error with a formatted context.
func tcheckf(tb testing.TB, err error, format string, args ...any) {
	tb.Helper()
	if err != nil {
		tb.Fatalf(format+": %v", append(args, err)...)
	}
}
