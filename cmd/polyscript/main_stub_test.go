//go:build !manifold

package main

import "testing"

func TestRunManifoldUnavailable(t *testing.T) {
	code, _, errOut := runCLI([]string{"-kernel", "manifold", "-"}, "")
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if errOut == "" {
		t.Error("no error reported")
	}
}
