package cli

import (
	"strings"
	"testing"
)

func TestApplyRequiresOverlayOrStack(t *testing.T) {
	resetCLIEnv(t)

	_, err := runRoot(t, "apply", "--mount-point", t.TempDir())
	if err == nil {
		t.Fatal("expected an error when neither --overlay nor --stack is given")
	}
	if !strings.Contains(err.Error(), "--overlay or --stack") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyRejectsOverlayAndStack(t *testing.T) {
	resetCLIEnv(t)

	_, err := runRoot(t, "apply", "--mount-point", t.TempDir(), "--overlay", "base", "--stack", "dev")
	if err == nil {
		t.Fatal("expected an error when both --overlay and --stack are given")
	}
}

func TestApplyRequiresMountPoint(t *testing.T) {
	resetCLIEnv(t)

	_, err := runRoot(t, "apply", "--overlay", "base")
	if err == nil {
		t.Fatal("expected an error without a mount point")
	}
	if !strings.Contains(err.Error(), "mount point is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExecRequiresMountPoint(t *testing.T) {
	resetCLIEnv(t)

	_, err := runRoot(t, "exec", "--", "true")
	if err == nil {
		t.Fatal("expected an error without a mount point")
	}
	if !strings.Contains(err.Error(), "mount point is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}
