package cli

import (
	"strings"
	"testing"
)

func TestPlanStackCommand(t *testing.T) {
	resetCLIEnv(t)
	pinPlainOutput(t)

	root := writeListFixture(t)

	out, err := runRoot(t, "plan", "--stack", "dev", "--overlay-dirs", root)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	for _, want := range []string{
		"Planned steps:",
		"1. base (from stack dev)",
		"2. extras (from stack dev) [disabled]",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("plan output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "apt-get update") {
		t.Fatalf("commands should only appear with --verbose, got:\n%s", out)
	}
}

func TestPlanOverlayVerbose(t *testing.T) {
	resetCLIEnv(t)
	pinPlainOutput(t)

	root := writeListFixture(t)

	out, err := runRoot(t, "plan", "--overlay", "base", "--overlay-dirs", root, "--verbose")
	if err != nil {
		t.Fatalf("plan --verbose failed: %v", err)
	}
	for _, want := range []string{
		"1. base",
		"- chroot-cmd: apt-get update",
		"- local: setup.sh",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("plan output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "from stack") {
		t.Fatalf("direct overlay plan should not name a stack, got:\n%s", out)
	}
}

func TestPlanRequiresOverlayOrStack(t *testing.T) {
	resetCLIEnv(t)

	_, err := runRoot(t, "plan")
	if err == nil || !strings.Contains(err.Error(), "--overlay or --stack") {
		t.Fatalf("expected missing-selection error, got %v", err)
	}
}

func TestPlanUnknownStack(t *testing.T) {
	resetCLIEnv(t)
	pinPlainOutput(t)

	_, err := runRoot(t, "plan", "--stack", "ghost", "--overlay-dirs", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("expected unknown-stack error, got %v", err)
	}
}
