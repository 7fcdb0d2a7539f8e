package engine

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tachyon-os/overlayctl/internal/catalog"
	"github.com/tachyon-os/overlayctl/internal/journal"
)

func writeCmdOverlay(t *testing.T, root, name, cmd string) {
	t.Helper()
	writeOverlayFixture(t, root, name, `{
	"name": "`+name+`",
	"description": "test overlay",
	"commands": [
		{"type": "chroot-cmd", "cmd": "`+cmd+`"}
	]
}`)
}

func executedCmds(runner *fakeRunner) []string {
	var out []string
	for _, c := range runner.calls {
		if c.op == "exec" {
			out = append(out, c.args[1])
		}
	}
	return out
}

func TestApplyStackRunsStepsInOrder(t *testing.T) {
	root := t.TempDir()
	writeCmdOverlay(t, root, "first", "echo first")
	writeCmdOverlay(t, root, "second", "echo second")
	writeStackFixture(t, root, "pair", `{
	"name": "pair",
	"description": "Two overlays in order",
	"steps": [
		{"type": "overlay", "name": "first"},
		{"type": "overlay", "name": "second"}
	]
}`)

	runner := &fakeRunner{}
	e := newTestEngine(root, runner, nil, nil)

	if err := e.ApplyStack(context.Background(), Request{Name: "pair", MountPoint: "/mnt/target"}); err != nil {
		t.Fatalf("ApplyStack returned error: %v", err)
	}
	if got := executedCmds(runner); !reflect.DeepEqual(got, []string{"echo first", "echo second"}) {
		t.Fatalf("executed = %v, want ordered pair", got)
	}
}

func TestApplyStackSkipsDisabledSteps(t *testing.T) {
	root := t.TempDir()
	writeCmdOverlay(t, root, "kept", "echo kept")
	writeCmdOverlay(t, root, "dropped", "echo dropped")
	writeStackFixture(t, root, "partial", `{
	"name": "partial",
	"description": "One step disabled",
	"steps": [
		{"type": "overlay", "name": "dropped", "enabled": false},
		{"type": "overlay", "name": "kept", "enabled": true}
	]
}`)

	runner := &fakeRunner{}
	e := newTestEngine(root, runner, nil, nil)

	if err := e.ApplyStack(context.Background(), Request{Name: "partial", MountPoint: "/mnt/target"}); err != nil {
		t.Fatalf("ApplyStack returned error: %v", err)
	}
	if got := executedCmds(runner); !reflect.DeepEqual(got, []string{"echo kept"}) {
		t.Fatalf("executed = %v, want only the enabled step", got)
	}
}

func TestApplyStackExpandsNestedStacks(t *testing.T) {
	root := t.TempDir()
	writeCmdOverlay(t, root, "outer-overlay", "echo outer")
	writeCmdOverlay(t, root, "inner-overlay", "echo inner")
	writeStackFixture(t, root, "inner", `{
	"name": "inner",
	"description": "Nested stack",
	"steps": [
		{"type": "overlay", "name": "inner-overlay"}
	]
}`)
	writeStackFixture(t, root, "outer", `{
	"name": "outer",
	"description": "Outer stack",
	"steps": [
		{"type": "overlay", "name": "outer-overlay"},
		{"type": "stack", "name": "inner"}
	]
}`)

	runner := &fakeRunner{}
	e := newTestEngine(root, runner, nil, nil)

	if err := e.ApplyStack(context.Background(), Request{Name: "outer", MountPoint: "/mnt/target"}); err != nil {
		t.Fatalf("ApplyStack returned error: %v", err)
	}
	if got := executedCmds(runner); !reflect.DeepEqual(got, []string{"echo outer", "echo inner"}) {
		t.Fatalf("executed = %v, want depth-first order", got)
	}
}

func TestApplyStackDetectsCycle(t *testing.T) {
	root := t.TempDir()
	writeStackFixture(t, root, "a", `{
	"name": "a",
	"description": "Half of a cycle",
	"steps": [{"type": "stack", "name": "b"}]
}`)
	writeStackFixture(t, root, "b", `{
	"name": "b",
	"description": "Other half",
	"steps": [{"type": "stack", "name": "a"}]
}`)

	runner := &fakeRunner{}
	e := newTestEngine(root, runner, nil, nil)

	err := e.ApplyStack(context.Background(), Request{Name: "a", MountPoint: "/mnt/target"})
	if !IsCycleError(err) {
		t.Fatalf("IsCycleError(%v) = false", err)
	}
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("error %v is not a *CycleError", err)
	}
	if !reflect.DeepEqual(cycle.Path, []string{"a", "b", "a"}) {
		t.Fatalf("cycle path = %v, want [a b a]", cycle.Path)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("commands ran while expanding a cycle: %v", runner.ops())
	}
}

func TestApplyStackDetectsSelfCycle(t *testing.T) {
	root := t.TempDir()
	writeStackFixture(t, root, "loop", `{
	"name": "loop",
	"description": "Includes itself",
	"steps": [{"type": "stack", "name": "loop"}]
}`)

	e := newTestEngine(root, &fakeRunner{}, nil, nil)

	err := e.ApplyStack(context.Background(), Request{Name: "loop", MountPoint: "/mnt/target"})
	if !IsCycleError(err) {
		t.Fatalf("IsCycleError(%v) = false", err)
	}
	if !strings.Contains(err.Error(), "loop -> loop") {
		t.Fatalf("error %q does not show the cycle", err)
	}
}

func TestApplyStackAbortsOnMissingReference(t *testing.T) {
	root := t.TempDir()
	writeCmdOverlay(t, root, "real", "echo real")
	writeStackFixture(t, root, "dangling", `{
	"name": "dangling",
	"description": "References a missing overlay first",
	"steps": [
		{"type": "overlay", "name": "ghost"},
		{"type": "overlay", "name": "real"}
	]
}`)

	runner := &fakeRunner{}
	e := newTestEngine(root, runner, nil, nil)

	err := e.ApplyStack(context.Background(), Request{Name: "dangling", MountPoint: "/mnt/target"})
	if !catalog.IsNotFoundError(err) {
		t.Fatalf("IsNotFoundError(%v) = false", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("later steps ran after the resolution failure: %v", runner.ops())
	}
}

func TestApplyStackRevalidatesNestedStacks(t *testing.T) {
	root := t.TempDir()
	writeStackFixture(t, root, "outer", `{
	"name": "outer",
	"description": "Includes a broken stack",
	"steps": [{"type": "stack", "name": "broken"}]
}`)
	writeStackFixture(t, root, "broken", `{"name": "broken", "description": "no steps field"}`)

	e := newTestEngine(root, &fakeRunner{}, nil, nil)

	err := e.ApplyStack(context.Background(), Request{Name: "outer", MountPoint: "/mnt/target"})
	if !errors.Is(err, catalog.ErrInvalidDefinition) {
		t.Fatalf("error %v does not wrap ErrInvalidDefinition", err)
	}
}

func TestApplyStackRequiresMountPoint(t *testing.T) {
	e := newTestEngine(t.TempDir(), &fakeRunner{}, nil, nil)

	if err := e.ApplyStack(context.Background(), Request{Name: "anything"}); !IsConfigError(err) {
		t.Fatalf("IsConfigError(%v) = false", err)
	}
}

func TestApplyStackRecordsJournal(t *testing.T) {
	root := t.TempDir()
	writeCmdOverlay(t, root, "journaled", "echo hi")
	writeStackFixture(t, root, "tracked", `{
	"name": "tracked",
	"description": "Recorded in the journal",
	"steps": [{"type": "overlay", "name": "journaled"}]
}`)

	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.sqlite"))
	if err != nil {
		t.Fatalf("journal.Open returned error: %v", err)
	}
	defer func() { _ = j.Close() }()

	e := newTestEngine(root, &fakeRunner{}, nil, j)
	ctx := context.Background()

	if err := e.ApplyStack(ctx, Request{Name: "tracked", MountPoint: "/mnt/target"}); err != nil {
		t.Fatalf("ApplyStack returned error: %v", err)
	}

	runs, err := j.Runs(ctx, 5)
	if err != nil {
		t.Fatalf("Runs returned error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].Kind != "stack" || runs[0].Name != "tracked" || runs[0].Status != journal.StatusSucceeded {
		t.Fatalf("run = %+v", runs[0])
	}

	events, err := j.Events(ctx, runs[0].ID)
	if err != nil {
		t.Fatalf("Events returned error: %v", err)
	}
	var statuses []string
	for _, ev := range events {
		statuses = append(statuses, ev.Kind+":"+ev.Status)
	}
	want := []string{"overlay:started", "chroot-cmd:succeeded", "overlay:succeeded"}
	if !reflect.DeepEqual(statuses, want) {
		t.Fatalf("event trail = %v, want %v", statuses, want)
	}
}
