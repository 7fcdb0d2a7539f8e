package engine

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/tachyon-os/overlayctl/internal/catalog"
	"github.com/tachyon-os/overlayctl/internal/journal"
)

type call struct {
	op   string
	args []string
}

// fakeRunner records primitive invocations instead of executing them.
type fakeRunner struct {
	calls          []call
	failOn         map[string]error
	stagedVanishes bool
}

func (f *fakeRunner) record(op string, args ...string) error {
	f.calls = append(f.calls, call{op: op, args: args})
	if err, ok := f.failOn[op]; ok {
		return err
	}
	return nil
}

func (f *fakeRunner) CopyTree(_ context.Context, src, dst string) error {
	return f.record("copytree", src, dst)
}

func (f *fakeRunner) CopyFile(_ context.Context, src, dst string) error {
	return f.record("copyfile", src, dst)
}

func (f *fakeRunner) SetMode(_ context.Context, mode, path string) error {
	return f.record("setmode", mode, path)
}

func (f *fakeRunner) RemoveTree(_ context.Context, path string) error {
	return f.record("removetree", path)
}

func (f *fakeRunner) RemoveFile(_ context.Context, path string) error {
	return f.record("removefile", path)
}

func (f *fakeRunner) EnsureDir(_ context.Context, path string) error {
	return f.record("ensuredir", path)
}

func (f *fakeRunner) Exec(_ context.Context, mount string, extraEnv []string, command string) error {
	return f.record("exec", append([]string{mount, command}, extraEnv...)...)
}

func (f *fakeRunner) InstallPackage(_ context.Context, mount, pkg string) error {
	return f.record("install", mount, pkg)
}

func (f *fakeRunner) RunScript(_ context.Context, script string, args ...string) error {
	return f.record("runscript", append([]string{script}, args...)...)
}

func (f *fakeRunner) PathExists(string) (bool, error) {
	return !f.stagedVanishes, nil
}

func (f *fakeRunner) ops() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.op
	}
	return out
}

func writeOverlayFixture(t *testing.T, root, dirName, body string) string {
	t.Helper()
	dir := filepath.Join(root, catalog.OverlaysDirName, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, catalog.OverlayFileName), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func writeStackFixture(t *testing.T, root, name, body string) string {
	t.Helper()
	dir := filepath.Join(root, catalog.StacksDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestEngine(root string, runner *fakeRunner, chrootEnv []string, j *journal.Journal) *Engine {
	return New(Config{
		Runner:    runner,
		Resolver:  catalog.NewResolver([]string{root}),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Journal:   j,
		ChrootEnv: chrootEnv,
	})
}
