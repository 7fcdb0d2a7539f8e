// Package engine contains the high-level orchestration logic for applying
// overlays and stacks to a mounted root.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tachyon-os/overlayctl/internal/catalog"
	"github.com/tachyon-os/overlayctl/internal/chroot"
	"github.com/tachyon-os/overlayctl/internal/journal"
)

// Config wires the engine's collaborators.
type Config struct {
	// Runner executes the privileged primitives. Required.
	Runner chroot.Runner
	// Resolver locates overlays and stacks by name. Required.
	Resolver *catalog.Resolver
	// Logger receives progress output. Defaults to slog.Default when nil.
	Logger *slog.Logger
	// Journal records run history. Optional; history is best-effort.
	Journal *journal.Journal
	// ChrootEnv holds KEY=VALUE pairs exported to commands running inside
	// the root.
	ChrootEnv []string
}

// Engine applies overlays and stacks strictly in order, stopping at the
// first failure. Applied work is never rolled back.
type Engine struct {
	runner    chroot.Runner
	resolver  *catalog.Resolver
	logger    *slog.Logger
	journal   *journal.Journal
	chrootEnv []string
}

// New constructs an Engine from cfg.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		runner:    cfg.Runner,
		resolver:  cfg.Resolver,
		logger:    logger,
		journal:   cfg.Journal,
		chrootEnv: cfg.ChrootEnv,
	}
}

// Request identifies what to apply and where.
type Request struct {
	// Name is the overlay or stack to apply, resolved against the search
	// paths.
	Name string
	// MountPoint is the root filesystem being provisioned.
	MountPoint string
	// Resources is the optional shared directory substituted for the
	// $RESOURCES placeholder in copy paths.
	Resources string
}

// ApplyOverlay resolves and applies a single overlay.
func (e *Engine) ApplyOverlay(ctx context.Context, req Request) error {
	if req.MountPoint == "" {
		return &ConfigError{Name: req.Name, Reason: "mount point is required"}
	}

	runID := e.beginRun(ctx, "overlay", req)
	err := e.applyOverlayByName(ctx, runID, req, req.Name)
	e.finishRun(ctx, runID, err)
	return err
}

// ApplyStack resolves and applies a stack, expanding nested stacks depth
// first.
func (e *Engine) ApplyStack(ctx context.Context, req Request) error {
	if req.MountPoint == "" {
		return &ConfigError{Name: req.Name, Reason: "mount point is required"}
	}

	runID := e.beginRun(ctx, "stack", req)
	err := e.applyStackByName(ctx, runID, req, req.Name, nil)
	e.finishRun(ctx, runID, err)
	return err
}

// applyStackByName loads and runs one stack. active carries the chain of
// stack names currently expanding so inclusion cycles fail fast instead of
// recursing forever.
func (e *Engine) applyStackByName(ctx context.Context, runID string, req Request, name string, active []string) error {
	for _, seen := range active {
		if seen == name {
			cycle := append(append([]string{}, active...), name)
			return &CycleError{Path: cycle}
		}
	}

	path, err := e.resolver.StackFile(name)
	if err != nil {
		return err
	}
	stack, err := catalog.LoadStack(path)
	if err != nil {
		return err
	}

	e.logger.Info("applying stack", "stack", stack.Name, "steps", len(stack.Steps), "definition", path)
	active = append(active, name)

	for i, step := range stack.Steps {
		if !step.IsEnabled() {
			e.logger.Info("skipping disabled step", "stack", stack.Name, "step", step.Name, "type", step.Type)
			e.recordEvent(ctx, runID, journal.Event{Kind: "step", Detail: step.Name, Status: journal.EventSkipped})
			continue
		}

		switch step.Type {
		case catalog.StepOverlay:
			if err := e.applyOverlayByName(ctx, runID, req, step.Name); err != nil {
				return fmt.Errorf("stack %q step %d: %w", name, i, err)
			}
		case catalog.StepStack:
			if err := e.applyStackByName(ctx, runID, req, step.Name, active); err != nil {
				return fmt.Errorf("stack %q step %d: %w", name, i, err)
			}
		default:
			return fmt.Errorf("stack %q step %d: unhandled step type %q", name, i, step.Type)
		}
	}
	return nil
}

func (e *Engine) beginRun(ctx context.Context, kind string, req Request) string {
	runID, err := e.journal.BeginRun(ctx, kind, req.Name, req.MountPoint)
	if err != nil {
		e.logger.Warn("journal unavailable, continuing without history", "error", err)
	}
	return runID
}

func (e *Engine) finishRun(ctx context.Context, runID string, runErr error) {
	if err := e.journal.FinishRun(ctx, runID, runErr); err != nil {
		e.logger.Warn("journal write failed", "error", err)
	}
}

func (e *Engine) recordEvent(ctx context.Context, runID string, ev journal.Event) {
	if err := e.journal.RecordEvent(ctx, runID, ev); err != nil {
		e.logger.Warn("journal write failed", "error", err)
	}
}
