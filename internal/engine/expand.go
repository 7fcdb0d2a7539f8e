package engine

import (
	"fmt"

	"github.com/tachyon-os/overlayctl/internal/catalog"
)

// PlanStep is one resolved entry in the order applying would execute.
type PlanStep struct {
	// Type says whether the step references an overlay or a nested stack.
	Type string
	// Name is the overlay or stack name as written in the definition.
	Name string
	// From is the stack that contributed the step, empty when an overlay
	// is planned directly.
	From string
	// Dir is the resolved overlay directory for enabled overlay steps.
	Dir string
	// Commands would run in order for enabled overlay steps.
	Commands []catalog.Command
	// Disabled marks steps that are switched off in their stack.
	Disabled bool
}

// PlanOverlay resolves an overlay and reports what applying it would run,
// without touching the mount point.
func (e *Engine) PlanOverlay(name string) ([]PlanStep, error) {
	step, err := e.planOverlay(name, "")
	if err != nil {
		return nil, err
	}
	return []PlanStep{step}, nil
}

// PlanStack expands a stack depth first and reports the flattened order
// applying would execute, without touching the mount point. Disabled steps
// are kept in the plan so the preview shows what is skipped.
func (e *Engine) PlanStack(name string) ([]PlanStep, error) {
	return e.planStackByName(name, nil, nil)
}

func (e *Engine) planStackByName(name string, active []string, out []PlanStep) ([]PlanStep, error) {
	for _, seen := range active {
		if seen == name {
			cycle := append(append([]string{}, active...), name)
			return nil, &CycleError{Path: cycle}
		}
	}

	path, err := e.resolver.StackFile(name)
	if err != nil {
		return nil, err
	}
	stack, err := catalog.LoadStack(path)
	if err != nil {
		return nil, err
	}

	active = append(active, name)

	for i, step := range stack.Steps {
		if !step.IsEnabled() {
			out = append(out, PlanStep{Type: step.Type, Name: step.Name, From: name, Disabled: true})
			continue
		}

		switch step.Type {
		case catalog.StepOverlay:
			planned, err := e.planOverlay(step.Name, name)
			if err != nil {
				return nil, fmt.Errorf("stack %q step %d: %w", name, i, err)
			}
			out = append(out, planned)
		case catalog.StepStack:
			out, err = e.planStackByName(step.Name, active, out)
			if err != nil {
				return nil, fmt.Errorf("stack %q step %d: %w", name, i, err)
			}
		default:
			return nil, fmt.Errorf("stack %q step %d: unhandled step type %q", name, i, step.Type)
		}
	}
	return out, nil
}

func (e *Engine) planOverlay(name, from string) (PlanStep, error) {
	dir, err := e.resolver.OverlayDir(name)
	if err != nil {
		return PlanStep{}, err
	}
	overlay, err := catalog.LoadOverlay(dir)
	if err != nil {
		return PlanStep{}, err
	}
	return PlanStep{
		Type:     catalog.StepOverlay,
		Name:     name,
		From:     from,
		Dir:      dir,
		Commands: overlay.Commands,
	}, nil
}
