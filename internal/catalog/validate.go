package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDefinition marks structural validation failures in overlay and
// stack definitions.
var ErrInvalidDefinition = errors.New("invalid definition")

// Validate checks the overlay for structural problems: required fields and
// known command types with their per-variant required fields. It does not
// resolve referenced names or touch the filesystem. All violations found are
// reported in a single error wrapping ErrInvalidDefinition.
func (o *Overlay) Validate() error {
	var problems []string
	if o.Name == "" {
		problems = append(problems, `missing required field "name"`)
	}
	if o.Description == "" {
		problems = append(problems, `missing required field "description"`)
	}
	if o.Commands == nil {
		problems = append(problems, `missing required field "commands"`)
	}
	for i, cmd := range o.Commands {
		problems = append(problems, cmd.validate(i)...)
	}
	return joinProblems(problems)
}

// Validate checks the stack for structural problems: required fields and
// known step types with non-empty names. Referenced overlays and stacks are
// not resolved here; that happens step by step during execution.
func (s *Stack) Validate() error {
	var problems []string
	if s.Name == "" {
		problems = append(problems, `missing required field "name"`)
	}
	if s.Description == "" {
		problems = append(problems, `missing required field "description"`)
	}
	if s.Steps == nil {
		problems = append(problems, `missing required field "steps"`)
	}
	for i, step := range s.Steps {
		if step.Type != StepOverlay && step.Type != StepStack {
			problems = append(problems, fmt.Sprintf("step %d: unknown type %q", i, step.Type))
		}
		if step.Name == "" {
			problems = append(problems, fmt.Sprintf(`step %d: missing required field "name"`, i))
		}
	}
	return joinProblems(problems)
}

func (c Command) validate(index int) []string {
	var problems []string
	need := func(field, value string) {
		if value == "" {
			problems = append(problems, fmt.Sprintf("command %d (%s): missing required field %q", index, c.Type, field))
		}
	}

	switch c.Type {
	case CommandLocal, CommandChrootScript:
		need("script", c.Script)
	case CommandCopyIntoChroot, CommandCopyFromChroot:
		need("source", c.Source)
		need("destination", c.Destination)
	case CommandChrootCmd:
		need("cmd", c.Cmd)
	case CommandChrootRm:
		need("destination", c.Destination)
	case CommandInstallPackage:
		need("package", c.Package)
	default:
		problems = append(problems, fmt.Sprintf("command %d: unknown type %q", index, c.Type))
	}
	return problems
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidDefinition, strings.Join(problems, "; "))
}
