package anonymizer

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Exec implements usage.Anonymizer by invoking an external executable with
// the identity as its only argument and reading the pseudonymous token from
// stdout. The transform is deterministic and one-way; this connector never
// sees how.
type Exec struct {
	Command string
}

func New(command string) *Exec {
	return &Exec{Command: command}
}

// Anonymize runs the executable once. A nonzero exit or empty output is an
// error; callers treat it as fatal for the run.
func (e *Exec) Anonymize(ctx context.Context, identity string) (string, error) {
	out, err := exec.CommandContext(ctx, e.Command, identity).Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", e.Command, err)
	}
	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", fmt.Errorf("%s: empty output", e.Command)
	}
	return token, nil
}
