package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// EntityEnv names the environment variable carrying the entity to Exec commands
const EntityEnv = "SEGTIME_ENTITY"

// Exec pipes contents through an external command, replacing them with its stdout
func Exec(name string, args ...string) Stage {
	return StageFunc(func(ctx context.Context, entity string, in []byte) ([]byte, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdin = bytes.NewReader(in)
		cmd.Env = append(os.Environ(), EntityEnv+"="+entity)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg != "" {
				return nil, fmt.Errorf("%s failed on %s: %w: %s", name, entity, err, msg)
			}
			return nil, fmt.Errorf("%s failed on %s: %w", name, entity, err)
		}
		return stdout.Bytes(), nil
	})
}
