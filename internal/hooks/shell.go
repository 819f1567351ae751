package hooks

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"github.com/craftista/concierge/internal/logging"
)

// DefaultShellTimeout bounds hook commands that configure no timeout.
const DefaultShellTimeout = 10 * time.Second

// ShellHandler returns a Handler that runs a shell command for each event.
// The payload is written to the command's stdin as JSON, and the event name
// is exposed as CONCIERGE_EVENT. The command is killed when the timeout
// elapses.
func ShellHandler(command string, timeout time.Duration, log *logging.Logger) Handler {
	if timeout <= 0 {
		timeout = DefaultShellTimeout
	}
	log = log.Sub("hooks.shell")

	return func(ctx context.Context, p Payload) error {
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		payload, err := json.Marshal(p)
		if err != nil {
			return err
		}

		cmd := exec.CommandContext(runCtx, "sh", "-c", command)
		cmd.Stdin = strings.NewReader(string(payload))
		cmd.Env = append(cmd.Environ(), "CONCIERGE_EVENT="+p.Event)

		out, err := cmd.CombinedOutput()
		if err != nil {
			log.Warn().
				Err(err).
				Str("event", p.Event).
				Str("output", strings.TrimSpace(string(out))).
				Msg("hook command failed")
			return err
		}

		log.Debug().Str("event", p.Event).Msg("hook command ran")
		return nil
	}
}
