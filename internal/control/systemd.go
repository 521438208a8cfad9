// Package control restarts the monitored game server through systemd.
package control

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RestartService restarts the given systemd unit. The caller is expected to
// run under a user with the matching sudoers entry.
func RestartService(ctx context.Context, unit string) error {
	cmd := exec.CommandContext(ctx, "sudo", "systemctl", "restart", unit)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("restart of %q failed: %s: %w", unit, strings.TrimSpace(string(out)), err)
	}

	return nil
}
