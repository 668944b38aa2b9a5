package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rdelaney/graphmark/internal/coordinator"
)

const (
	stopGracePeriod  = 5 * time.Second
	stopMaxElapsed   = 25 * time.Second
	stopMaxInterval  = 5 * time.Second
	stopInitialDelay = 500 * time.Millisecond
)

// DockerStopper aborts a hung benchmark by stopping the runner's container.
// Stopping the container is the only abort channel: the runner process inside
// it does not accept cancellation once a subtask has started.
type DockerStopper struct {
	container string
	logger    *slog.Logger
}

// NewDockerStopper creates a stopper for the named container.
func NewDockerStopper(container string, logger *slog.Logger) *DockerStopper {
	return &DockerStopper{container: container, logger: logger}
}

var _ coordinator.Aborter = (*DockerStopper)(nil)

// Abort stops the container, retrying with exponential backoff until the
// context expires. docker stop is idempotent so retrying a partially
// delivered stop is safe.
func (d *DockerStopper) Abort(ctx context.Context, sub coordinator.SubtaskState) error {
	d.logger.Warn("aborting benchmark container",
		"container", d.container,
		"task", sub.TaskName,
		"num_ops", sub.NumOps,
		"timeout", sub.Timeout.String(),
	)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = stopInitialDelay
	bo.MaxInterval = stopMaxInterval
	bo.MaxElapsedTime = stopMaxElapsed

	op := func() error {
		return d.stop(ctx)
	}
	notify := func(err error, next time.Duration) {
		d.logger.Warn("docker stop failed, retrying",
			"container", d.container,
			"error", err,
			"retry_in", next.String(),
		)
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(bo, ctx), notify); err != nil {
		return fmt.Errorf("stop container %s: %w", d.container, err)
	}

	d.logger.Info("benchmark container stopped", "container", d.container)
	return nil
}

func (d *DockerStopper) stop(ctx context.Context) error {
	timeoutArg := fmt.Sprintf("%d", int(stopGracePeriod.Seconds()))
	cmd := exec.CommandContext(ctx, "docker", "stop", "-t", timeoutArg, d.container)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		// A container that already exited counts as stopped.
		if strings.Contains(msg, "No such container") {
			return nil
		}
		return fmt.Errorf("docker stop: %w: %s", err, msg)
	}
	return nil
}
