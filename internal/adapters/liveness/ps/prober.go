package ps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/claude-voice/internal/logging"
	"github.com/bnema/claude-voice/internal/ports"
)

var ErrUnavailable = errors.New("ps command unavailable")

const defaultTimeout = 2 * time.Second

var log = logging.ForComponent(logging.CompRegistry)

type runFunc func(ctx context.Context, args ...string) (stdout string, stderr string, err error)

// Prober asks the process table through ps. A non-zero exit, a missing
// binary or a timeout all read as "not running".
type Prober struct {
	run     runFunc
	timeout time.Duration
}

var _ ports.LivenessProber = (*Prober)(nil)

func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Prober{run: runPSCommand, timeout: timeout}
}

func (p *Prober) IsRunning(ctx context.Context, pid int) bool {
	if pid <= 0 || ctx.Err() != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	stdout, stderr, err := p.run(ctx, "-p", strconv.Itoa(pid), "-o", "pid=")
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			log.Debug("liveness_probe_failed",
				slog.Int("pid", pid),
				slog.String("error", err.Error()),
				slog.String("stderr", stderr),
			)
		}
		return false
	}

	return strings.TrimSpace(stdout) == strconv.Itoa(pid)
}

func runPSCommand(ctx context.Context, args ...string) (string, string, error) {
	path, err := exec.LookPath("ps")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", ErrUnavailable
		}
		return "", "", fmt.Errorf("locate ps command: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}
