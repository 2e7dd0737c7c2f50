package ports

import "context"

// LivenessProber never fails: an unknown or unreachable pid is not running.
type LivenessProber interface {
	IsRunning(ctx context.Context, pid int) bool
}
