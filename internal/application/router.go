package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bnema/claude-voice/internal/domain"
	"github.com/bnema/claude-voice/internal/logging"
	"github.com/bnema/claude-voice/internal/ports"
	"github.com/google/uuid"
)

const (
	defaultStageTimeout    = 2 * time.Second
	defaultFallbackTimeout = 15 * time.Second
)

var (
	routerLog = logging.ForComponent(logging.CompRouter)

	errNoFallback = errors.New("no local fallback configured")
)

type toucher interface {
	Touch(ctx context.Context, id domain.InstanceID) Outcome
}

type RouterOptions struct {
	StageTimeout    time.Duration
	FallbackTimeout time.Duration
	SourcePID       int
	NewID           func() string
}

// Router hands notifications to the daemon through the staging slot and
// delivers in-process when staging fails. It never waits for the daemon.
type Router struct {
	slot            ports.StagingSlot
	fallback        ports.Notifier
	registry        toucher
	clock           ports.Clock
	stageTimeout    time.Duration
	fallbackTimeout time.Duration
	sourcePID       int
	newID           func() string
}

func NewRouter(slot ports.StagingSlot, fallback ports.Notifier, registry toucher, clock ports.Clock, opts RouterOptions) *Router {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = defaultStageTimeout
	}
	if opts.FallbackTimeout <= 0 {
		opts.FallbackTimeout = defaultFallbackTimeout
	}
	if opts.SourcePID <= 0 {
		opts.SourcePID = os.Getpid()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	return &Router{
		slot:            slot,
		fallback:        fallback,
		registry:        registry,
		clock:           clock,
		stageTimeout:    opts.StageTimeout,
		fallbackTimeout: opts.FallbackTimeout,
		sourcePID:       opts.SourcePID,
		newID:           opts.NewID,
	}
}

// Send stages the request, overwriting any unconsumed one. The local fallback
// runs at most once, and only when staging fails.
func (r *Router) Send(ctx context.Context, message string, emotion domain.Emotion, origin string) SendResult {
	request := domain.NotificationRequest{
		RequestID:       r.newID(),
		Message:         message,
		Emotion:         emotion.OrDefault(),
		Context:         origin,
		Timestamp:       r.clock.Now(),
		SourceProcessID: r.sourcePID,
	}

	stageErr := r.stage(ctx, request)
	if stageErr == nil {
		routerLog.Debug("notification_staged",
			slog.String("request_id", request.RequestID),
			slog.String("emotion", string(request.Emotion)),
			slog.String("context", request.Context),
		)
		return SendResult{Staged: true}
	}

	routerLog.Warn("notification_stage_failed",
		slog.String("request_id", request.RequestID),
		slog.String("error", stageErr.Error()),
	)

	if shouldSkipFallback(ctx) {
		return SendResult{Err: fmt.Errorf("stage notification: %w", stageErr)}
	}

	fallbackErr := r.deliverLocally(ctx, request)
	if fallbackErr == nil {
		routerLog.Info("notification_fallback_delivered", slog.String("request_id", request.RequestID))
		return SendResult{FallbackUsed: true}
	}

	err := fmt.Errorf("staging failed: %w; local fallback failed: %w", stageErr, fallbackErr)
	routerLog.Error("notification_undelivered",
		slog.String("request_id", request.RequestID),
		slog.String("error", err.Error()),
	)
	return SendResult{Err: err}
}

// SendToInstance refreshes the instance's activity before sending, so
// notification traffic doubles as a heartbeat.
func (r *Router) SendToInstance(ctx context.Context, id domain.InstanceID, message string, emotion domain.Emotion) SendResult {
	if r.registry != nil {
		_ = r.registry.Touch(ctx, id)
	}
	return r.Send(ctx, message, emotion, domain.InstanceContext(id))
}

func (r *Router) stage(ctx context.Context, request domain.NotificationRequest) error {
	if r.slot == nil {
		return errors.New("no staging slot configured")
	}

	stageCtx, cancel := context.WithTimeout(ctx, r.stageTimeout)
	defer cancel()

	return runBounded(stageCtx, func(ctx context.Context) error {
		return r.slot.Stage(ctx, request)
	})
}

func (r *Router) deliverLocally(ctx context.Context, request domain.NotificationRequest) error {
	if r.fallback == nil {
		return errNoFallback
	}

	fallbackCtx, cancel := context.WithTimeout(ctx, r.fallbackTimeout)
	defer cancel()

	return runBounded(fallbackCtx, func(ctx context.Context) error {
		return r.fallback.Notify(ctx, request.Message, request.Emotion)
	})
}

// runBounded returns when fn does or when ctx expires, whichever is first.
// A file write stuck in the kernel does not honor ctx on its own.
func runBounded(ctx context.Context, fn func(context.Context) error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func shouldSkipFallback(ctx context.Context) bool {
	err := ctx.Err()
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
