package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/bnema/claude-voice/internal/domain"
	"github.com/bnema/claude-voice/internal/logging"
	"github.com/bnema/claude-voice/internal/ports"
)

var daemonLog = logging.ForComponent(logging.CompDaemon)

var ErrAlreadyRunning = errors.New("another notification daemon is already running")

const (
	defaultPollInterval  = time.Second
	defaultRatePerMinute = 30
	rateBurst            = 5
	seenCapacity         = 64
)

type modeReader interface {
	Current(ctx context.Context) domain.ModeConfig
}

type Options struct {
	SlotPath      string
	LockPath      string
	PollInterval  time.Duration
	RatePerMinute int
}

// Action is what the consumer did with a taken request.
type Action string

const (
	ActionSpoken    Action = "spoken"
	ActionLogged    Action = "logged"
	ActionDropped   Action = "dropped"
	ActionDuplicate Action = "duplicate"
	ActionFailed    Action = "failed"
)

type Delivery struct {
	Request domain.NotificationRequest
	Mode    domain.Mode
	Action  Action
	Err     error
}

// Consumer is the reference daemon side of the staging protocol. It takes
// the slot when fsnotify reports a write and on every poll tick, so delivery
// latency stays bounded by the poll interval when events are missed.
type Consumer struct {
	reader   ports.StagingReader
	notifier ports.Notifier
	modes    modeReader
	opts     Options
	lock     *flock.Flock
	limiter  *rate.Limiter

	seen      map[string]struct{}
	seenOrder []string

	onDelivery func(Delivery)
}

func NewConsumer(reader ports.StagingReader, notifier ports.Notifier, modes modeReader, opts Options) *Consumer {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.RatePerMinute <= 0 {
		opts.RatePerMinute = defaultRatePerMinute
	}

	return &Consumer{
		reader:   reader,
		notifier: notifier,
		modes:    modes,
		opts:     opts,
		lock:     flock.New(opts.LockPath),
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), rateBurst),
		seen:     map[string]struct{}{},
	}
}

// OnDelivery registers a callback invoked after every processed request.
func (c *Consumer) OnDelivery(fn func(Delivery)) {
	c.onDelivery = fn
}

// Run holds the daemon lock until ctx is done. Extra tasks run in the same
// group and are cancelled together with the consumer.
func (c *Consumer) Run(ctx context.Context, extra ...func(context.Context) error) error {
	if err := os.MkdirAll(filepath.Dir(c.opts.LockPath), 0o700); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	ok, err := c.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := c.lock.Unlock(); err != nil {
			daemonLog.Warn("daemon_unlock_failed", slog.String("error", err.Error()))
		}
	}()

	daemonLog.Info("daemon_started",
		slog.String("slot", c.opts.SlotPath),
		slog.Duration("poll_interval", c.opts.PollInterval),
	)

	wake := make(chan struct{}, 1)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		c.watch(groupCtx, wake)
		return nil
	})
	group.Go(func() error {
		return c.loop(groupCtx, wake)
	})
	for _, task := range extra {
		group.Go(func() error {
			return task(groupCtx)
		})
	}

	err = group.Wait()
	daemonLog.Info("daemon_stopped")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// ProcessOnce takes the slot if it holds a request. The bool is false when
// the slot was empty.
func (c *Consumer) ProcessOnce(ctx context.Context) (Delivery, bool) {
	request, err := c.reader.Take(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrSlotEmpty) && ctx.Err() == nil {
			daemonLog.Warn("slot_take_failed", slog.String("error", err.Error()))
		}
		return Delivery{}, false
	}

	delivery := c.deliver(ctx, request)
	if c.onDelivery != nil {
		c.onDelivery(delivery)
	}
	return delivery, true
}

func (c *Consumer) deliver(ctx context.Context, request domain.NotificationRequest) Delivery {
	mode := c.modes.Current(ctx).Mode
	delivery := Delivery{Request: request, Mode: mode}

	if c.remember(request.RequestID) {
		delivery.Action = ActionDuplicate
		return delivery
	}

	attrs := []any{
		slog.String("request_id", request.RequestID),
		slog.String("mode", string(mode)),
		slog.String("emotion", string(request.Emotion)),
		slog.String("context", request.Context),
	}

	switch mode {
	case domain.ModeSleep:
		delivery.Action = ActionDropped
		daemonLog.Debug("notification_dropped", attrs...)
		return delivery
	case domain.ModeSilent:
		delivery.Action = ActionLogged
		daemonLog.Info("notification_logged", append(attrs, slog.String("message", request.Message))...)
		return delivery
	}

	if err := c.limiter.Wait(ctx); err != nil {
		delivery.Action = ActionFailed
		delivery.Err = err
		return delivery
	}

	if err := c.notifier.Notify(ctx, request.Message, request.Emotion.OrDefault()); err != nil {
		delivery.Action = ActionFailed
		delivery.Err = err
		daemonLog.Error("notification_delivery_failed", append(attrs, slog.String("error", err.Error()))...)
		return delivery
	}

	delivery.Action = ActionSpoken
	daemonLog.Info("notification_spoken", attrs...)
	return delivery
}

// remember records id and reports whether it was already seen. Requests
// without an id are never treated as duplicates.
func (c *Consumer) remember(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := c.seen[id]; ok {
		return true
	}

	c.seen[id] = struct{}{}
	c.seenOrder = append(c.seenOrder, id)
	if len(c.seenOrder) > seenCapacity {
		oldest := c.seenOrder[0]
		c.seenOrder = c.seenOrder[1:]
		delete(c.seen, oldest)
	}
	return false
}

func (c *Consumer) loop(ctx context.Context, wake <-chan struct{}) error {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	c.ProcessOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-wake:
		}
		c.ProcessOnce(ctx)
	}
}

// watch nudges the loop on slot writes. Without fsnotify the loop still
// polls, so a watcher failure only costs latency.
func (c *Consumer) watch(ctx context.Context, wake chan<- struct{}) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		daemonLog.Warn("slot_watcher_unavailable", slog.String("error", err.Error()))
		return
	}
	defer watcher.Close()

	dir := filepath.Dir(c.opts.SlotPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		daemonLog.Warn("slot_watcher_dir_failed", slog.String("error", err.Error()))
		return
	}
	if err := watcher.Add(dir); err != nil {
		daemonLog.Warn("slot_watcher_add_failed", slog.String("dir", dir), slog.String("error", err.Error()))
		return
	}

	slotName := filepath.Base(c.opts.SlotPath)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// The slot appears through a rename, which surfaces as Create.
			if filepath.Base(event.Name) != slotName || event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			select {
			case wake <- struct{}{}:
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			daemonLog.Warn("slot_watcher_error", slog.String("error", err.Error()))
		}
	}
}

// Running reports whether some process holds the daemon lock at lockPath.
func Running(lockPath string) (bool, error) {
	if _, err := os.Stat(lockPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat lock file: %w", err)
	}

	probe := flock.New(lockPath)
	ok, err := probe.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe lock: %w", err)
	}
	if ok {
		_ = probe.Unlock()
		return false, nil
	}
	return true, nil
}
