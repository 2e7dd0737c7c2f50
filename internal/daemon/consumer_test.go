package daemon

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	stagingfile "github.com/bnema/claude-voice/internal/adapters/staging/file"
	"github.com/bnema/claude-voice/internal/domain"
	"github.com/bnema/claude-voice/internal/ports/mocks"
)

type staticMode domain.Mode

func (m staticMode) Current(context.Context) domain.ModeConfig {
	return domain.ModeConfig{Mode: domain.Mode(m), AssistantName: "Assistant"}
}

type queueReader struct {
	mu       sync.Mutex
	requests []domain.NotificationRequest
}

func (r *queueReader) Peek(context.Context) (domain.NotificationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		return domain.NotificationRequest{}, domain.ErrSlotEmpty
	}
	return r.requests[0], nil
}

func (r *queueReader) Take(context.Context) (domain.NotificationRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		return domain.NotificationRequest{}, domain.ErrSlotEmpty
	}
	request := r.requests[0]
	r.requests = r.requests[1:]
	return request, nil
}

func testOptions(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	return Options{
		SlotPath:     filepath.Join(dir, "notification_request.json"),
		LockPath:     filepath.Join(dir, "daemon.lock"),
		PollInterval: 10 * time.Millisecond,
	}
}

func TestConsumerHonorsMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode   domain.Mode
		action Action
		speaks bool
	}{
		{mode: domain.ModeNormal, action: ActionSpoken, speaks: true},
		{mode: domain.ModeSilent, action: ActionLogged},
		{mode: domain.ModeSleep, action: ActionDropped},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			t.Parallel()

			notifier := mocks.NewMockNotifier(t)
			if tt.speaks {
				notifier.EXPECT().Notify(mock.Anything, "hello", domain.EmotionGentle).Return(nil).Once()
			}
			reader := &queueReader{requests: []domain.NotificationRequest{{RequestID: "r1", Message: "hello"}}}
			consumer := NewConsumer(reader, notifier, staticMode(tt.mode), testOptions(t))

			delivery, ok := consumer.ProcessOnce(context.Background())
			require.True(t, ok)
			assert.Equal(t, tt.action, delivery.Action)
			assert.Equal(t, tt.mode, delivery.Mode)
		})
	}
}

func TestConsumerSkipsDuplicateRequestIDs(t *testing.T) {
	t.Parallel()

	notifier := mocks.NewMockNotifier(t)
	notifier.EXPECT().Notify(mock.Anything, "once", domain.EmotionUrgent).Return(nil).Once()
	notifier.EXPECT().Notify(mock.Anything, "legacy", domain.EmotionGentle).Return(nil).Twice()

	reader := &queueReader{requests: []domain.NotificationRequest{
		{RequestID: "same", Message: "once", Emotion: domain.EmotionUrgent},
		{RequestID: "same", Message: "once", Emotion: domain.EmotionUrgent},
		{Message: "legacy"},
		{Message: "legacy"},
	}}
	consumer := NewConsumer(reader, notifier, staticMode(domain.ModeNormal), testOptions(t))

	var actions []Action
	for {
		delivery, ok := consumer.ProcessOnce(context.Background())
		if !ok {
			break
		}
		actions = append(actions, delivery.Action)
	}
	assert.Equal(t, []Action{ActionSpoken, ActionDuplicate, ActionSpoken, ActionSpoken}, actions)
}

func TestConsumerReportsDeliveryFailure(t *testing.T) {
	t.Parallel()

	notifier := mocks.NewMockNotifier(t)
	notifier.EXPECT().Notify(mock.Anything, mock.Anything, mock.Anything).Return(errors.New("no audio")).Once()

	reader := &queueReader{requests: []domain.NotificationRequest{{RequestID: "r1", Message: "x"}}}
	consumer := NewConsumer(reader, notifier, staticMode(domain.ModeNormal), testOptions(t))

	delivery, ok := consumer.ProcessOnce(context.Background())
	require.True(t, ok)
	assert.Equal(t, ActionFailed, delivery.Action)
	assert.EqualError(t, delivery.Err, "no audio")
}

func TestConsumerEmptySlot(t *testing.T) {
	t.Parallel()

	consumer := NewConsumer(&queueReader{}, mocks.NewMockNotifier(t), staticMode(domain.ModeNormal), testOptions(t))

	_, ok := consumer.ProcessOnce(context.Background())
	assert.False(t, ok)
}

func TestConsumerRunDeliversStagedRequestsAndStops(t *testing.T) {
	t.Parallel()

	opts := testOptions(t)
	slot, err := stagingfile.NewSlot(opts.SlotPath)
	require.NoError(t, err)

	delivered := make(chan Delivery, 4)
	notifier := mocks.NewMockNotifier(t)
	notifier.EXPECT().Notify(mock.Anything, "before start", domain.EmotionGentle).Return(nil).Once()
	notifier.EXPECT().Notify(mock.Anything, "while running", domain.EmotionExcited).Return(nil).Once()

	consumer := NewConsumer(slot, notifier, staticMode(domain.ModeNormal), opts)
	consumer.OnDelivery(func(d Delivery) { delivered <- d })

	require.NoError(t, slot.Stage(context.Background(), domain.NotificationRequest{RequestID: "r1", Message: "before start"}))

	ctx, cancel := context.WithCancel(context.Background())
	extraStopped := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- consumer.Run(ctx, func(ctx context.Context) error {
			<-ctx.Done()
			close(extraStopped)
			return nil
		})
	}()

	waitDelivery := func(wantID string) {
		t.Helper()
		select {
		case d := <-delivered:
			assert.Equal(t, ActionSpoken, d.Action)
			assert.Equal(t, wantID, d.Request.RequestID)
		case <-time.After(2 * time.Second):
			t.Fatalf("request %s was not delivered", wantID)
		}
	}

	waitDelivery("r1")

	running, err := Running(opts.LockPath)
	require.NoError(t, err)
	assert.True(t, running)

	require.NoError(t, slot.Stage(context.Background(), domain.NotificationRequest{
		RequestID: "r2",
		Message:   "while running",
		Emotion:   domain.EmotionExcited,
	}))
	waitDelivery("r2")

	_, err = slot.Peek(context.Background())
	assert.ErrorIs(t, err, domain.ErrSlotEmpty)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop")
	}
	<-extraStopped

	running, err = Running(opts.LockPath)
	require.NoError(t, err)
	assert.False(t, running)
}

func TestConsumerRunRefusesSecondInstance(t *testing.T) {
	t.Parallel()

	opts := testOptions(t)
	started := make(chan struct{})
	reader := &queueReader{requests: []domain.NotificationRequest{{RequestID: "warmup"}}}
	first := NewConsumer(reader, mocks.NewMockNotifier(t), staticMode(domain.ModeSleep), opts)
	first.OnDelivery(func(Delivery) { close(started) })
	second := NewConsumer(&queueReader{}, mocks.NewMockNotifier(t), staticMode(domain.ModeNormal), opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- first.Run(ctx) }()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first daemon did not start")
	}

	err := second.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	cancel()
	assert.NoError(t, <-done)
}

func TestRunningWithoutLockFile(t *testing.T) {
	t.Parallel()

	running, err := Running(filepath.Join(t.TempDir(), "daemon.lock"))
	require.NoError(t, err)
	assert.False(t, running)
}
