package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/claude-voice/internal/adapters/fsutil"
	"github.com/bnema/claude-voice/internal/domain"
	"github.com/bnema/claude-voice/internal/ports"
)

const (
	slotFileMode    = 0o600
	tempFilePattern = ".notification_request-*.json.tmp"
	claimPattern    = ".notification_request-claim-*.json"
)

// requestSchema is the slot document the daemon polls for.
type requestSchema struct {
	RequestID string  `json:"request_id,omitempty"`
	Message   string  `json:"message"`
	Emotion   string  `json:"emotion"`
	Context   string  `json:"context"`
	Timestamp float64 `json:"timestamp"`
	SourcePID int     `json:"source_pid"`
}

// Slot is the single-capacity staging location. Every Stage overwrites the
// previous unconsumed request.
type Slot struct {
	path string
}

var (
	_ ports.StagingSlot   = (*Slot)(nil)
	_ ports.StagingReader = (*Slot)(nil)
)

func NewSlot(path string) (*Slot, error) {
	if path == "" {
		return nil, errors.New("staging slot path is empty")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve staging slot path: %w", err)
	}
	return &Slot{path: filepath.Clean(absPath)}, nil
}

func (s *Slot) Path() string {
	return s.path
}

func (s *Slot) Stage(ctx context.Context, request domain.NotificationRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(toSchema(request), "", "  ")
	if err != nil {
		return fmt.Errorf("encode notification request: %w", err)
	}

	if err := fsutil.WriteFileAtomic(s.path, data, slotFileMode, tempFilePattern); err != nil {
		return fmt.Errorf("stage notification request: %w", err)
	}

	return nil
}

func (s *Slot) Peek(ctx context.Context) (domain.NotificationRequest, error) {
	if err := ctx.Err(); err != nil {
		return domain.NotificationRequest{}, err
	}

	return readRequest(s.path)
}

// Take claims the staged request by renaming it aside before reading, so a
// Stage racing with Take lands in a fresh slot instead of being deleted unseen.
func (s *Slot) Take(ctx context.Context) (domain.NotificationRequest, error) {
	if err := ctx.Err(); err != nil {
		return domain.NotificationRequest{}, err
	}

	claim, err := os.CreateTemp(filepath.Dir(s.path), claimPattern)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NotificationRequest{}, domain.ErrSlotEmpty
		}
		return domain.NotificationRequest{}, fmt.Errorf("create claim file: %w", err)
	}
	claimPath := claim.Name()
	_ = claim.Close()
	defer func() { _ = os.Remove(claimPath) }()

	if err := os.Rename(s.path, claimPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NotificationRequest{}, domain.ErrSlotEmpty
		}
		return domain.NotificationRequest{}, fmt.Errorf("claim notification request: %w", err)
	}

	return readRequest(claimPath)
}

func readRequest(path string) (domain.NotificationRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NotificationRequest{}, domain.ErrSlotEmpty
		}
		return domain.NotificationRequest{}, fmt.Errorf("read notification request: %w", err)
	}
	if len(data) == 0 {
		return domain.NotificationRequest{}, domain.ErrSlotEmpty
	}

	var schema requestSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return domain.NotificationRequest{}, fmt.Errorf("decode notification request: %w", err)
	}

	return fromSchema(schema), nil
}

func toSchema(request domain.NotificationRequest) requestSchema {
	var timestamp float64
	if !request.Timestamp.IsZero() {
		timestamp = float64(request.Timestamp.UnixNano()) / float64(time.Second)
	}

	return requestSchema{
		RequestID: request.RequestID,
		Message:   request.Message,
		Emotion:   string(request.Emotion),
		Context:   request.Context,
		Timestamp: timestamp,
		SourcePID: request.SourceProcessID,
	}
}

func fromSchema(schema requestSchema) domain.NotificationRequest {
	var timestamp time.Time
	if schema.Timestamp > 0 {
		secs, frac := math.Modf(schema.Timestamp)
		timestamp = time.Unix(int64(secs), int64(frac*float64(time.Second)))
	}

	return domain.NotificationRequest{
		RequestID:       schema.RequestID,
		Message:         schema.Message,
		Emotion:         domain.Emotion(schema.Emotion),
		Context:         schema.Context,
		Timestamp:       timestamp,
		SourceProcessID: schema.SourcePID,
	}
}
