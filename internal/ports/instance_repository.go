package ports

import (
	"context"

	"github.com/bnema/claude-voice/internal/domain"
)

type Instances map[domain.InstanceID]domain.Instance

// InstanceRepository persists the shared registry document. Update runs fn
// against a freshly loaded copy and writes the result back only when fn
// reports a change.
type InstanceRepository interface {
	Load(ctx context.Context) (Instances, error)
	Update(ctx context.Context, fn func(Instances) (bool, error)) error
}
