//go:build !unix

package signal

import (
	"context"

	"github.com/bnema/claude-voice/internal/ports"
)

// Prober is unsupported off unix; every pid reads as not running.
type Prober struct{}

var _ ports.LivenessProber = (*Prober)(nil)

func NewProber() *Prober {
	return &Prober{}
}

func (p *Prober) IsRunning(context.Context, int) bool {
	return false
}
