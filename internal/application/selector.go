package application

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/bnema/claude-voice/internal/domain"
	"github.com/bnema/claude-voice/internal/logging"
	"github.com/bnema/claude-voice/internal/ports"
)

var selectorLog = logging.ForComponent(logging.CompSelector)

type activeLister interface {
	ListActive(ctx context.Context) ports.Instances
}

// Selector decides which live instance the user is talking to.
type Selector struct {
	registry activeLister
}

func NewSelector(registry activeLister) *Selector {
	return &Selector{registry: registry}
}

// SortedActive orders by descending LastActiveAt, then ascending id, so the
// first element is always the MostRecent pick for the same input.
func SortedActive(instances ports.Instances) []domain.Instance {
	sorted := make([]domain.Instance, 0, len(instances))
	for id, instance := range instances {
		instance.ID = id
		sorted = append(sorted, instance)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MoreRecentThan(sorted[j])
	})
	return sorted
}

func (s *Selector) Active(ctx context.Context) []domain.Instance {
	return SortedActive(s.registry.ListActive(ctx))
}

func (s *Selector) MostRecent(ctx context.Context) (domain.Instance, bool) {
	active := s.Active(ctx)
	if len(active) == 0 {
		return domain.Instance{}, false
	}
	return active[0], true
}

// ChooseInteractive prompts only when more than one instance is active. Any
// unusable answer, including EOF and cancellation, resolves to the most
// recent instance.
func (s *Selector) ChooseInteractive(ctx context.Context, in io.Reader, out io.Writer) (domain.Instance, bool) {
	active := s.Active(ctx)
	switch len(active) {
	case 0:
		return domain.Instance{}, false
	case 1:
		return active[0], true
	}

	fmt.Fprintf(out, "%d active instances:\n", len(active))
	for i, instance := range active {
		fmt.Fprintf(out, "  %d. %s  %s  (last active %s)\n",
			i+1,
			instance.ID.Short(12),
			instance.ProjectName(),
			instance.LastActiveAt.Local().Format("15:04:05"),
		)
	}
	fmt.Fprintf(out, "Select instance [1-%d] (default 1): ", len(active))

	answer, ok := readLine(ctx, in)
	if !ok {
		fmt.Fprintln(out)
		selectorLog.Debug("selection_cancelled", slog.String("fallback", string(active[0].ID)))
		return active[0], true
	}

	choice, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || choice < 1 || choice > len(active) {
		selectorLog.Debug("selection_invalid",
			slog.String("answer", answer),
			slog.String("fallback", string(active[0].ID)),
		)
		return active[0], true
	}

	return active[choice-1], true
}

func readLine(ctx context.Context, in io.Reader) (string, bool) {
	if in == nil {
		return "", false
	}

	type result struct {
		line string
		ok   bool
	}
	done := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			done <- result{}
			return
		}
		done <- result{line: line, ok: true}
	}()

	select {
	case <-ctx.Done():
		return "", false
	case r := <-done:
		return r.line, r.ok
	}
}
