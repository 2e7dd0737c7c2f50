package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/bnema/claude-voice/internal/domain"
	"github.com/bnema/claude-voice/internal/logging"
	"github.com/bnema/claude-voice/internal/ports"
	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/errgroup"
)

const (
	probeConcurrency = 8
	maxSuggestions   = 3
)

var registryLog = logging.ForComponent(logging.CompRegistry)

// Registry owns the instance records. Every mutation is a single
// read-modify-write on the shared document, and liveness is recomputed on
// every read instead of being trusted from the cached status.
type Registry struct {
	repo      ports.InstanceRepository
	prober    ports.LivenessProber
	clock     ports.Clock
	staleness time.Duration
}

func NewRegistry(repo ports.InstanceRepository, prober ports.LivenessProber, clock ports.Clock, staleness time.Duration) *Registry {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if staleness <= 0 {
		staleness = domain.DefaultStalenessWindow
	}

	return &Registry{
		repo:      repo,
		prober:    prober,
		clock:     clock,
		staleness: staleness,
	}
}

func (r *Registry) Staleness() time.Duration {
	return r.staleness
}

func (r *Registry) Now() time.Time {
	return r.clock.Now()
}

// Register inserts or overwrites id. The same project may hold several
// records at once.
func (r *Registry) Register(ctx context.Context, id domain.InstanceID, metadata domain.InstanceMetadata) Outcome {
	now := r.clock.Now()
	instance := domain.Instance{
		ID:              id,
		ProcessID:       metadata.ProcessID,
		ProjectPath:     metadata.ProjectPath,
		TerminalSession: metadata.TerminalSession,
		LastActiveAt:    now,
		Status:          domain.InstanceStatusActive,
		VoiceEnabled:    boolOrDefault(metadata.VoiceEnabled, true),
		DaemonAware:     boolOrDefault(metadata.DaemonAware, true),
	}

	err := r.repo.Update(ctx, func(instances ports.Instances) (bool, error) {
		instances[id] = instance
		return true, nil
	})

	return r.outcome("register", id, true, err)
}

func (r *Registry) Unregister(ctx context.Context, id domain.InstanceID) Outcome {
	removed := false
	err := r.repo.Update(ctx, func(instances ports.Instances) (bool, error) {
		if _, ok := instances[id]; !ok {
			return false, nil
		}
		delete(instances, id)
		removed = true
		return true, nil
	})

	return r.outcome("unregister", id, removed, err)
}

// Touch advances LastActiveAt. An unknown id is a no-op.
func (r *Registry) Touch(ctx context.Context, id domain.InstanceID) Outcome {
	now := r.clock.Now()
	touched := false
	err := r.repo.Update(ctx, func(instances ports.Instances) (bool, error) {
		instance, ok := instances[id]
		if !ok {
			return false, nil
		}
		instance.Touch(now)
		instance.Status = domain.InstanceStatusActive
		instances[id] = instance
		touched = true
		return true, nil
	})

	return r.outcome("touch", id, touched, err)
}

// SetVoiceEnabled reports Changed only when id exists.
func (r *Registry) SetVoiceEnabled(ctx context.Context, id domain.InstanceID, enabled bool) Outcome {
	found := false
	err := r.repo.Update(ctx, func(instances ports.Instances) (bool, error) {
		instance, ok := instances[id]
		if !ok {
			return false, nil
		}
		found = true
		instance.VoiceEnabled = enabled
		instances[id] = instance
		return true, nil
	})

	return r.outcome("set_voice_enabled", id, found, err)
}

// All returns every stored record. A failed load degrades to empty.
func (r *Registry) All(ctx context.Context) ports.Instances {
	instances, err := r.repo.Load(ctx)
	if err != nil {
		registryLog.Warn("registry_load_failed", slog.String("error", err.Error()))
		return ports.Instances{}
	}
	return instances
}

func (r *Registry) Get(ctx context.Context, id domain.InstanceID) (domain.Instance, error) {
	instance, ok := r.All(ctx)[id]
	if !ok {
		return domain.Instance{}, fmt.Errorf("%w: %s", domain.ErrInstanceNotFound, id)
	}
	return instance, nil
}

func (r *Registry) ListActive(ctx context.Context) ports.Instances {
	return r.ListActiveWithin(ctx, r.staleness)
}

// ListActiveWithin keeps a record only when it is fresh and its process is
// running. Fresh records whose process is gone are persisted as inactive.
func (r *Registry) ListActiveWithin(ctx context.Context, staleness time.Duration) ports.Instances {
	if staleness <= 0 {
		staleness = r.staleness
	}

	now := r.clock.Now()
	instances := r.All(ctx)

	fresh := make([]domain.Instance, 0, len(instances))
	for _, instance := range instances {
		if instance.IsFresh(now, staleness) {
			fresh = append(fresh, instance)
		}
	}

	alive := r.probe(ctx, fresh)

	active := ports.Instances{}
	flips := map[domain.InstanceID]domain.InstanceStatus{}
	for i, instance := range fresh {
		status := domain.InstanceStatusInactive
		if alive[i] {
			status = domain.InstanceStatusActive
		}
		if instance.Status != status {
			flips[instance.ID] = status
		}
		if alive[i] {
			instance.Status = status
			active[instance.ID] = instance
		}
	}

	if len(flips) > 0 {
		r.persistStatus(ctx, flips)
	}

	return active
}

// Prune deletes records that are stale and whose process is gone.
func (r *Registry) Prune(ctx context.Context, staleness time.Duration) ([]domain.InstanceID, Outcome) {
	if staleness <= 0 {
		staleness = r.staleness
	}

	now := r.clock.Now()
	candidates := make([]domain.Instance, 0)
	for _, instance := range r.All(ctx) {
		if !instance.IsFresh(now, staleness) {
			candidates = append(candidates, instance)
		}
	}

	alive := r.probe(ctx, candidates)
	doomed := map[domain.InstanceID]struct{}{}
	for i, instance := range candidates {
		if !alive[i] {
			doomed[instance.ID] = struct{}{}
		}
	}
	if len(doomed) == 0 {
		return nil, Outcome{}
	}

	removed := make([]domain.InstanceID, 0, len(doomed))
	err := r.repo.Update(ctx, func(instances ports.Instances) (bool, error) {
		for id := range doomed {
			current, ok := instances[id]
			// A touch between probe and update revives the record.
			if !ok || current.IsFresh(now, staleness) {
				continue
			}
			delete(instances, id)
			removed = append(removed, id)
		}
		return len(removed) > 0, nil
	})
	if err != nil {
		removed = nil
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })

	return removed, r.outcome("prune", "", len(removed) > 0, err)
}

// ResolvePrefix maps a user-typed id prefix onto exactly one stored id. A
// prefix shared by several ids is ambiguous even when one of them equals it.
func (r *Registry) ResolvePrefix(ctx context.Context, prefix string) (domain.InstanceID, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("%w: empty prefix", domain.ErrNoMatch)
	}

	ids := sortedIDs(r.All(ctx))
	matches := make([]string, 0, 2)
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 1:
		return domain.InstanceID(matches[0]), nil
	case 0:
		if suggestions := suggest(prefix, ids); len(suggestions) > 0 {
			return "", fmt.Errorf("%w %q (did you mean %s?)", domain.ErrNoMatch, prefix, strings.Join(suggestions, ", "))
		}
		return "", fmt.Errorf("%w %q", domain.ErrNoMatch, prefix)
	default:
		return "", fmt.Errorf("%w: %q matches %s", domain.ErrAmbiguousSelection, prefix, strings.Join(matches, ", "))
	}
}

// FindByProject returns the most recent record registered for path.
func (r *Registry) FindByProject(ctx context.Context, path string) (domain.Instance, bool) {
	var (
		best  domain.Instance
		found bool
	)
	for _, instance := range r.All(ctx) {
		if instance.ProjectPath != path {
			continue
		}
		if !found || instance.MoreRecentThan(best) {
			best = instance
			found = true
		}
	}
	return best, found
}

func (r *Registry) probe(ctx context.Context, instances []domain.Instance) []bool {
	alive := make([]bool, len(instances))
	if len(instances) == 0 {
		return alive
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(probeConcurrency)
	for i, instance := range instances {
		group.Go(func() error {
			alive[i] = r.prober.IsRunning(groupCtx, instance.ProcessID)
			return nil
		})
	}
	_ = group.Wait()

	return alive
}

func (r *Registry) persistStatus(ctx context.Context, flips map[domain.InstanceID]domain.InstanceStatus) {
	err := r.repo.Update(ctx, func(instances ports.Instances) (bool, error) {
		changed := false
		for id, status := range flips {
			instance, ok := instances[id]
			if !ok || instance.Status == status {
				continue
			}
			instance.Status = status
			instances[id] = instance
			changed = true
		}
		return changed, nil
	})
	if err != nil {
		registryLog.Warn("registry_status_persist_failed", slog.String("error", err.Error()))
	}
}

func (r *Registry) outcome(op string, id domain.InstanceID, changed bool, err error) Outcome {
	if err != nil {
		attrs := []any{slog.String("op", op), slog.String("error", err.Error())}
		if id != "" {
			attrs = append(attrs, slog.String("instance", string(id)))
		}
		registryLog.Warn("registry_update_failed", attrs...)
		return Outcome{Err: fmt.Errorf("%s: %w", op, err)}
	}

	if changed {
		registryLog.Debug("registry_updated", slog.String("op", op), slog.String("instance", string(id)))
	}
	return Outcome{Changed: changed}
}

func sortedIDs(instances ports.Instances) []string {
	ids := make([]string, 0, len(instances))
	for id := range instances {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	return ids
}

func suggest(prefix string, ids []string) []string {
	matches := fuzzy.Find(prefix, ids)
	suggestions := make([]string, 0, maxSuggestions)
	for _, match := range matches {
		suggestions = append(suggestions, match.Str)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return suggestions
}

func boolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

// IsUserError reports whether err is a selection error meant for the user
// rather than a storage failure.
func IsUserError(err error) bool {
	return errors.Is(err, domain.ErrNoMatch) ||
		errors.Is(err, domain.ErrAmbiguousSelection) ||
		errors.Is(err, domain.ErrInvalidMode)
}
