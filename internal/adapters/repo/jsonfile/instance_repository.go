package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/claude-voice/internal/adapters/fsutil"
	"github.com/bnema/claude-voice/internal/logging"
	"github.com/bnema/claude-voice/internal/ports"
	"github.com/gofrs/flock"
)

const (
	registryFileMode = 0o600
	tempFilePattern  = ".claude_instances-*.json.tmp"
	lockSuffix       = ".lock"
	lockRetryDelay   = 25 * time.Millisecond

	defaultLockTimeout = 500 * time.Millisecond
)

var storageLog = logging.ForComponent(logging.CompStorage)

var ErrCorruptRegistry = errors.New("registry document is corrupt")

type InstanceRepository struct {
	path        string
	mu          *sync.RWMutex
	fileLock    *flock.Flock
	lockTimeout time.Duration
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.InstanceRepository = (*InstanceRepository)(nil)

func NewInstanceRepository(path string, lockTimeout time.Duration) (*InstanceRepository, error) {
	if path == "" {
		return nil, errors.New("registry path is empty")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve registry path: %w", err)
	}
	absPath = filepath.Clean(absPath)

	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}

	return &InstanceRepository{
		path:        absPath,
		mu:          lockForPath(absPath),
		fileLock:    flock.New(absPath + lockSuffix),
		lockTimeout: lockTimeout,
	}, nil
}

func (r *InstanceRepository) Path() string {
	return r.path
}

func (r *InstanceRepository) Load(ctx context.Context) (ports.Instances, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.read()
}

// Update serializes the read-modify-write in-process through a per-path mutex
// and across processes through an advisory lock. When the advisory lock cannot
// be taken within lockTimeout the write proceeds anyway; the rename keeps the
// document whole and the last writer wins.
func (r *InstanceRepository) Update(ctx context.Context, fn func(ports.Instances) (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	unlock := r.acquireFileLock(ctx)
	defer unlock()

	instances, err := r.read()
	if err != nil {
		if !errors.Is(err, ErrCorruptRegistry) {
			return err
		}
		storageLog.Warn("registry_corrupt_reset", slog.String("path", r.path), slog.String("error", err.Error()))
		instances = ports.Instances{}
	}

	changed, err := fn(instances)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.write(instances)
}

func (r *InstanceRepository) acquireFileLock(ctx context.Context) func() {
	if err := os.MkdirAll(filepath.Dir(r.path), fsutil.DirMode); err != nil {
		storageLog.Debug("registry_lock_dir_failed", slog.String("error", err.Error()))
		return func() {}
	}

	lockCtx, cancel := context.WithTimeout(ctx, r.lockTimeout)
	defer cancel()

	locked, err := r.fileLock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil || !locked {
		attrs := []any{slog.String("path", r.fileLock.Path())}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		storageLog.Warn("registry_lock_unavailable", attrs...)
		return func() {}
	}

	return func() {
		_ = r.fileLock.Unlock()
	}
}

func (r *InstanceRepository) read() (ports.Instances, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ports.Instances{}, nil
		}
		return nil, fmt.Errorf("read registry file: %w", err)
	}

	var file fileSchema
	if len(data) > 0 {
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRegistry, err)
		}
	}

	instances := make(ports.Instances, len(file))
	for id, entry := range file {
		instance := fromSchema(id, entry)
		instances[instance.ID] = instance
	}

	return instances, nil
}

func (r *InstanceRepository) write(instances ports.Instances) error {
	file := make(fileSchema, len(instances))
	for id, instance := range instances {
		instance.ID = id
		file[string(id)] = toSchema(instance)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry file: %w", err)
	}

	if err := fsutil.WriteFileAtomic(r.path, data, registryFileMode, tempFilePattern); err != nil {
		return fmt.Errorf("write registry file: %w", err)
	}

	return nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
