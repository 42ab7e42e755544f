package firmlock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/casebook/internal/clock"
	"github.com/roach88/casebook/internal/identity"
)

// Defaults match the shared-drive deployment: contention is rare and short.
const (
	DefaultTimeout       = 30 * time.Second
	DefaultRetryInterval = 2 * time.Second
)

// ErrLocked reports that another holder has the lock right now.
var ErrLocked = errors.New("lock held by another holder")

// errWouldBlock is returned by the platform lock call on contention.
var errWouldBlock = errors.New("lock would block")

// processLocks excludes goroutines of this process per sentinel path.
var processLocks sync.Map

// Holder is the diagnostic metadata written into the sentinel.
type Holder struct {
	User      string `json:"user"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"timestamp"`
	PID       int    `json:"pid"`
	Token     string `json:"token,omitempty"`
}

func (h Holder) String() string {
	return fmt.Sprintf("%s@%s pid=%d since %s", h.User, h.Hostname, h.PID, h.Timestamp)
}

// PathFunc maps a firm name to its sentinel path.
type PathFunc func(firm string) string

// Locker acquires firm locks.
type Locker struct {
	path    PathFunc
	timeout time.Duration
	retry   time.Duration
	clock   clock.Clock
	logger  *slog.Logger
}

// Option configures a Locker.
type Option func(*Locker)

// WithTimeout sets how long Acquire polls before failing.
func WithTimeout(d time.Duration) Option {
	return func(l *Locker) { l.timeout = d }
}

// WithRetryInterval sets the pause between acquisition attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(l *Locker) { l.retry = d }
}

// WithClock sets the clock used for holder timestamps.
func WithClock(c clock.Clock) Option {
	return func(l *Locker) { l.clock = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locker) { l.logger = logger }
}

// New creates a Locker resolving sentinel paths with path.
func New(path PathFunc, opts ...Option) *Locker {
	l := &Locker{
		path:    path,
		timeout: DefaultTimeout,
		retry:   DefaultRetryInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.clock = clock.Or(l.clock)
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.retry <= 0 {
		l.retry = DefaultRetryInterval
	}
	return l
}

// Path returns the sentinel path for firm.
func (l *Locker) Path(firm string) string {
	return l.path(firm)
}

// Handle is a held firm lock.
type Handle struct {
	firm    string
	path    string
	holder  Holder
	logger  *slog.Logger
	mu      sync.Mutex
	file    *os.File
	process *sync.Mutex
}

// Firm returns the locked firm's name.
func (h *Handle) Firm() string { return h.firm }

// Holder returns the metadata written at acquisition.
func (h *Handle) Holder() Holder { return h.holder }

// TryAcquire makes one non-blocking attempt. It returns ErrLocked (wrapped)
// when another holder has the lock.
func (l *Locker) TryAcquire(ctx context.Context, firm string) (*Handle, error) {
	path := l.path(firm)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prepare lock directory: %w", err)
	}

	process := processLock(path)
	if !process.TryLock() {
		return nil, fmt.Errorf("lock %s: %w", firm, ErrLocked)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		process.Unlock()
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := lockFile(f); err != nil {
		_ = f.Close()
		process.Unlock()
		if errors.Is(err, errWouldBlock) {
			return nil, fmt.Errorf("lock %s: %w", firm, ErrLocked)
		}
		return nil, fmt.Errorf("lock %s: %w", firm, err)
	}

	actor := identity.FromContext(ctx)
	holder := Holder{
		User:      actor.User,
		Hostname:  actor.Hostname,
		Timestamp: l.clock.Now().Format(time.RFC3339),
		PID:       os.Getpid(),
		Token:     uuid.Must(uuid.NewV7()).String(),
	}
	if err := writeHolder(f, holder); err != nil {
		l.logger.Warn("could not write lock holder metadata", "firm", firm, "error", err)
	}

	l.logger.Debug("lock acquired", "firm", firm, "token", holder.Token)
	return &Handle{
		firm:    firm,
		path:    path,
		holder:  holder,
		logger:  l.logger,
		file:    f,
		process: process,
	}, nil
}

// Acquire polls TryAcquire until it succeeds, the timeout elapses
// (*TimeoutError), or ctx is done.
func (l *Locker) Acquire(ctx context.Context, firm string) (*Handle, error) {
	start := time.Now()
	attempts := 0
	for {
		attempts++
		h, err := l.TryAcquire(ctx, firm)
		if err == nil {
			return h, nil
		}
		if !errors.Is(err, ErrLocked) {
			return nil, err
		}

		waited := time.Since(start)
		if waited >= l.timeout {
			path := l.path(firm)
			terr := &TimeoutError{
				Firm:     firm,
				Path:     path,
				Waited:   waited,
				Attempts: attempts,
				Timeout:  l.timeout,
				Retry:    l.retry,
				Holder:   DescribeHolder(path),
			}
			l.logger.Warn("lock timeout", "firm", firm, "attempts", attempts, "holder", terr.Holder)
			return nil, terr
		}

		pause := l.retry
		if remaining := l.timeout - waited; remaining < pause {
			pause = remaining
		}
		l.logger.Debug("lock contended, retrying", "firm", firm, "attempt", attempts, "pause", pause)

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("lock %s: %w", firm, ctx.Err())
		case <-timer.C:
		}
	}
}

// With acquires firm's lock, runs fn, and releases the lock however fn exits.
func (l *Locker) With(ctx context.Context, firm string, fn func() error) (err error) {
	h, err := l.Acquire(ctx, firm)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := h.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn()
}

// Holder reads the last holder metadata for firm's sentinel.
func (l *Locker) Holder(firm string) (Holder, error) {
	return ReadHolder(l.path(firm))
}

// Release drops the OS lock and closes the sentinel. Calling it more than
// once is safe. Unlock failures are logged and swallowed; the descriptor is
// always closed, which releases the OS lock regardless.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file == nil {
		return nil
	}
	defer func() {
		h.file = nil
		h.process.Unlock()
	}()

	if err := unlockFile(h.file); err != nil {
		h.logger.Debug("unlock failed, closing anyway", "firm", h.firm, "error", err)
	}
	if err := h.file.Close(); err != nil {
		return fmt.Errorf("close lock file: %w", err)
	}
	h.logger.Debug("lock released", "firm", h.firm, "token", h.holder.Token)
	return nil
}

// ReadHolder decodes holder metadata from a sentinel.
func ReadHolder(path string) (Holder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Holder{}, fmt.Errorf("read lock holder: %w", err)
	}
	var h Holder
	if err := json.Unmarshal(data, &h); err != nil {
		return Holder{}, fmt.Errorf("parse lock holder: %w", err)
	}
	return h, nil
}

// DescribeHolder is a best-effort, human readable holder description. It
// tolerates missing, partial and corrupt sentinels.
func DescribeHolder(path string) string {
	if h, err := ReadHolder(path); err == nil && h.User != "" {
		return h.String()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "(unknown holder)"
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "(unknown holder)"
	}
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}

func writeHolder(f *os.File, h Holder) error {
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.WriteAt(append(data, '\n'), 0); err != nil {
		return err
	}
	return f.Sync()
}

func processLock(path string) *sync.Mutex {
	key := filepath.Clean(path)
	if existing, ok := processLocks.Load(key); ok {
		return existing.(*sync.Mutex)
	}
	actual, _ := processLocks.LoadOrStore(key, &sync.Mutex{})
	return actual.(*sync.Mutex)
}
