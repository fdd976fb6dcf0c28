// Package artifact hands out local URIs for rendered documents. A Manager keeps
// at most one live artifact: publishing a new one releases the previous handle.
package artifact

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultBase is the URI prefix of published artifacts.
const DefaultBase = "/artifacts"

// releasedMemory bounds how many superseded ids are remembered so that
// Resolve can tell "released" apart from "never existed".
const releasedMemory = 256

var (
	ErrHandleReleased = errors.New("artifact handle has been released")
	ErrHandleNotFound = errors.New("artifact handle not found")
	ErrEmptyArtifact  = errors.New("artifact is empty")
)

// Artifact is a published document.
type Artifact struct {
	ID        string
	URI       string
	Bytes     []byte
	CreatedAt time.Time
}

// Manager owns the current artifact of one session. Safe for concurrent use.
type Manager struct {
	base string
	now  func() time.Time

	mu       sync.Mutex
	live     *lru.Cache[string, Artifact]
	released *lru.Cache[string, struct{}]
}

// Option configures a Manager.
type Option func(*Manager)

// WithBase sets the URI prefix. Trailing slashes are dropped.
func WithBase(base string) Option {
	return func(m *Manager) {
		base = strings.TrimRight(base, "/")
		if base != "" {
			m.base = base
		}
	}
}

// WithClock sets the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates an empty Manager.
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{base: DefaultBase, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}

	released, err := lru.New[string, struct{}](releasedMemory)
	if err != nil {
		return nil, fmt.Errorf("creating released set: %w", err)
	}
	live, err := lru.NewWithEvict(1, func(id string, _ Artifact) {
		released.Add(id, struct{}{})
	})
	if err != nil {
		return nil, fmt.Errorf("creating artifact cache: %w", err)
	}

	m.live = live
	m.released = released
	return m, nil
}

// Publish stores a copy of data under a fresh handle and releases the previous
// one.
func (m *Manager) Publish(data []byte) (Artifact, error) {
	if len(data) == 0 {
		return Artifact{}, ErrEmptyArtifact
	}

	id := uuid.NewString()
	a := Artifact{
		ID:        id,
		URI:       m.base + "/" + id,
		Bytes:     append([]byte(nil), data...),
		CreatedAt: m.now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.live.Add(id, a)
	return withCopy(a), nil
}

// Resolve returns the artifact behind handle, which may be a full URI or a
// bare id.
func (m *Manager) Resolve(handle string) (Artifact, error) {
	id := path.Base(strings.TrimRight(handle, "/"))
	if _, err := uuid.Parse(id); err != nil {
		return Artifact{}, fmt.Errorf("%w: %q", ErrHandleNotFound, handle)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.live.Peek(id); ok {
		return withCopy(a), nil
	}
	if m.released.Contains(id) {
		return Artifact{}, fmt.Errorf("%w: %s", ErrHandleReleased, id)
	}
	return Artifact{}, fmt.Errorf("%w: %s", ErrHandleNotFound, id)
}

// Current returns the live artifact, if any.
func (m *Manager) Current() (Artifact, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := m.live.Keys()
	if len(keys) == 0 {
		return Artifact{}, false
	}
	a, ok := m.live.Peek(keys[0])
	if !ok {
		return Artifact{}, false
	}
	return withCopy(a), true
}

// Release releases the live artifact. Releasing with nothing live is a no-op.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live.Purge()
}

func withCopy(a Artifact) Artifact {
	a.Bytes = append([]byte(nil), a.Bytes...)
	return a
}
