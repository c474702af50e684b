package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/epulse/internal/model"
)

// StorageKey is the key the analytics snapshot is persisted under.
const StorageKey = "typingAnalyticsV2"

// KV is the key-value persistence the store writes snapshots to.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// ResultLog receives every recorded result.
type ResultLog interface {
	AppendResult(ctx context.Context, r model.Result) error
}

// Forwarder ships results to a remote endpoint. Forward must not block on the network.
type Forwarder interface {
	Forward(r model.Result)
}

// Store owns the in-memory analytics state and its persisted copy.
type Store struct {
	kv        KV
	results   ResultLog
	forwarder Forwarder
	logger    *zap.Logger
	now       func() time.Time

	mu     sync.Mutex
	state  State
	loaded bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithResultLog appends every recorded result to log.
func WithResultLog(log ResultLog) StoreOption {
	return func(s *Store) {
		s.results = log
	}
}

// WithForwarder forwards every recorded result after it is persisted locally.
func WithForwarder(f Forwarder) StoreOption {
	return func(s *Store) {
		s.forwarder = f
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns a store holding default state. Call Load to read the persisted copy.
func NewStore(kv KV, opts ...StoreOption) *Store {
	s := &Store{
		kv:     kv,
		logger: zap.NewNop(),
		now:    time.Now,
		state:  Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted snapshot and applies day rollover. A snapshot that fails to
// parse is discarded in favor of defaults.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) error {
	s.loaded = true
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		s.state = Default()
		return fmt.Errorf("failed to read analytics: %w", err)
	}
	if !ok {
		s.state = Default()
		return nil
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		s.logger.Warn("discarding unreadable analytics snapshot", zap.Error(err))
		s.state = Default()
		return nil
	}
	s.state = Rollover(st.normalize(), s.now())
	return nil
}

// State returns the current analytics snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Save persists the current snapshot.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) error {
	raw, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("failed to encode analytics: %w", err)
	}
	if err := s.kv.Put(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("failed to write analytics: %w", err)
	}
	return nil
}

// Record folds r into the state, persists it, appends r to the result log and hands it
// to the forwarder. The in-memory state is updated even when persistence fails.
func (s *Store) Record(ctx context.Context, r model.Result) (State, error) {
	s.mu.Lock()
	if !s.loaded {
		if err := s.loadLocked(ctx); err != nil {
			s.logger.Warn("loading analytics before record", zap.Error(err))
		}
	}
	s.state = Record(s.state, r, s.now())
	next := s.state
	saveErr := s.saveLocked(ctx)
	s.mu.Unlock()

	if saveErr != nil {
		s.logger.Error("persisting analytics", zap.Error(saveErr))
	}
	if s.results != nil {
		if err := s.results.AppendResult(ctx, r); err != nil {
			s.logger.Warn("appending result to log", zap.String("id", r.ID), zap.Error(err))
		}
	}
	if s.forwarder != nil {
		s.forwarder.Forward(r)
	}
	return next, saveErr
}

// Reset restores defaults and removes the persisted snapshot. The result log is kept.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Default()
	s.loaded = true
	if err := s.kv.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("failed to clear analytics: %w", err)
	}
	return nil
}
