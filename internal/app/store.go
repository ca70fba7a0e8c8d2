package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/evanschultz/chantab/internal/domain"
)

// Tier identifies the data source that resolved the initial channel list.
type Tier string

// TierNone and related constants name the reconciliation tiers.
const (
	TierNone      Tier = "none"
	TierPersisted Tier = "persisted"
	TierRemote    Tier = "remote"
	TierAmbient   Tier = "ambient"
)

// StoreConfig holds configuration for store.
type StoreConfig struct {
	SecondaryIDGen func() string
	CounterFloor   int64
	Logger         Logger
}

// Store owns the authoritative channel list and its id counter.
type Store struct {
	kv          KeyValueStore
	remote      SnapshotSource
	ambient     AmbientSource
	secondaryID func() string
	floor       int64
	logger      Logger

	initMu sync.Mutex

	mu          sync.Mutex
	channels    []domain.Channel
	counter     int64
	initialized bool
	tier        Tier
}

// resolution is the outcome of one tier walk.
type resolution struct {
	channels []domain.Channel
	counter  int64
	tier     Tier
	persist  bool
}

// persistedStatus classifies the persisted tier.
type persistedStatus int

// persistedAbsent and related constants classify persisted tier reads.
const (
	persistedAbsent persistedStatus = iota
	persistedValid
	persistedCorrupt
)

// NewStore constructs a store. remote and ambient may be nil.
func NewStore(kv KeyValueStore, remote SnapshotSource, ambient AmbientSource, cfg StoreConfig) *Store {
	if cfg.SecondaryIDGen == nil {
		cfg.SecondaryIDGen = NewSecondaryID
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	if cfg.CounterFloor < 0 {
		cfg.CounterFloor = 0
	}
	return &Store{
		kv:          kv,
		remote:      remote,
		ambient:     ambient,
		secondaryID: cfg.SecondaryIDGen,
		floor:       cfg.CounterFloor,
		logger:      cfg.Logger,
		channels:    []domain.Channel{},
		counter:     cfg.CounterFloor,
		tier:        TierNone,
	}
}

// Initialize resolves the initial channel list once and returns the current snapshot.
func (s *Store) Initialize(ctx context.Context) ([]domain.Channel, error) {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.isInitialized() {
		return s.Snapshot(), nil
	}

	res, err := s.resolve(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = res.channels
	s.counter = res.counter
	s.tier = res.tier
	s.initialized = true
	if res.persist {
		if err := s.persistLocked(ctx); err != nil {
			s.logger.Error("persist resolved channels failed", "tier", res.tier, "err", err)
		}
	}
	s.logger.Info("channel store initialized", "tier", res.tier, "channels", len(s.channels), "counter", s.counter)
	return domain.CloneChannels(s.channels), nil
}

// resolve walks persisted, remote, and ambient tiers in order.
func (s *Store) resolve(ctx context.Context) (resolution, error) {
	channels, counter, status := s.readPersisted(ctx)
	switch status {
	case persistedValid:
		res := resolution{channels: channels, counter: counter, tier: TierPersisted}
		if maxID, ok := MaxNumericID(channels); ok && maxID > counter {
			s.logger.Warn("persisted counter below largest id; repairing", "counter", counter, "max_id", maxID)
			res.counter = maxID
			res.persist = true
		}
		return res, nil
	case persistedCorrupt:
		// A present but broken persisted tier goes straight to the ambient tier.
		return s.resolveAmbient(ctx), nil
	}

	if s.remote == nil {
		s.logger.Debug("remote snapshot source not configured")
		return s.resolveAmbient(ctx), nil
	}
	res, err := s.resolveRemote(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return resolution{}, fmt.Errorf("initialize channels: %w", ctxErr)
		}
		s.logger.Warn("remote snapshot unavailable; table left empty", "err", err)
		return resolution{channels: []domain.Channel{}, counter: s.floor, tier: TierNone}, nil
	}
	return res, nil
}

// readPersisted loads and validates the persisted tier.
func (s *Store) readPersisted(ctx context.Context) ([]domain.Channel, int64, persistedStatus) {
	if s.kv == nil {
		return nil, 0, persistedAbsent
	}
	rawChannels, okChannels, err := s.kv.GetItem(ctx, StorageKeyChannels)
	if err != nil {
		s.logger.Warn("persisted channels unreadable", "err", errors.Join(ErrPersistenceRead, err))
		return nil, 0, persistedAbsent
	}
	rawCounter, okCounter, err := s.kv.GetItem(ctx, StorageKeyCounter)
	if err != nil {
		s.logger.Warn("persisted counter unreadable", "err", errors.Join(ErrPersistenceRead, err))
		return nil, 0, persistedAbsent
	}
	if !okChannels || !okCounter {
		s.logger.Debug("persisted tier absent", "channels_key", okChannels, "counter_key", okCounter)
		return nil, 0, persistedAbsent
	}

	channels, err := DecodeChannels(rawChannels)
	if err != nil {
		s.logger.Error("persisted channels invalid; discarding", "err", err)
		return nil, 0, persistedCorrupt
	}
	counter, err := DecodeCounter(rawCounter)
	if err != nil {
		s.logger.Error("persisted counter invalid; discarding", "err", err)
		return nil, 0, persistedCorrupt
	}
	return channels, counter, persistedValid
}

// resolveRemote adopts a non-empty remote snapshot.
func (s *Store) resolveRemote(ctx context.Context) (resolution, error) {
	fetched, err := s.remote.FetchChannels(ctx)
	if err != nil {
		if errors.Is(err, ErrRemoteFetch) {
			return resolution{}, err
		}
		return resolution{}, fmt.Errorf("%w: %w", ErrRemoteFetch, err)
	}
	if len(fetched) == 0 {
		return resolution{}, fmt.Errorf("%w: empty channel list", ErrRemoteFetch)
	}

	channels := make([]domain.Channel, 0, len(fetched))
	seen := make(map[string]struct{}, len(fetched))
	for idx, raw := range fetched {
		ch, err := s.normalize(raw)
		if err != nil {
			return resolution{}, fmt.Errorf("%w: entry %d: %w", ErrRemoteFetch, idx, err)
		}
		if _, ok := seen[ch.ID]; ok {
			return resolution{}, fmt.Errorf("%w: entry %d: duplicate id %q", ErrRemoteFetch, idx, ch.ID)
		}
		seen[ch.ID] = struct{}{}
		channels = append(channels, ch)
	}
	return resolution{
		channels: channels,
		counter:  s.seedCounter(channels),
		tier:     TierRemote,
		persist:  true,
	}, nil
}

// resolveAmbient derives channels from the ambient source and always persists the result.
func (s *Store) resolveAmbient(ctx context.Context) resolution {
	channels := []domain.Channel{}
	if s.ambient != nil {
		scraped, err := s.ambient.Scrape(ctx)
		if err != nil {
			s.logger.Warn("ambient scrape failed", "err", err)
		}
		seen := make(map[string]struct{}, len(scraped))
		for _, raw := range scraped {
			ch, err := s.normalize(raw)
			if err != nil {
				s.logger.Warn("ambient row skipped", "id", raw.ID, "err", err)
				continue
			}
			if _, ok := seen[ch.ID]; ok {
				s.logger.Warn("ambient row skipped", "id", ch.ID, "err", "duplicate id")
				continue
			}
			seen[ch.ID] = struct{}{}
			channels = append(channels, ch)
		}
	}
	return resolution{
		channels: channels,
		counter:  s.seedCounter(channels),
		tier:     TierAmbient,
		persist:  true,
	}
}

// normalize fills a missing secondary id and validates the record.
func (s *Store) normalize(raw domain.Channel) (domain.Channel, error) {
	if strings.TrimSpace(raw.SecondaryID) == "" {
		raw.SecondaryID = s.secondaryID()
	}
	return domain.NewChannel(domain.ChannelInput(raw))
}

// seedCounter returns the largest numeric id, or the configured floor.
func (s *Store) seedCounter(channels []domain.Channel) int64 {
	if maxID, ok := MaxNumericID(channels); ok {
		return maxID
	}
	return s.floor
}

// Add appends a new channel with the next issued id.
func (s *Store) Add(ctx context.Context, displayNumber string) (domain.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return domain.Channel{}, ErrNotInitialized
	}

	if s.counter == math.MaxInt64 {
		s.logger.Error("channel id counter exhausted", "counter", s.counter)
		return domain.Channel{}, fmt.Errorf("allocate channel id after %d: counter exhausted: %w", s.counter, ErrInvariantViolation)
	}
	id, next := NextID(s.counter)
	if s.indexLocked(id) >= 0 {
		s.logger.Error("issued channel id already present", "id", id, "counter", s.counter)
		return domain.Channel{}, fmt.Errorf("allocate channel id %q: %w", id, ErrInvariantViolation)
	}
	ch, err := domain.NewChannel(domain.ChannelInput{
		ID:            id,
		DisplayNumber: displayNumber,
		SecondaryID:   s.secondaryID(),
	})
	if err != nil {
		return domain.Channel{}, err
	}

	s.channels = append(s.channels, ch)
	s.counter = next
	if err := s.persistLocked(ctx); err != nil {
		s.logger.Error("persist after add failed", "id", ch.ID, "err", err)
	}
	s.logger.Info("channel added", "id", ch.ID, "display_number", ch.DisplayNumber)
	return ch, nil
}

// Remove deletes the channel with id and reports whether one was removed.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}
	s.channels = append(s.channels[:idx], s.channels[idx+1:]...)
	if err := s.persistLocked(ctx); err != nil {
		s.logger.Error("persist after remove failed", "id", id, "err", err)
	}
	s.logger.Info("channel removed", "id", id)
	return true
}

// Snapshot returns a copy of the current channels in insertion order.
func (s *Store) Snapshot() []domain.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneChannels(s.channels)
}

// Get returns one channel by id.
func (s *Store) Get(id string) (domain.Channel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return domain.Channel{}, false
	}
	return s.channels[idx], true
}

// Counter returns the current id counter.
func (s *Store) Counter() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}

// Source returns the tier that resolved the initial state.
func (s *Store) Source() Tier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tier
}

// Persist writes the channel list and counter to durable storage.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

// persistLocked writes state; callers hold s.mu.
func (s *Store) persistLocked(ctx context.Context) error {
	if s.kv == nil {
		return fmt.Errorf("%w: no storage configured", ErrPersistenceWrite)
	}
	encoded, err := EncodeChannels(s.channels)
	if err != nil {
		return errors.Join(ErrPersistenceWrite, err)
	}
	if err := s.kv.SetItems(ctx, map[string]string{
		StorageKeyChannels: encoded,
		StorageKeyCounter:  EncodeCounter(s.counter),
	}); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceWrite, err)
	}
	return nil
}

// isInitialized reports whether Initialize has committed state.
func (s *Store) isInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// indexLocked returns the slice index for id or -1.
func (s *Store) indexLocked(id string) int {
	id = strings.TrimSpace(id)
	for idx, ch := range s.channels {
		if ch.ID == id {
			return idx
		}
	}
	return -1
}
