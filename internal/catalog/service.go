package catalog

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-promo/internal/common"
	"github.com/noah-isme/toko-promo/internal/promo"
)

const (
	snapshotKey     = "promo:snapshot:v1"
	lastKnownKey    = "promo:snapshot:v1:last"
	refreshLockKey  = "promo:snapshot:v1:lock"
	refreshLockTTL  = 5 * time.Second
	maxProductBatch = 200
)

// Snapshot sources reported to the Recorder.
const (
	SourceCache     = "cache"
	SourceDatabase  = "db"
	SourceLastKnown = "last_known"
	SourceEmpty     = "empty"
)

// ErrProductNotFound is wrapped when requested products are missing.
var ErrProductNotFound = errors.New("product not found")

// Source is the persistence behind the catalog.
type Source interface {
	ListPromotions(ctx context.Context) ([]promo.Record, error)
	ProductsByIDs(ctx context.Context, ids []string) ([]promo.Product, error)
}

// Recorder receives the origin of every promotion snapshot served.
type Recorder interface {
	RecordSnapshot(source string)
}

// Locker serialises snapshot refreshes across instances.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

type nopRecorder struct{}

func (nopRecorder) RecordSnapshot(string) {}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Source   Source
	Cache    *Cache
	Lock     Locker
	Logger   *zerolog.Logger
	Recorder Recorder
}

// Service feeds the pricing engine with products and promotion snapshots.
type Service struct {
	source   Source
	cache    *Cache
	lock     Locker
	logger   zerolog.Logger
	recorder Recorder
}

// NewService validates cfg and returns a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Source == nil {
		return nil, errors.New("catalog source is required")
	}
	s := &Service{
		source:   cfg.Source,
		cache:    cfg.Cache,
		lock:     cfg.Lock,
		logger:   zerolog.Nop(),
		recorder: nopRecorder{},
	}
	if cfg.Logger != nil {
		s.logger = cfg.Logger.With().Str("component", "catalog").Logger()
	}
	if cfg.Recorder != nil {
		s.recorder = cfg.Recorder
	}
	return s, nil
}

// Promotions returns the current promotion records. It never fails: when the
// database is unreachable it serves the last known snapshot, and with
// neither available it serves no promotions at all.
func (s *Service) Promotions(ctx context.Context) []promo.Record {
	if records, ok := s.cached(ctx); ok {
		s.recorder.RecordSnapshot(SourceCache)
		return records
	}

	records, source, err := s.refresh(ctx)
	if err == nil {
		s.recorder.RecordSnapshot(source)
		return records
	}
	s.logger.Error().Err(err).Msg("promotion_load_failed")

	var stale []promo.Record
	if ok, cerr := s.cache.GetJSON(ctx, lastKnownKey, &stale); cerr == nil && ok {
		s.recorder.RecordSnapshot(SourceLastKnown)
		return stale
	}
	s.recorder.RecordSnapshot(SourceEmpty)
	return nil
}

func (s *Service) cached(ctx context.Context) ([]promo.Record, bool) {
	var records []promo.Record
	ok, err := s.cache.GetJSON(ctx, snapshotKey, &records)
	if err != nil {
		s.logger.Warn().Err(err).Msg("promotion_cache_read_failed")
		return nil, false
	}
	return records, ok
}

// refresh loads a new snapshot. With a Locker only one instance hits the
// database per expiry; the others pick up its result from the cache. When
// the lock cannot be taken the snapshot is loaded directly.
func (s *Service) refresh(ctx context.Context) ([]promo.Record, string, error) {
	if s.lock == nil {
		records, err := s.load(ctx)
		return records, SourceDatabase, err
	}

	var (
		records []promo.Record
		source  string
		ran     bool
	)
	err := s.lock.WithLock(ctx, refreshLockKey, refreshLockTTL, func(ctx context.Context) error {
		ran = true
		if cached, ok := s.cached(ctx); ok {
			records, source = cached, SourceCache
			return nil
		}
		loaded, err := s.load(ctx)
		if err != nil {
			return err
		}
		records, source = loaded, SourceDatabase
		return nil
	})
	if ran {
		return records, source, err
	}
	s.logger.Warn().Err(err).Msg("promotion_refresh_lock_failed")
	records, err = s.load(ctx)
	return records, SourceDatabase, err
}

func (s *Service) load(ctx context.Context) ([]promo.Record, error) {
	records, err := s.source.ListPromotions(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, snapshotKey, records); err != nil {
		s.logger.Warn().Err(err).Msg("promotion_cache_write_failed")
	}
	if err := s.cache.KeepJSON(ctx, lastKnownKey, records); err != nil {
		s.logger.Warn().Err(err).Msg("promotion_cache_write_failed")
	}
	return records, nil
}

// Products loads the requested products in request order, deduplicated.
func (s *Service) Products(ctx context.Context, ids []string) ([]promo.Product, error) {
	wanted := uniqueIDs(ids)
	if len(wanted) == 0 {
		return nil, common.NewAppError("BAD_REQUEST", "at least one product id is required", http.StatusBadRequest, nil)
	}
	if len(wanted) > maxProductBatch {
		return nil, common.NewAppError("BAD_REQUEST", "too many products requested", http.StatusBadRequest, nil)
	}
	found, err := s.source.ProductsByIDs(ctx, wanted)
	if err != nil {
		return nil, common.NewAppError("UNAVAILABLE", "product catalog unavailable", http.StatusServiceUnavailable, err)
	}
	byID := make(map[string]promo.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]promo.Product, 0, len(wanted))
	var missing []string
	for _, id := range wanted {
		p, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, p)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		appErr := common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, ErrProductNotFound)
		appErr.Details = map[string]any{"productIds": missing}
		return nil, appErr
	}
	return out, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
