package service

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Marrmee/spark-gate/core"
	"github.com/Marrmee/spark-gate/internal/metrics"
	"github.com/Marrmee/spark-gate/ports"
)

// RefreshService is the scheduled cache maintenance sweep. It scans each
// category's index list and evicts exactly the snapshots still in a
// non-terminal state, forcing the next read to recompute from the
// authoritative source. Terminal snapshots are immutable and stay cached.
//
// The sweep is idempotent and safe to run concurrently with itself and with
// in-flight reads repopulating the same keys; the worst outcome of those
// races is one extra cache miss, never a stale terminal read.
type RefreshService struct {
	cache  ports.Cache
	events ports.EventPublisher
	log    zerolog.Logger
}

// NewRefreshService creates a new cache refresher.
func NewRefreshService(cache ports.Cache, events ports.EventPublisher, log zerolog.Logger) *RefreshService {
	return &RefreshService{
		cache:  cache,
		events: events,
		log:    log,
	}
}

// Refresh sweeps every category in parallel. It is best-effort maintenance:
// failures are logged and the affected unit is skipped, never surfaced. A
// sweep that evicts nothing because of transient errors only leaves entries
// cached one cycle longer.
func (s *RefreshService) Refresh(ctx context.Context) {
	metrics.SweepRuns.Inc()

	g, ctx := errgroup.WithContext(ctx)
	for _, category := range core.Categories {
		g.Go(func() error {
			s.refreshCategory(ctx, category)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *RefreshService) refreshCategory(ctx context.Context, category core.ProposalCategory) {
	log := s.log.With().Str("category", string(category)).Logger()

	indices, err := s.cache.IndexList(ctx, category)
	if err != nil {
		metrics.SweepErrors.WithLabelValues(string(category)).Inc()
		log.Error().Err(err).Msg("failed to read index list, skipping category")
		return
	}
	if len(indices) == 0 {
		return
	}

	evicted := 0
	for _, index := range indices {
		snapshot, err := s.cache.Snapshot(ctx, category, index)
		if err != nil {
			metrics.SweepErrors.WithLabelValues(string(category)).Inc()
			log.Warn().Err(err).Int("index", index).Msg("failed to read snapshot, skipping")
			continue
		}
		if snapshot == nil {
			// nothing cached, nothing to evict
			continue
		}
		if snapshot.Status == "" {
			log.Warn().Int("index", index).Msg("snapshot has no status, skipping")
			continue
		}
		if snapshot.Status.Terminal() {
			continue
		}

		if err := s.cache.DeleteSnapshot(ctx, category, index); err != nil {
			metrics.SweepErrors.WithLabelValues(string(category)).Inc()
			log.Warn().Err(err).Int("index", index).Msg("failed to evict snapshot")
			continue
		}
		evicted++
	}

	metrics.SweepEvictions.WithLabelValues(string(category)).Add(float64(evicted))
	log.Info().Int("scanned", len(indices)).Int("evicted", evicted).Msg("cache sweep completed")

	if evicted > 0 && s.events != nil {
		if err := s.events.PublishEviction(ctx, category, evicted); err != nil {
			log.Warn().Err(err).Msg("failed to publish eviction event")
		}
	}
}
