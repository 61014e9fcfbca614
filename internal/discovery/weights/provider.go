package weights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"worker-discovery/internal/common/logger"
	"worker-discovery/internal/common/metrics"
	"worker-discovery/internal/discovery/ranking"

	"github.com/redis/go-redis/v9"
)

// MarkerKey holds the version every replica should be serving. Whoever loads the
// active set from Postgres first publishes it here.
const MarkerKey = "ranking:weights:active"

// Reload outcomes.
const (
	OutcomeLoaded    = "loaded"
	OutcomeUnchanged = "unchanged"
	OutcomeInvalid   = "invalid"
	OutcomeFailed    = "failed"
)

type Provider struct {
	store     Store
	redis     *redis.Client
	holder    *ranking.Holder
	interval  time.Duration
	markerTTL time.Duration
	logger    logger.Logger
}

// NewProvider wires a store into holder. rdb may be nil, in which case every reload
// reads the active set from the store.
func NewProvider(store Store, rdb *redis.Client, holder *ranking.Holder, interval, markerTTL time.Duration, log logger.Logger) *Provider {
	return &Provider{
		store:     store,
		redis:     rdb,
		holder:    holder,
		interval:  interval,
		markerTTL: markerTTL,
		logger:    log.WithFields(map[string]interface{}{"component": "weights-provider"}),
	}
}

// Reload brings the holder up to date and reports whether the active config
// changed. A weight set that fails validation is rejected and the previous config
// stays active.
func (p *Provider) Reload(ctx context.Context) (bool, error) {
	current := p.holder.Version()

	cfg, fromMarker, err := p.fetch(ctx, current)
	if err != nil {
		metrics.WeightsReloads.WithLabelValues(OutcomeFailed).Inc()
		return false, err
	}
	if cfg == nil {
		metrics.WeightsReloads.WithLabelValues(OutcomeUnchanged).Inc()
		return false, nil
	}

	if cfg.Version == current {
		// An identical version is never re-applied, but the marker may need refreshing.
		if !fromMarker {
			p.publishMarker(ctx, cfg.Version)
		}
		metrics.WeightsReloads.WithLabelValues(OutcomeUnchanged).Inc()
		return false, nil
	}

	if err := p.holder.Store(*cfg); err != nil {
		metrics.WeightsReloads.WithLabelValues(OutcomeInvalid).Inc()
		p.logger.Error("rejected weight set", map[string]interface{}{
			"version": cfg.Version,
			"active":  current,
			"error":   err.Error(),
		})
		return false, fmt.Errorf("weight set %s: %w", cfg.Version, err)
	}
	if !fromMarker {
		p.publishMarker(ctx, cfg.Version)
	}

	metrics.WeightsReloads.WithLabelValues(OutcomeLoaded).Inc()
	metrics.SetActiveVersion(current, cfg.Version)
	p.logger.Info("weight set activated", map[string]interface{}{
		"version":  cfg.Version,
		"previous": current,
	})
	return true, nil
}

// fetch returns nil when the marker already names the active version.
func (p *Provider) fetch(ctx context.Context, current string) (*ranking.Config, bool, error) {
	if marker, ok := p.readMarker(ctx); ok {
		if marker == current {
			return nil, true, nil
		}
		cfg, err := p.store.Version(ctx, marker)
		if err == nil {
			return &cfg, true, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, true, fmt.Errorf("%w: %w", ErrLoadFailed, err)
		}
		p.logger.Warn("marker names an unknown weight set", map[string]interface{}{"version": marker})
	}

	cfg, err := p.store.Active(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return &cfg, false, nil
}

func (p *Provider) readMarker(ctx context.Context) (string, bool) {
	if p.redis == nil {
		return "", false
	}
	marker, err := p.redis.Get(ctx, MarkerKey).Result()
	switch {
	case err == nil:
		return marker, marker != ""
	case errors.Is(err, redis.Nil):
	default:
		p.logger.Warn("weight marker read failed", map[string]interface{}{"error": err.Error()})
	}
	return "", false
}

func (p *Provider) publishMarker(ctx context.Context, version string) {
	if p.redis == nil {
		return
	}
	if err := Announce(ctx, p.redis, version, p.markerTTL); err != nil {
		p.logger.Warn("weight marker write failed", map[string]interface{}{
			"version": version,
			"error":   err.Error(),
		})
	}
}

// Announce points MarkerKey at version so every replica switches to it on its next
// refresh instead of waiting for the previous marker to expire.
func Announce(ctx context.Context, rdb *redis.Client, version string, ttl time.Duration) error {
	if err := rdb.Set(ctx, MarkerKey, version, ttl).Err(); err != nil {
		return fmt.Errorf("announce weight set %s: %w", version, err)
	}
	return nil
}

// Start reloads immediately and then every interval until ctx is done. Reload
// errors are logged; the engine keeps ranking with the last valid config.
func (p *Provider) Start(ctx context.Context) {
	p.reloadAndLog(ctx)

	if p.interval <= 0 {
		return
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.reloadAndLog(ctx)
		}
	}
}

func (p *Provider) reloadAndLog(ctx context.Context) {
	if _, err := p.Reload(ctx); err != nil {
		p.logger.Error("weight reload failed", map[string]interface{}{
			"active": p.holder.Version(),
			"error":  err.Error(),
		})
	}
}
