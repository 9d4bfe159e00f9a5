package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/issue-composer/blocks"
	"github.com/amirphl/issue-composer/repository"
	"github.com/amirphl/issue-composer/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StyleProvider resolves publication styles from the database, cached in redis.
// A publication without stored styles gets the configured defaults.
type StyleProvider struct {
	repo      repository.PublicationStyleRepository
	rc        *redis.Client
	keyPrefix string
	ttl       time.Duration
	defaults  blocks.StyleOptions
	logger    *zap.Logger
}

// NewStyleProvider creates the provider; a nil redis client disables caching
func NewStyleProvider(
	repo repository.PublicationStyleRepository,
	rc *redis.Client,
	keyPrefix string,
	ttl time.Duration,
	defaults blocks.StyleOptions,
	logger *zap.Logger,
) *StyleProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StyleProvider{
		repo:      repo,
		rc:        rc,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		defaults:  defaults,
		logger:    logger,
	}
}

func (p *StyleProvider) cacheKey(publicationID uuid.UUID) string {
	return p.keyPrefix + utils.StyleCacheKeyPrefix + publicationID.String()
}

func (p *StyleProvider) StylesFor(ctx context.Context, publicationID uuid.UUID) (blocks.StyleOptions, error) {
	key := p.cacheKey(publicationID)
	if p.rc != nil {
		bs, err := p.rc.Get(ctx, key).Bytes()
		switch {
		case err == nil && len(bs) > 0:
			var cached blocks.StyleOptions
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		case err != nil && !errors.Is(err, redis.Nil):
			p.logger.Warn("Style cache read failed", zap.String("publication_id", publicationID.String()), zap.Error(err))
		}
	}

	row, err := p.repo.ByPublicationID(ctx, publicationID)
	if err != nil {
		return blocks.StyleOptions{}, fmt.Errorf("failed to load styles for publication %s: %w", publicationID, err)
	}
	styles := p.defaults
	if row != nil {
		styles = blocks.StyleOptions{
			PrimaryColor:   orDefault(row.PrimaryColor, p.defaults.PrimaryColor),
			SecondaryColor: orDefault(row.SecondaryColor, p.defaults.SecondaryColor),
			HeadingFont:    orDefault(row.HeadingFont, p.defaults.HeadingFont),
			BodyFont:       orDefault(row.BodyFont, p.defaults.BodyFont),
		}
	}

	if p.rc != nil {
		if bs, err := json.Marshal(styles); err == nil {
			if err := p.rc.Set(ctx, key, bs, p.ttl).Err(); err != nil {
				p.logger.Warn("Style cache write failed", zap.String("publication_id", publicationID.String()), zap.Error(err))
			}
		}
	}
	return styles, nil
}

// Invalidate drops the cached styles of a publication after they are edited
func (p *StyleProvider) Invalidate(ctx context.Context, publicationID uuid.UUID) error {
	if p.rc == nil {
		return nil
	}
	return p.rc.Del(ctx, p.cacheKey(publicationID)).Err()
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
