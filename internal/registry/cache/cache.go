// Package cache provides a Redis read-through cache for the fingerprint
// recovery lookup. The store stays the source of truth: cache failures
// degrade to a miss and mutations invalidate eagerly.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"blocktrust/internal/registry/models"
	id "blocktrust/pkg/domain"
)

const keyPrefix = "registry:fp:"

const defaultTTL = 5 * time.Minute

// entry is the wire form of a cached identity. Only the digest of the
// fingerprint ever reaches Redis, never raw biometric material.
type entry struct {
	ID             uint64    `json:"id"`
	Owner          string    `json:"owner"`
	Name           string    `json:"name"`
	DocumentNumber string    `json:"document_number"`
	BioHash        string    `json:"bio_hash"`
	KYCTimestamp   time.Time `json:"kyc_timestamp"`
	PreviousID     uint64    `json:"previous_id,omitempty"`
	ApplicantID    string    `json:"applicant_id"`
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures the RedisCache.
type Option func(*RedisCache)

// WithTTL overrides the default entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *RedisCache) {
		c.ttl = ttl
	}
}

// New creates a fingerprint cache backed by client.
func New(client *redis.Client, logger *slog.Logger, opts ...Option) *RedisCache {
	c := &RedisCache{
		client: client,
		ttl:    defaultTTL,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached identity for bioHash. Any Redis or decode failure is
// reported as a miss.
func (c *RedisCache) Get(ctx context.Context, bioHash id.BioHash) (models.Identity, bool) {
	raw, err := c.client.Get(ctx, keyPrefix+bioHash.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Identity{}, false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "fingerprint cache read failed", "error", err)
		return models.Identity{}, false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.logger.WarnContext(ctx, "fingerprint cache entry corrupt", "error", err)
		return models.Identity{}, false
	}
	identity, err := e.toIdentity()
	if err != nil {
		c.logger.WarnContext(ctx, "fingerprint cache entry corrupt", "error", err)
		return models.Identity{}, false
	}
	return identity, true
}

// Set caches an active identity under its fingerprint digest.
func (c *RedisCache) Set(ctx context.Context, identity models.Identity) {
	raw, err := json.Marshal(entry{
		ID:             uint64(identity.ID),
		Owner:          identity.Owner.String(),
		Name:           identity.Name,
		DocumentNumber: identity.DocumentNumber,
		BioHash:        identity.BioHash.String(),
		KYCTimestamp:   identity.KYCTimestamp,
		PreviousID:     uint64(identity.PreviousID),
		ApplicantID:    identity.ApplicantID,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "fingerprint cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, keyPrefix+identity.BioHash.String(), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "fingerprint cache write failed", "error", err)
	}
}

// Invalidate drops the entry for bioHash, if any.
func (c *RedisCache) Invalidate(ctx context.Context, bioHash id.BioHash) {
	if err := c.client.Del(ctx, keyPrefix+bioHash.String()).Err(); err != nil {
		c.logger.WarnContext(ctx, "fingerprint cache invalidation failed", "error", err)
	}
}

func (e entry) toIdentity() (models.Identity, error) {
	owner, err := id.ParseAccount(e.Owner)
	if err != nil {
		return models.Identity{}, err
	}
	bioHash, err := id.ParseBioHash(e.BioHash)
	if err != nil {
		return models.Identity{}, err
	}
	return models.Identity{
		ID:             id.TokenID(e.ID),
		Owner:          owner,
		Name:           e.Name,
		DocumentNumber: e.DocumentNumber,
		BioHash:        bioHash,
		KYCTimestamp:   e.KYCTimestamp,
		IsActive:       true,
		PreviousID:     id.TokenID(e.PreviousID),
		ApplicantID:    e.ApplicantID,
	}, nil
}
