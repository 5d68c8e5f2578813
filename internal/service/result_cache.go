package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ieltsgenai/prep-api/internal/dto"
	"github.com/ieltsgenai/prep-api/internal/models"
)

// ResultCache replays the stored assessment for an identical resubmission by the same caller.
type ResultCache interface {
	Get(ctx context.Context, key string) (dto.AssessmentResponse, bool)
	Set(ctx context.Context, key string, response dto.AssessmentResponse)
}

// TextDigest is the hex sha256 of a submission text.
func TextDigest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ResultCacheKey derives the cache key from the caller and everything that influences a score.
func ResultCacheKey(sub models.Submission, rubricVersion string, userID uint) string {
	material := fmt.Sprintf("%d|%s|%d|%s|%s", userID, sub.Type, sub.TaskNumber, rubricVersion, sub.Text)
	return "assessments:replay:v2:" + TextDigest(material)
}

type redisResultCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisResultCache returns a cache backed by redis, or nil when client is nil.
func NewRedisResultCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) ResultCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisResultCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "result_cache").Logger(),
	}
}

func (c *redisResultCache) Get(ctx context.Context, key string) (dto.AssessmentResponse, bool) {
	cached, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Msg("failed to read cached assessment")
		}
		return dto.AssessmentResponse{}, false
	}

	var response dto.AssessmentResponse
	if err := json.Unmarshal([]byte(cached), &response); err != nil || response.ID == "" {
		c.logger.Warn().Err(err).Msg("discarding malformed cached assessment")
		return dto.AssessmentResponse{}, false
	}
	return response, true
}

func (c *redisResultCache) Set(ctx context.Context, key string, response dto.AssessmentResponse) {
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to cache assessment")
	}
}
