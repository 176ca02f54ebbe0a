package redis

import (
	"context"
	"time"

	"github.com/DRSN-tech/storefront/pkg/clients"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/jimlawless/whereami"
)

const rateLimitPrefix = "throttle:"

// RateLimiterRepo пропускает не более одного запроса на ключ за interval.
// Ключ занимается через SET NX с TTL, поэтому лимит общий для всех инстансов.
type RateLimiterRepo struct {
	client   *clients.RedisClient
	prefix   string
	interval time.Duration
	logger   logger.Logger
}

func NewRateLimiterRepo(client *clients.RedisClient, scope string, interval time.Duration, logger logger.Logger) *RateLimiterRepo {
	return &RateLimiterRepo{
		client:   client,
		prefix:   rateLimitPrefix + scope + ":",
		interval: interval,
		logger:   logger,
	}
}

// Allow возвращает true, если ключ свободен. При недоступности Redis запрос пропускается.
func (l *RateLimiterRepo) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := l.client.Client.SetNX(ctx, l.prefix+key, 1, l.interval).Result()
	if err != nil {
		l.logger.Warnf("rate limiter unavailable, allowing request: %v", e.Wrap(whereami.WhereAmI(), err))
		return true, nil
	}

	return ok, nil
}
