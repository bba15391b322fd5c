package submissionpipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/emmanuel-sarpedon/contact-form/internal/common/database"
	"github.com/emmanuel-sarpedon/contact-form/internal/models"
)

const defaultInFlightTTL = 2 * time.Minute

// RedisGuard shares form instance states between replicas through Redis.
// A key holds "dispatching" for at most inFlightTTL while an attempt runs,
// and "succeeded" for ttl once sealed.
type RedisGuard struct {
	client      *database.RedisClient
	prefix      string
	ttl         time.Duration
	inFlightTTL time.Duration
}

func NewRedisGuard(client *database.RedisClient, prefix string, ttl, inFlightTTL time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if inFlightTTL <= 0 {
		inFlightTTL = defaultInFlightTTL
	}
	return &RedisGuard{client: client, prefix: prefix, ttl: ttl, inFlightTTL: inFlightTTL}
}

func (g *RedisGuard) key(formID string) string {
	return g.prefix + formID
}

func (g *RedisGuard) Begin(ctx context.Context, formID string) (bool, models.SubmissionState, error) {
	key := g.key(formID)
	// Two rounds: the key may expire between a failed SETNX and the GET.
	for i := 0; i < 2; i++ {
		ok, err := g.client.SetNX(ctx, key, string(models.StateDispatching), g.inFlightTTL)
		if err != nil {
			return false, models.StateIdle, fmt.Errorf("acquire guard: %w", err)
		}
		if ok {
			return true, models.StateDispatching, nil
		}

		val, err := g.client.Get(ctx, key)
		if err != nil {
			return false, models.StateIdle, fmt.Errorf("read guard: %w", err)
		}
		if val != "" {
			return false, models.SubmissionState(val), nil
		}
	}
	return false, models.StateDispatching, nil
}

func (g *RedisGuard) Finish(ctx context.Context, formID string, outcome models.Outcome) error {
	key := g.key(formID)
	if outcome == models.OutcomeSucceeded {
		if err := g.client.Set(ctx, key, string(models.StateSucceeded), g.ttl); err != nil {
			return fmt.Errorf("seal guard: %w", err)
		}
		return nil
	}
	if err := g.client.Del(ctx, key); err != nil {
		return fmt.Errorf("release guard: %w", err)
	}
	return nil
}

func (g *RedisGuard) State(ctx context.Context, formID string) (models.SubmissionState, error) {
	val, err := g.client.Get(ctx, g.key(formID))
	if err != nil {
		return models.StateIdle, fmt.Errorf("read guard: %w", err)
	}
	if val == "" {
		return models.StateIdle, nil
	}
	return models.SubmissionState(val), nil
}

func (g *RedisGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx)
}
