package schedules

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/constants"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
)

var poolRe = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,128}$`)

type Store struct {
	client redis.Cmdable
	now    func() time.Time
}

func NewStore(client redis.Cmdable) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Store{client: client, now: time.Now}, nil
}

func ValidatePool(pool string) error {
	if !poolRe.MatchString(pool) {
		return fmt.Errorf("invalid pool name")
	}
	return nil
}

// Upsert stores an override after checking the schedule is internally consistent.
func (s *Store) Upsert(ctx context.Context, pool string, schedule engine.FeeSchedule) (*Override, error) {
	if err := ValidatePool(pool); err != nil {
		return nil, err
	}
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schedule: %w", err)
	}

	o := &Override{Pool: pool, Schedule: schedule, UpdatedAt: s.now().UTC()}
	b, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("marshal override: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, overrideKey(pool), b, 0)
	pipe.SAdd(ctx, constants.RedisKeyScheduleIndex, pool)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("upsert override: %w", err)
	}

	return o, nil
}

func (s *Store) Get(ctx context.Context, pool string) (*Override, error) {
	if err := ValidatePool(pool); err != nil {
		return nil, err
	}

	val, err := s.client.Get(ctx, overrideKey(pool)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get override: %w", err)
	}

	var o Override
	if err := json.Unmarshal([]byte(val), &o); err != nil {
		return nil, fmt.Errorf("unmarshal override: %w", err)
	}
	return &o, nil
}

// Lookup returns just the schedule and whether an override exists.
func (s *Store) Lookup(ctx context.Context, pool string) (*engine.FeeSchedule, bool, error) {
	o, err := s.Get(ctx, pool)
	if err == ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &o.Schedule, true, nil
}

// List returns all overrides ordered by pool name.
func (s *Store) List(ctx context.Context) ([]*Override, error) {
	pools, err := s.client.SMembers(ctx, constants.RedisKeyScheduleIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("list overrides index: %w", err)
	}
	if len(pools) == 0 {
		return []*Override{}, nil
	}

	redisKeys := make([]string, 0, len(pools))
	for _, p := range pools {
		if err := ValidatePool(p); err != nil {
			continue
		}
		redisKeys = append(redisKeys, overrideKey(p))
	}
	if len(redisKeys) == 0 {
		return []*Override{}, nil
	}

	vals, err := s.client.MGet(ctx, redisKeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget overrides: %w", err)
	}

	out := make([]*Override, 0, len(vals))
	for _, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		var o Override
		if err := json.Unmarshal([]byte(s), &o); err != nil {
			continue
		}
		out = append(out, &o)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Pool < out[j].Pool })
	return out, nil
}

func (s *Store) Delete(ctx context.Context, pool string) error {
	if err := ValidatePool(pool); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, overrideKey(pool))
	pipe.SRem(ctx, constants.RedisKeyScheduleIndex, pool)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete override: %w", err)
	}

	return nil
}

func overrideKey(pool string) string {
	return constants.RedisKeySchedulePrefix + pool
}
