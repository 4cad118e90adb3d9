package listings

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ViewParamsTTL    = 24 * time.Hour
	viewParamsPrefix = "listing_params:"
)

// ParamsUpdate changes only the fields that are set.
type ParamsUpdate struct {
	SearchQuery    *string `json:"search_query"`
	FilterCategory *string `json:"filter_category"`
	SortOption     *string `json:"sort_option"`
}

// Apply returns p with u applied. Blank category and sort fall back to their defaults.
func (u ParamsUpdate) Apply(p Params) Params {
	if u.SearchQuery != nil {
		p.SearchQuery = *u.SearchQuery
	}
	if u.FilterCategory != nil {
		p.FilterCategory = *u.FilterCategory
	}
	if u.SortOption != nil {
		p.SortOption = *u.SortOption
	}
	return p.withDefaults()
}

func (p Params) withDefaults() Params {
	if p.FilterCategory == "" {
		p.FilterCategory = CategoryAll
	}
	if p.SortOption == "" {
		p.SortOption = SortLatest
	}
	return p
}

// ViewParamsStore keeps each user's browse params.
type ViewParamsStore interface {
	// Load returns DefaultParams when nothing is stored for userID.
	Load(ctx context.Context, userID string) (Params, error)
	Save(ctx context.Context, userID string, p Params) error
}

// RedisViewParams stores params as JSON under one key per user.
type RedisViewParams struct {
	Rdb *redis.Client
	TTL time.Duration
}

func NewRedisViewParams(rdb *redis.Client) *RedisViewParams {
	return &RedisViewParams{Rdb: rdb, TTL: ViewParamsTTL}
}

func (r *RedisViewParams) Load(ctx context.Context, userID string) (Params, error) {
	b, err := r.Rdb.Get(ctx, viewParamsPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return DefaultParams(), nil
	}
	if err != nil {
		return DefaultParams(), err
	}
	var p Params
	if err := json.Unmarshal(b, &p); err != nil {
		return DefaultParams(), err
	}
	return p.withDefaults(), nil
}

func (r *RedisViewParams) Save(ctx context.Context, userID string, p Params) error {
	b, err := json.Marshal(p.withDefaults())
	if err != nil {
		return err
	}
	return r.Rdb.Set(ctx, viewParamsPrefix+userID, b, r.TTL).Err()
}
