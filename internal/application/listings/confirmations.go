package listings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	ConfirmationTTL   = 5 * time.Minute
	confirmPrefix     = "delete_confirm:"
	confirmUserPrefix = "delete_confirm_user:"
)

var ErrConfirmationInvalid = errors.New("Delete confirmation is missing, expired or already used")

// Confirmations issues and consumes one-time delete confirmation tokens.
type Confirmations interface {
	Issue(ctx context.Context, userID string, listingID uuid.UUID) (string, error)
	// Consume returns ErrConfirmationInvalid unless token was issued to userID for listingID.
	// Only a matching call spends the token.
	Consume(ctx context.Context, userID string, listingID uuid.UUID, token string) error
	RevokeUser(ctx context.Context, userID string) error
}

// RedisConfirmations keeps tokens in Redis with a TTL.
type RedisConfirmations struct {
	Rdb *redis.Client
	TTL time.Duration
}

func NewRedisConfirmations(rdb *redis.Client) *RedisConfirmations {
	return &RedisConfirmations{Rdb: rdb, TTL: ConfirmationTTL}
}

func confirmValue(userID string, listingID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", userID, listingID)
}

func (r *RedisConfirmations) Issue(ctx context.Context, userID string, listingID uuid.UUID) (string, error) {
	token := uuid.New().String()
	pipe := r.Rdb.TxPipeline()
	pipe.Set(ctx, confirmPrefix+token, confirmValue(userID, listingID), r.TTL)
	pipe.SAdd(ctx, confirmUserPrefix+userID, token)
	pipe.Expire(ctx, confirmUserPrefix+userID, r.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return token, nil
}

func (r *RedisConfirmations) Consume(ctx context.Context, userID string, listingID uuid.UUID, token string) error {
	if token == "" {
		return ErrConfirmationInvalid
	}
	key := confirmPrefix + token
	err := r.Rdb.Watch(ctx, func(tx *redis.Tx) error {
		v, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) || (err == nil && v != confirmValue(userID, listingID)) {
			return ErrConfirmationInvalid
		}
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, confirmUserPrefix+userID, token)
			return nil
		})
		return err
	}, key)
	// a concurrent Consume spent it first
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConfirmationInvalid
	}
	return err
}

// RevokeUser drops every pending token issued to userID.
func (r *RedisConfirmations) RevokeUser(ctx context.Context, userID string) error {
	setKey := confirmUserPrefix + userID
	tokens, err := r.Rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, confirmPrefix+t)
	}
	keys = append(keys, setKey)
	return r.Rdb.Del(ctx, keys...).Err()
}
