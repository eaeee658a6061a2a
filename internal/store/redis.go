package store

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"strconv"
	"time"

	"burnote.share/internal/models"
	"github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

const (
	// ZSET of all ids scored by creation time, for newest-first listing.
	indexKey = "shares:index"
	// ZSET of expiring ids scored by expiry time, for the sweep.
	expiryKey = "shares:expiry"

	incrementRetries = 3
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(options *redis.Options) (*RedisStore, error) {
	client := redis.NewClient(options)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Save stores the record without a redis TTL. Expiry is enforced by the
// consumption gate and removal happens only through Delete or the sweep;
// letting redis evict the key would turn "expired" into "not found".
func (r *RedisStore) Save(ctx context.Context, share *models.Share) error {
	data, err := encode(share)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, shareKey(share.ID), data, 0)
		pipe.ZAdd(ctx, indexKey, redis.Z{
			Score:  float64(share.CreatedAt.UnixNano()),
			Member: share.ID,
		})
		if !share.ExpiresAt.IsZero() {
			pipe.ZAdd(ctx, expiryKey, redis.Z{
				Score:  float64(share.ExpiresAt.UnixNano()),
				Member: share.ID,
			})
		}
		return nil
	})
	return err
}

func (r *RedisStore) Get(ctx context.Context, id string) (*models.Share, error) {
	data, err := r.client.Get(ctx, shareKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decode(data)
}

// ConditionalIncrementView bumps the view counter only while the quota
// still has room. Optimistic WATCH transaction: concurrent writers on
// the same id force a retry, so two consumers can never both pass a
// maxViews=1 quota.
func (r *RedisStore) ConditionalIncrementView(ctx context.Context, id string) (int, error) {
	key := shareKey(id)
	var newCount int

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}

		share, err := decode(data)
		if err != nil {
			return err
		}

		if share.Exhausted() {
			return ErrQuotaExceeded
		}

		share.ViewCount++
		newCount = share.ViewCount

		newData, err := encode(share)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newData, 0)
			return nil
		})
		return err
	}

	for i := 0; i < incrementRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return newCount, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return 0, err
	}

	return 0, redis.TxFailedErr
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, shareKey(id))
		pipe.ZRem(ctx, indexKey, id)
		pipe.ZRem(ctx, expiryKey, id)
		return nil
	})
	if err != nil {
		return err
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpiredBefore removes every share whose expiry is at or before
// now. Ids are never reused and expiry times never move, so a member of
// the expiry set with a past score can only still be expired; each DEL
// is therefore already a "delete if still expired".
func (r *RedisStore) DeleteExpiredBefore(ctx context.Context, now time.Time) (int, error) {
	ids, err := r.client.ZRangeByScore(ctx, expiryKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixNano(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range ids {
		var del *redis.IntCmd
		_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			del = pipe.Del(ctx, shareKey(id))
			pipe.ZRem(ctx, indexKey, id)
			pipe.ZRem(ctx, expiryKey, id)
			return nil
		})
		if err != nil {
			return deleted, err
		}
		if del.Val() > 0 {
			deleted++
		}
	}
	return deleted, nil
}

func (r *RedisStore) ListAll(ctx context.Context) ([]*models.Share, error) {
	ids, err := r.client.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*models.Share{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = shareKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	shares := make([]*models.Share, 0, len(values))
	for _, val := range values {
		s, ok := val.(string)
		if !ok {
			// Index member whose record was deleted out from under it.
			continue
		}
		share, err := decode([]byte(s))
		if err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}
	return shares, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Helpers

func shareKey(id string) string {
	return "share:" + id
}

func encode(share *models.Share) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(share); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (*models.Share, error) {
	var share models.Share
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&share); err != nil {
		return nil, err
	}
	return &share, nil
}
