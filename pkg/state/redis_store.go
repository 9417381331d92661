package state

import (
	"context"
	"errors"
	"log"

	"github.com/bytedance/sonic"
	"github.com/matst80/slask-crossfilter/pkg/types"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the shared selection as a JSON array under Key and
// publishes the new value on Channel after every Save, so every dashboard
// instance sharing the key can refresh its views.
type RedisStore struct {
	Key     string
	Channel string
	client  *redis.Client
}

func NewRedisStore(addr, password string, db int, key string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{
		Key:     key,
		Channel: key + ":changed",
		client:  rdb,
	}
}

func (s *RedisStore) Load(ctx context.Context) (types.IdSet, error) {
	data, err := s.client.Get(ctx, s.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.IdSet{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeIds(data)
}

func (s *RedisStore) Save(ctx context.Context, ids types.IdSet) error {
	data, err := sonic.Marshal(ids.Values())
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.Key, data, 0)
		pipe.Publish(ctx, s.Channel, data)
		return nil
	})
	return err
}

// Init stores ids unless the key already holds a selection. It reports
// whether the value was written.
func (s *RedisStore) Init(ctx context.Context, ids types.IdSet) (bool, error) {
	data, err := sonic.Marshal(ids.Values())
	if err != nil {
		return false, err
	}
	return s.client.SetNX(ctx, s.Key, data, 0).Result()
}

// Subscribe calls fn with every selection published on Channel until ctx is
// done.
func (s *RedisStore) Subscribe(ctx context.Context, fn Listener) error {
	sub := s.client.Subscribe(ctx, s.Channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return err
	}
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ids, err := decodeIds([]byte(msg.Payload))
				if err != nil {
					log.Printf("invalid selection on %s: %v", s.Channel, err)
					continue
				}
				fn(ids)
			}
		}
	}()
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decodeIds(data []byte) (types.IdSet, error) {
	values := make([]string, 0)
	if err := sonic.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return types.NewIdSet(values...), nil
}
