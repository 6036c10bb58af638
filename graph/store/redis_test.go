package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniredisStore(t *testing.T, opts ...RedisOption) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStoreFromClient(client, opts...)
}

func TestRedisStore(t *testing.T) {
	testStoreContract(t, newMiniredisStore(t))
}

func TestRedisStoreKeyPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	st := NewRedisStoreFromClient(client, WithPrefix("custom:"))
	if err := st.Put(context.Background(), "t1", sampleCheckpoint(1)); err != nil {
		t.Fatalf("put: %v", err)
	}

	if !mr.Exists("custom:t1") {
		t.Errorf("expected key custom:t1, have %v", mr.Keys())
	}
}

func TestRedisStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	st := NewRedisStoreFromClient(client, WithTTL(time.Minute))
	if err := st.Put(context.Background(), "t1", sampleCheckpoint(1)); err != nil {
		t.Fatalf("put: %v", err)
	}

	if ttl := mr.TTL("flowgraph:checkpoint:t1"); ttl != time.Minute {
		t.Errorf("expected 1m TTL, got %v", ttl)
	}

	// past the TTL the checkpoint is gone
	mr.FastForward(2 * time.Minute)
	if _, err := st.Get(context.Background(), "t1"); err == nil {
		t.Error("expected expired checkpoint to be missing")
	}
}
