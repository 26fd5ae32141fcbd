package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestOnceRunsOncePerKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	c := NewRedis(client, "notifier:schedule")
	ctx := context.Background()

	calls := 0
	fn := func() error { calls++; return nil }
	for i := 0; i < 3; i++ {
		if err := c.Once(ctx, "202503101200", time.Minute, fn); err != nil {
			t.Fatalf("once: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("ожидали один вызов, получили %d", calls)
	}
	if !mr.Exists("notifier:schedule:202503101200") {
		t.Fatalf("ключ должен создаваться с префиксом")
	}
}

func TestOnceReleasesKeyOnError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	c := NewRedis(client, "")
	ctx := context.Background()

	if err := c.Once(ctx, "slot", time.Minute, func() error { return errors.New("queue down") }); err == nil {
		t.Fatalf("ожидали ошибку")
	}
	calls := 0
	if err := c.Once(ctx, "slot", time.Minute, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Fatalf("после ошибки слот должен повторяться: %v %d", err, calls)
	}
}
