package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type sample struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func TestNewRedisAcceptsURLAndAddr(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	for _, url := range []string{mr.Addr(), "redis://" + mr.Addr() + "/0"} {
		client, err := NewRedis(ctx, url)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", url, err)
		}
		_ = client.Close()
	}
}

func TestNewRedisPingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedis(context.Background(), addr); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestMarketCacheRoundTripAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewMarketCache(client, 5*time.Second, nil)
	ctx := context.Background()

	var got sample
	if c.Get(ctx, "binance", "price", "BTC/USDT", &got) {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(ctx, "binance", "price", "BTC/USDT", sample{Symbol: "BTC/USDT", Price: 65000})
	if !mr.Exists("market:binance:price:BTC/USDT") {
		t.Fatalf("expected namespaced key, got %v", mr.Keys())
	}
	if ttl := mr.TTL("market:binance:price:BTC/USDT"); ttl != 5*time.Second {
		t.Fatalf("expected 5s ttl, got %s", ttl)
	}

	if !c.Get(ctx, "binance", "price", "BTC/USDT", &got) {
		t.Fatal("expected hit")
	}
	if got.Price != 65000 {
		t.Fatalf("unexpected value: %+v", got)
	}

	mr.FastForward(6 * time.Second)
	if c.Get(ctx, "binance", "price", "BTC/USDT", &got) {
		t.Fatal("expected expiry")
	}
}

func TestMarketCacheCorruptValueIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	_ = mr.Set("market:binance:price:ETH/USDT", "not-json")
	c := NewMarketCache(client, time.Second, nil)

	var got sample
	if c.Get(context.Background(), "binance", "price", "ETH/USDT", &got) {
		t.Fatal("expected corrupt value to miss")
	}
}

func TestMarketCacheRedisDownIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	c := NewMarketCache(client, time.Second, nil)
	mr.Close()

	ctx := context.Background()
	c.Set(ctx, "binance", "price", "BTC/USDT", sample{Price: 1})
	var got sample
	if c.Get(ctx, "binance", "price", "BTC/USDT", &got) {
		t.Fatal("expected miss when redis is down")
	}
}
