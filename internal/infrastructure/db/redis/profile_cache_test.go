package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hourbook/volunteer-api/internal/core/domain"
	"github.com/hourbook/volunteer-api/internal/core/ports"
)

type countingFetcher struct {
	calls int
	err   error
}

func (f *countingFetcher) FetchProfile(_ context.Context, subjectID string) (*ports.Profile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &ports.Profile{SubjectID: subjectID, PrimaryEmail: "a@x.com", FirstName: "Ada", OEN: "123"}, nil
}

func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestProfileCache_FailsOpenWhenRedisIsDown(t *testing.T) {
	next := &countingFetcher{}
	cache := NewProfileCache(unreachableClient(t), next, time.Minute, zerolog.Nop())

	for i := 0; i < 2; i++ {
		p, err := cache.FetchProfile(context.Background(), "ext-1")
		if err != nil {
			t.Fatalf("FetchProfile: %v", err)
		}
		if p.PrimaryEmail != "a@x.com" {
			t.Fatalf("unexpected profile: %+v", p)
		}
	}
	if next.calls != 2 {
		t.Fatalf("expected every call to reach the provider, got %d", next.calls)
	}
}

func TestProfileCache_ProviderErrorPassesThrough(t *testing.T) {
	rejected := fmt.Errorf("%w: unknown subject", domain.ErrUnauthenticated)
	cache := NewProfileCache(unreachableClient(t), &countingFetcher{err: rejected}, time.Minute, zerolog.Nop())

	if _, err := cache.FetchProfile(context.Background(), "ext-1"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestProfileCache_Integration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client, err := Connect(context.Background(), Config{Addr: addr})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	next := &countingFetcher{}
	cache := NewProfileCache(client, next, time.Minute, zerolog.Nop())
	subject := "ext-" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), profileKeyPrefix+subject) })

	first, err := cache.FetchProfile(context.Background(), subject)
	if err != nil {
		t.Fatalf("first FetchProfile: %v", err)
	}
	second, err := cache.FetchProfile(context.Background(), subject)
	if err != nil {
		t.Fatalf("second FetchProfile: %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("expected one provider call, got %d", next.calls)
	}
	if *first != *second {
		t.Fatalf("cached profile differs: %+v vs %+v", first, second)
	}
}

func TestPing_Unreachable(t *testing.T) {
	if err := Ping(context.Background(), unreachableClient(t), 100*time.Millisecond); err == nil {
		t.Fatal("expected ping to fail")
	}
}
