// Package cachetest starts a throwaway Redis container for integration tests.
package cachetest

import (
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/p-n-ai/pai-literacy/internal/platform/cache"
	"github.com/p-n-ai/pai-literacy/internal/platform/config"
)

const image = "redis:7-alpine"

// New returns a cache connected to a fresh container. The test is skipped
// in -short mode or when no Docker provider is reachable.
func New(t *testing.T) *cache.Cache {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := t.Context()
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}

	endpoint, err := ctr.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("redis endpoint: %v", err)
	}

	c, err := cache.Open(ctx, config.CacheConfig{URL: "redis://" + endpoint})
	if err != nil {
		t.Fatalf("cache.Open() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}
