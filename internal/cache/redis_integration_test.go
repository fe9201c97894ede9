//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%d", host, port.Int())})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedis(t *testing.T) {
	client := startRedis(t)
	c := NewRedis(client, "it:")
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, SitemapKey, []byte("<urlset/>"), time.Minute))
	got, err := c.Get(ctx, SitemapKey)
	require.NoError(t, err)
	assert.Equal(t, "<urlset/>", string(got))

	raw, err := client.Get(ctx, "it:"+SitemapKey).Result()
	require.NoError(t, err)
	assert.Equal(t, "<urlset/>", raw)

	require.NoError(t, c.Set(ctx, OIDCStateKey("s1"), []byte("/dashboard"), time.Minute))
	got, err = c.Take(ctx, OIDCStateKey("s1"))
	require.NoError(t, err)
	assert.Equal(t, "/dashboard", string(got))
	_, err = c.Take(ctx, OIDCStateKey("s1"))
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Delete(ctx, SitemapKey))
	_, err = c.Get(ctx, SitemapKey)
	assert.ErrorIs(t, err, ErrMiss)
}
