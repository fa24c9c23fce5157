package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := Connect("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer c.Close()
	assert.NoError(t, c.Ping(context.Background()))

	_, err = Connect("::not a url")
	assert.Error(t, err)
}

func TestGetMissingKey(t *testing.T) {
	c, _ := newTestClient(t)
	v, err := c.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestSetNX(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "lock", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "lock", "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	exists, err := c.Exists(ctx, "lock")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "lf:job:abc", Key("job", "abc"))
	assert.Equal(t, "lf:inflight:logo:1", Key("inflight", "logo:1"))
	assert.Equal(t, "lf:", Key())
}
