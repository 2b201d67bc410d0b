package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreadability/coreadability-api/internal/config"
)

func TestRedisOptions(t *testing.T) {
	t.Run("single uses addr", func(t *testing.T) {
		opts, err := RedisOptions(config.RedisConfig{Addr: "localhost:6379", DB: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"localhost:6379"}, opts.Addrs)
		assert.Equal(t, 2, opts.DB)
		assert.Empty(t, opts.MasterName)
	})

	t.Run("single keeps first of addrs", func(t *testing.T) {
		opts, err := RedisOptions(config.RedisConfig{Mode: "single", Addrs: []string{"a:1", "b:2"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"a:1"}, opts.Addrs)
	})

	t.Run("sentinel needs master", func(t *testing.T) {
		_, err := RedisOptions(config.RedisConfig{Mode: "sentinel", Addrs: []string{"s:26379"}})
		require.Error(t, err)

		opts, err := RedisOptions(config.RedisConfig{Mode: "sentinel", Addrs: []string{"s:26379"}, MasterName: "mymaster"})
		require.NoError(t, err)
		assert.Equal(t, "mymaster", opts.MasterName)
	})

	t.Run("cluster keeps every address", func(t *testing.T) {
		opts, err := RedisOptions(config.RedisConfig{Mode: "cluster", Addrs: []string{"a:1", "b:2", "c:3"}, MinRetryBackoff: 8})
		require.NoError(t, err)
		assert.Len(t, opts.Addrs, 3)
		assert.Equal(t, int64(8), opts.MinRetryBackoff.Milliseconds())
	})

	t.Run("errors", func(t *testing.T) {
		_, err := RedisOptions(config.RedisConfig{})
		assert.Error(t, err)
		_, err = RedisOptions(config.RedisConfig{Mode: "ring", Addr: "x:1"})
		assert.Error(t, err)
	})
}
