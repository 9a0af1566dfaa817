package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/selftest-api/internal/config"
)

func TestRedisOptions(t *testing.T) {
	t.Run("single from addr", func(t *testing.T) {
		opts, err := RedisOptions(config.RedisConfig{Addr: "localhost:6379", DB: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"localhost:6379"}, opts.Addrs)
		assert.Equal(t, 2, opts.DB)
	})

	t.Run("single keeps first of addrs", func(t *testing.T) {
		opts, err := RedisOptions(config.RedisConfig{Mode: "single", Addrs: []string{"a:1", "b:2"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"a:1"}, opts.Addrs)
	})

	t.Run("cluster", func(t *testing.T) {
		opts, err := RedisOptions(config.RedisConfig{Mode: "cluster", Addrs: []string{"a:1", "b:2"}, MinRetryBackoff: 10})
		require.NoError(t, err)
		assert.Len(t, opts.Addrs, 2)
		assert.Equal(t, 10*time.Millisecond, opts.MinRetryBackoff)
	})

	t.Run("sentinel requires master", func(t *testing.T) {
		_, err := RedisOptions(config.RedisConfig{Mode: "sentinel", Addrs: []string{"a:1"}})
		assert.Error(t, err)

		opts, err := RedisOptions(config.RedisConfig{Mode: "sentinel", Addrs: []string{"a:1"}, MasterName: "mymaster"})
		require.NoError(t, err)
		assert.Equal(t, "mymaster", opts.MasterName)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := RedisOptions(config.RedisConfig{})
		assert.Error(t, err)

		_, err = RedisOptions(config.RedisConfig{Mode: "ring", Addr: "a:1"})
		assert.Error(t, err)
	})
}
