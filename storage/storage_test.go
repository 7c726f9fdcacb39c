package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/STPREETHI/learning-portal/core"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		conf := core.NewTestConfig()
		repos, err := Open(ctx, conf)
		require.NoError(t, err)
		assert.NotNil(t, repos.Users)
		assert.NotNil(t, repos.Classrooms)
		assert.NoError(t, repos.Close(ctx))
	})

	t.Run("bolt", func(t *testing.T) {
		conf := core.NewTestConfig()
		conf.Database.Engine = EngineBolt
		conf.Database.Path = filepath.Join(t.TempDir(), "nested", "portal.db")
		repos, err := Open(ctx, conf)
		require.NoError(t, err)
		assert.NotNil(t, repos.Users)
		assert.NoError(t, repos.Close(ctx))
	})

	t.Run("unknown", func(t *testing.T) {
		conf := core.NewTestConfig()
		conf.Database.Engine = "cassandra"
		_, err := Open(ctx, conf)
		assert.EqualError(t, err, `unknown storage engine "cassandra"`)
	})
}
