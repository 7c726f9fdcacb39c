package mongorepos

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/STPREETHI/learning-portal/core"
	"github.com/STPREETHI/learning-portal/core/classroom"
	"github.com/STPREETHI/learning-portal/core/user"
	"github.com/STPREETHI/learning-portal/storage/database/dbtest"
)

// newRepos needs a reachable mongo at TEST_MONGO_URI.
func newRepos(t *testing.T) (user.Repository, classroom.Repository) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	conf := core.NewTestConfig()
	conf.Database.URI = uri
	conf.Database.Name = "learning_portal_test"

	db, err := Open(ctx, conf)
	require.NoError(t, err)
	require.NoError(t, db.Drop(ctx))
	require.NoError(t, ensureIndexes(ctx, db))
	t.Cleanup(func() { _ = Close(ctx, db) })
	return NewUserRepository(db), NewClassroomRepository(db)
}

func TestUserRepository(t *testing.T) {
	dbtest.RunUserRepositoryTests(t, newRepos)
}

func TestClassroomRepository(t *testing.T) {
	dbtest.RunClassroomRepositoryTests(t, newRepos)
}
