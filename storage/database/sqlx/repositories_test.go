package sqlxrepos

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/STPREETHI/learning-portal/core"
	"github.com/STPREETHI/learning-portal/core/classroom"
	"github.com/STPREETHI/learning-portal/core/user"
	"github.com/STPREETHI/learning-portal/storage/database"
	"github.com/STPREETHI/learning-portal/storage/database/dbtest"
)

// newRepos needs a reachable postgres, configured through the usual DATABASE_* variables.
func newRepos(t *testing.T) (user.Repository, classroom.Repository) {
	if os.Getenv("TEST_POSTGRES") == "" {
		t.Skip("TEST_POSTGRES not set")
	}
	conf := core.NewConfig()
	require.NoError(t, database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db.DB))
	_, err = db.Exec(`TRUNCATE classroom, "user"`)
	require.NoError(t, err)
	return NewUserRepository(db), NewClassroomRepository(db)
}

func TestUserRepository(t *testing.T) {
	dbtest.RunUserRepositoryTests(t, newRepos)
}

func TestClassroomRepository(t *testing.T) {
	dbtest.RunClassroomRepositoryTests(t, newRepos)
}
