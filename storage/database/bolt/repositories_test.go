package boltrepos

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/STPREETHI/learning-portal/core/classroom"
	"github.com/STPREETHI/learning-portal/core/user"
	"github.com/STPREETHI/learning-portal/storage/database/dbtest"
)

func newRepos(t *testing.T) (user.Repository, classroom.Repository) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepository(db), NewClassroomRepository(db)
}

func TestUserRepository(t *testing.T) {
	dbtest.RunUserRepositoryTests(t, newRepos)
}

func TestClassroomRepository(t *testing.T) {
	dbtest.RunClassroomRepositoryTests(t, newRepos)
}

func TestClassroomRepository_FindByCode_closedDB(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	repo := NewClassroomRepository(db)
	require.NoError(t, db.Close())

	_, err = repo.FindByCode(context.Background(), "ABC123")
	assert.NotEqual(t, classroom.ErrNotFound, err)
	assert.Equal(t, bbolt.ErrDatabaseNotOpen, errors.Cause(err))
}
