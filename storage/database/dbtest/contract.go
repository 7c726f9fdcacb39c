// Package dbtest holds the behaviour every storage backend must share.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/STPREETHI/learning-portal/core/classroom"
	"github.com/STPREETHI/learning-portal/core/user"
)

// Repositories returns fresh, empty repositories sharing one store.
type Repositories func(t *testing.T) (user.Repository, classroom.Repository)

func newUser(name, role string) user.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return user.User{Name: name, Role: role, PasswordHash: []byte("hash"), CreatedAt: now, UpdatedAt: now}
}

func newClassroom(tutorID, code string, createdAt time.Time) classroom.Classroom {
	return classroom.Classroom{
		ID:           uuid.New().String(),
		Name:         "Physics",
		Description:  "Mechanics",
		TutorID:      tutorID,
		WardIDs:      []string{},
		JoinRequests: []string{},
		Code:         code,
		Course:       classroom.Course{ID: uuid.New().String(), Title: "Physics Course", Syllabus: []classroom.SyllabusItem{}},
		Quizzes:      []classroom.Quiz{},
		Assignments:  []classroom.Assignment{},
		Attendance:   []classroom.AttendanceRecord{},
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

// RunUserRepositoryTests checks a user.Repository implementation.
func RunUserRepositoryTests(t *testing.T, newRepos Repositories) {
	ctx := context.Background()

	t.Run("create & get", func(t *testing.T) {
		repo, _ := newRepos(t)
		created, err := repo.CreateUser(ctx, newUser("Ada", user.RoleTutor))
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)

		got, err := repo.GetUser(ctx, user.GetFilter{ID: created.ID})
		require.NoError(t, err)
		assert.Equal(t, "Ada", got.Name)
		assert.Equal(t, []byte("hash"), got.PasswordHash)

		got, err = repo.GetUser(ctx, user.GetFilter{Name: "Ada"})
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)

		_, err = repo.GetUser(ctx, user.GetFilter{Name: "Nobody"})
		assert.Equal(t, user.ErrNotFound, err)

		_, err = repo.CreateUser(ctx, newUser("Ada", user.RoleWard))
		assert.Equal(t, user.ErrNameExists, err)
	})

	t.Run("name uniqueness", func(t *testing.T) {
		repo, _ := newRepos(t)
		ada, err := repo.CreateUser(ctx, newUser("Ada", user.RoleTutor))
		require.NoError(t, err)

		assert.Equal(t, user.ErrNameExists, repo.CheckNameUniqueness(ctx, "Ada"))
		assert.NoError(t, repo.CheckNameUniqueness(ctx, "Ada", ada))
		assert.NoError(t, repo.CheckNameUniqueness(ctx, "Grace"))
	})

	t.Run("query wards ordered by name", func(t *testing.T) {
		repo, _ := newRepos(t)
		for _, u := range []user.User{
			newUser("Zoe", user.RoleWard),
			newUser("Ms Curie", user.RoleTutor),
			newUser("Bob", user.RoleWard),
			newUser("Alice", user.RoleWard),
		} {
			_, err := repo.CreateUser(ctx, u)
			require.NoError(t, err)
		}

		wards, err := repo.QueryUsers(ctx, &user.QueryFilter{Role: user.RoleWard})
		require.NoError(t, err)
		names := make([]string, 0, len(wards))
		for _, w := range wards {
			names = append(names, w.Name)
		}
		assert.Equal(t, []string{"Alice", "Bob", "Zoe"}, names)

		some, err := repo.QueryUsers(ctx, &user.QueryFilter{Role: user.RoleWard, IDs: []string{wards[2].ID}})
		require.NoError(t, err)
		require.Len(t, some, 1)
		assert.Equal(t, "Zoe", some[0].Name)
	})

	t.Run("update", func(t *testing.T) {
		repo, _ := newRepos(t)
		usr, err := repo.CreateUser(ctx, newUser("Ada", user.RoleTutor))
		require.NoError(t, err)

		usr.Email = "ada@example.com"
		usr.PasswordHash = []byte("new-hash")
		usr.Role = user.RoleWard
		updated, err := repo.UpdateUser(ctx, usr)
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", updated.Email)
		assert.Equal(t, []byte("new-hash"), updated.PasswordHash)
		assert.Equal(t, user.RoleTutor, updated.Role)

		_, err = repo.UpdateUser(ctx, user.User{ID: uuid.New().String(), Name: "Ghost"})
		assert.Equal(t, user.ErrNotFound, err)
	})
}

// RunClassroomRepositoryTests checks a classroom.Repository implementation.
func RunClassroomRepositoryTests(t *testing.T, newRepos Repositories) {
	ctx := context.Background()

	setup := func(t *testing.T) (classroom.Repository, user.User, user.User) {
		usrRepo, repo := newRepos(t)
		tutor, err := usrRepo.CreateUser(ctx, newUser("Ms Curie", user.RoleTutor))
		require.NoError(t, err)
		ward, err := usrRepo.CreateUser(ctx, newUser("Alice", user.RoleWard))
		require.NoError(t, err)
		return repo, tutor, ward
	}

	t.Run("insert & find", func(t *testing.T) {
		repo, tutor, _ := setup(t)
		c := newClassroom(tutor.ID, "ABC123", time.Now().UTC().Truncate(time.Millisecond))
		created, err := repo.Insert(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, c.ID, created.ID)

		got, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "ABC123", got.Code)
		assert.Equal(t, "Physics Course", got.Course.Title)

		got, err = repo.FindByCode(ctx, "ABC123")
		require.NoError(t, err)
		assert.Equal(t, c.ID, got.ID)

		_, err = repo.FindByID(ctx, uuid.New().String())
		assert.Equal(t, classroom.ErrNotFound, err)
		_, err = repo.FindByCode(ctx, "ZZZZZZ")
		assert.Equal(t, classroom.ErrNotFound, err)

		exists, err := repo.CodeExists(ctx, "ABC123")
		require.NoError(t, err)
		assert.True(t, exists)
		exists, err = repo.CodeExists(ctx, "ZZZZZZ")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = repo.Insert(ctx, newClassroom(tutor.ID, "ABC123", time.Now().UTC()))
		assert.Equal(t, classroom.ErrCodeExists, err)
	})

	t.Run("save whole aggregate", func(t *testing.T) {
		repo, tutor, ward := setup(t)
		c, err := repo.Insert(ctx, newClassroom(tutor.ID, "SAVE01", time.Now().UTC().Truncate(time.Millisecond)))
		require.NoError(t, err)

		c.WardIDs = append(c.WardIDs, ward.ID)
		c.Assignments = append(c.Assignments, classroom.Assignment{
			ID:    uuid.New().String(),
			Title: "Lab report",
			Submissions: []classroom.AssignmentSubmission{
				{WardID: ward.ID, Content: "v1", Grade: null.Float64From(88.5), Feedback: null.StringFrom("Neat")},
			},
		})
		c.Quizzes = append(c.Quizzes, classroom.Quiz{
			ID:        uuid.New().String(),
			Title:     "Kinematics",
			Questions: []classroom.Question{{Question: "g?", Options: []string{"9.8", "1"}, CorrectAnswer: "9.8"}},
			Submissions: []classroom.WardSubmission{
				{WardID: ward.ID, Score: 100, Answers: []string{"9.8"}, Attempt: 1},
			},
		})
		saved, err := repo.Save(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, []string{ward.ID}, saved.WardIDs)

		got, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, got.Assignments, 1)
		sub := got.Assignments[0].Submissions[0]
		assert.Equal(t, 88.5, sub.Grade.Float64)
		assert.True(t, sub.Grade.Valid)
		assert.Equal(t, "Neat", sub.Feedback.String)
		require.Len(t, got.Quizzes, 1)
		assert.Equal(t, 100.0, got.Quizzes[0].Submissions[0].Score)

		_, err = repo.Save(ctx, newClassroom(tutor.ID, "NOPE00", time.Now().UTC()))
		assert.Equal(t, classroom.ErrNotFound, err)
	})

	t.Run("find by tutor & ward, most recent first", func(t *testing.T) {
		repo, tutor, ward := setup(t)
		now := time.Now().UTC().Truncate(time.Millisecond)

		older, err := repo.Insert(ctx, newClassroom(tutor.ID, "OLD001", now.Add(-time.Hour)))
		require.NoError(t, err)
		newer, err := repo.Insert(ctx, newClassroom(tutor.ID, "NEW001", now))
		require.NoError(t, err)

		byTutor, err := repo.FindByTutor(ctx, tutor.ID)
		require.NoError(t, err)
		require.Len(t, byTutor, 2)
		assert.Equal(t, newer.ID, byTutor[0].ID)
		assert.Equal(t, older.ID, byTutor[1].ID)

		byWard, err := repo.FindByWard(ctx, ward.ID)
		require.NoError(t, err)
		assert.Empty(t, byWard)

		older.WardIDs = []string{ward.ID}
		_, err = repo.Save(ctx, older)
		require.NoError(t, err)

		byWard, err = repo.FindByWard(ctx, ward.ID)
		require.NoError(t, err)
		require.Len(t, byWard, 1)
		assert.Equal(t, older.ID, byWard[0].ID)
	})
}
