package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/STPREETHI/learning-portal/core/ai"
	"github.com/STPREETHI/learning-portal/core/classroom"
	"github.com/STPREETHI/learning-portal/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateClassroom stores a classroom owned by tutor, with the given wards already enrolled.
func CreateClassroom(
	t *testing.T,
	repo classroom.Repository,
	tutor user.User,
	name, code string,
	wards ...user.User,
) classroom.Classroom {
	now := time.Now().UTC()
	c := classroom.Classroom{
		ID:           uuid.NewString(),
		Name:         name,
		Description:  name + " classroom",
		TutorID:      tutor.ID,
		WardIDs:      []string{},
		JoinRequests: []string{},
		Code:         code,
		Course: classroom.Course{
			ID:          uuid.NewString(),
			Title:       name + " Course",
			Description: "Syllabus for " + name,
			Syllabus:    []classroom.SyllabusItem{},
		},
		Quizzes:     []classroom.Quiz{},
		Assignments: []classroom.Assignment{},
		Attendance:  []classroom.AttendanceRecord{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, w := range wards {
		c.WardIDs = append(c.WardIDs, w.ID)
	}
	c, err := repo.Insert(context.Background(), c)
	if err != nil {
		t.Fatalf("CreateClassroom() failed: %v", err)
	}
	return c
}

// FakeGenerator is an ai.TextGenerator answering with canned text, or Err when set.
type FakeGenerator struct {
	JSON       string
	Text       string
	Err        error
	LastPrompt string
}

var _ ai.TextGenerator = (*FakeGenerator)(nil)

func (g *FakeGenerator) GenerateJSON(_ context.Context, prompt string, _ *ai.Schema) (string, error) {
	g.LastPrompt = prompt
	return g.JSON, g.Err
}

func (g *FakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.LastPrompt = prompt
	return g.Text, g.Err
}
