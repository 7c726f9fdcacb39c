package classroom_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/STPREETHI/learning-portal/core"
	"github.com/STPREETHI/learning-portal/core/classroom"
	"github.com/STPREETHI/learning-portal/core/user"
	emailsvc "github.com/STPREETHI/learning-portal/services/email"
	logsvc "github.com/STPREETHI/learning-portal/services/logger"
	inmemdb "github.com/STPREETHI/learning-portal/storage/database/inmem"
)

type fixture struct {
	ctx    context.Context
	usrSvc user.Service
	svc    classroom.Service
	repo   classroom.Repository
	tutor  user.User
	other  user.User
	ward   user.User
	ward2  user.User
}

var physicsQuiz = classroom.NewQuiz{
	Title: "Kinematics",
	Questions: []classroom.Question{
		{Question: "Unit of force?", Options: []string{"Newton", "Joule", "Watt", "Pascal"}, CorrectAnswer: "Newton"},
		{Question: "Unit of energy?", Options: []string{"Newton", "Joule", "Watt", "Pascal"}, CorrectAnswer: "Joule"},
		{Question: "Unit of power?", Options: []string{"Newton", "Joule", "Watt", "Pascal"}, CorrectAnswer: "Watt"},
	},
}

func newFixture(t *testing.T, opts classroom.Options) *fixture {
	t.Helper()
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "", 0), conf)
	core.ParseEmailTemplates(conf, logger)

	db := inmemdb.Open()
	usrSvc := user.NewService(inmemdb.NewUserRepository(db))
	repo := inmemdb.NewClassroomRepository(db)
	svc := classroom.NewService(
		repo,
		usrSvc,
		emailsvc.NewConsoleServiceMock(conf),
		logger,
		opts,
	)

	f := &fixture{ctx: context.Background(), usrSvc: usrSvc, svc: svc, repo: repo}
	f.tutor = f.createUser(t, "Ms Curie", "curie@example.com", user.RoleTutor)
	f.other = f.createUser(t, "Mr Bohr", "", user.RoleTutor)
	f.ward = f.createUser(t, "Alice", "alice@example.com", user.RoleWard)
	f.ward2 = f.createUser(t, "Bob", "", user.RoleWard)
	emailsvc.ClearSentMessages()
	return f
}

func (f *fixture) createUser(t *testing.T, name, email, role string) user.User {
	usr, err := f.usrSvc.Create(f.ctx, user.NewUser{Name: name, Email: email, Password: "Pa$$w0rd!", Role: role})
	require.NoError(t, err)
	return usr
}

// enrolledClassroom creates a classroom owned by the tutor with ward & ward2 enrolled.
func (f *fixture) enrolledClassroom(t *testing.T) classroom.Classroom {
	c, err := f.svc.Create(f.ctx, f.tutor, classroom.NewClassroom{Name: "Physics", Description: "Mechanics"})
	require.NoError(t, err)
	for _, w := range []user.User{f.ward, f.ward2} {
		_, err = f.svc.RequestJoin(f.ctx, w, c.Code)
		require.NoError(t, err)
		c, err = f.svc.ApproveJoin(f.ctx, f.tutor, c.ID, w.ID)
		require.NoError(t, err)
	}
	return c
}

func TestService_Create(t *testing.T) {
	f := newFixture(t, classroom.Options{})

	c, err := f.svc.Create(f.ctx, f.tutor, classroom.NewClassroom{Name: "Physics", Description: "Mechanics"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Regexp(t, `^[A-Z0-9]{6}$`, c.Code)
	assert.Equal(t, f.tutor.ID, c.TutorID)
	assert.Empty(t, c.WardIDs)
	assert.Empty(t, c.JoinRequests)
	assert.Equal(t, "Physics Course", c.Course.Title)
	assert.Equal(t, "Syllabus for Physics", c.Course.Description)
	assert.Empty(t, c.Course.Syllabus)

	_, err = f.svc.Create(f.ctx, f.ward, classroom.NewClassroom{Name: "Nope", Description: "Nope"})
	assert.Equal(t, classroom.ErrForbidden, err)
}

func TestService_Create_codeCollision(t *testing.T) {
	f := newFixture(t, classroom.Options{CodeAttempts: 3})
	origGenerateCode := classroom.GenerateCode
	defer func() { classroom.GenerateCode = origGenerateCode }()

	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	classroom.GenerateCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	c1, err := f.svc.Create(f.ctx, f.tutor, classroom.NewClassroom{Name: "One", Description: "One"})
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", c1.Code)

	c2, err := f.svc.Create(f.ctx, f.tutor, classroom.NewClassroom{Name: "Two", Description: "Two"})
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", c2.Code)

	classroom.GenerateCode = func() (string, error) { return "AAAAAA", nil }
	_, err = f.svc.Create(f.ctx, f.tutor, classroom.NewClassroom{Name: "Three", Description: "Three"})
	assert.Equal(t, classroom.ErrCodeExhausted, err)
}

func TestService_RequestJoin(t *testing.T) {
	f := newFixture(t, classroom.Options{})
	c, err := f.svc.Create(f.ctx, f.tutor, classroom.NewClassroom{Name: "Physics", Description: "Mechanics"})
	require.NoError(t, err)

	_, err = f.svc.RequestJoin(f.ctx, f.ward, "ZZZZZZ")
	assert.Equal(t, classroom.ErrNotFound, err)

	_, err = f.svc.RequestJoin(f.ctx, f.other, c.Code)
	assert.Equal(t, classroom.ErrForbidden, err)

	c, err = f.svc.RequestJoin(f.ctx, f.ward, c.Code)
	require.NoError(t, err)
	assert.Equal(t, []string{f.ward.ID}, c.JoinRequests)
	assert.Empty(t, c.WardIDs)

	// the tutor is notified
	require.Len(t, emailsvc.SentMessages, 1)
	msg := emailsvc.SentMessages[0]
	assert.Equal(t, "curie@example.com", msg.To[0].Address)
	assert.Contains(t, msg.TextContent, "Alice asked to join your classroom \"Physics\"")

	_, err = f.svc.RequestJoin(f.ctx, f.ward, c.Code)
	assert.Equal(t, classroom.ErrAlreadyMember, err)

	c, err = f.svc.ApproveJoin(f.ctx, f.tutor, c.ID, f.ward.ID)
	require.NoError(t, err)
	_, err = f.svc.RequestJoin(f.ctx, f.ward, c.Code)
	assert.Equal(t, classroom.ErrAlreadyMember, err)
}

func TestService_ApproveJoin(t *testing.T) {
	f := newFixture(t, classroom.Options{})
	c, err := f.svc.Create(f.ctx, f.tutor, classroom.NewClassroom{Name: "Physics", Description: "Mechanics"})
	require.NoError(t, err)
	_, err = f.svc.RequestJoin(f.ctx, f.ward, c.Code)
	require.NoError(t, err)

	_, err = f.svc.ApproveJoin(f.ctx, f.tutor, "missing", f.ward.ID)
	assert.Equal(t, classroom.ErrNotFound, err)

	_, err = f.svc.ApproveJoin(f.ctx, f.other, c.ID, f.ward.ID)
	assert.Equal(t, classroom.ErrForbidden, err)

	// not pending: no-op
	c, err = f.svc.ApproveJoin(f.ctx, f.tutor, c.ID, f.ward2.ID)
	require.NoError(t, err)
	assert.Empty(t, c.WardIDs)
	assert.Equal(t, []string{f.ward.ID}, c.JoinRequests)

	c, err = f.svc.ApproveJoin(f.ctx, f.tutor, c.ID, f.ward.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.ward.ID}, c.WardIDs)
	assert.Empty(t, c.JoinRequests)

	// approving twice does not duplicate enrollment
	c, err = f.svc.ApproveJoin(f.ctx, f.tutor, c.ID, f.ward.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.ward.ID}, c.WardIDs)
}

func TestService_ApproveJoin_duplicatePending(t *testing.T) {
	f := newFixture(t, classroom.Options{})
	c, err := f.svc.Create(f.ctx, f.tutor, classroom.NewClassroom{Name: "Physics", Description: "Mechanics"})
	require.NoError(t, err)

	c.JoinRequests = []string{f.ward.ID, f.ward2.ID, f.ward.ID}
	_, err = f.repo.Save(f.ctx, c)
	require.NoError(t, err)

	c, err = f.svc.ApproveJoin(f.ctx, f.tutor, c.ID, f.ward.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.ward.ID}, c.WardIDs)
	assert.Equal(t, []string{f.ward2.ID}, c.JoinRequests)
	assert.False(t, c.IsPending(f.ward.ID))
}

func TestService_SubmitQuiz(t *testing.T) {
	f := newFixture(t, classroom.Options{})
	c := f.enrolledClassroom(t)

	c, err := f.svc.AddQuiz(f.ctx, f.tutor, c.ID, physicsQuiz)
	require.NoError(t, err)
	require.Len(t, c.Quizzes, 1)
	quiz := c.Quizzes[0]
	assert.NotEmpty(t, quiz.ID)
	assert.Empty(t, quiz.Submissions)

	_, err = f.svc.AddQuiz(f.ctx, f.other, c.ID, physicsQuiz)
	assert.Equal(t, classroom.ErrForbidden, err)

	_, err = f.svc.SubmitQuiz(f.ctx, f.ward, c.ID, "missing", classroom.QuizAttempt{Answers: []string{"Newton"}})
	assert.Equal(t, classroom.ErrQuizNotFound, err)

	_, err = f.svc.SubmitQuiz(f.ctx, f.tutor, c.ID, quiz.ID, classroom.QuizAttempt{Answers: []string{"Newton"}})
	assert.Equal(t, classroom.ErrNotEnrolled, err)

	c, err = f.svc.SubmitQuiz(f.ctx, f.ward, c.ID, quiz.ID, classroom.QuizAttempt{Answers: []string{"Newton", "Joule", "Newton"}})
	require.NoError(t, err)
	sub := c.Quizzes[0].Submissions[0]
	assert.Equal(t, f.ward.ID, sub.WardID)
	assert.Equal(t, 66.67, sub.Score)
	assert.Equal(t, 1, sub.Attempt)

	// attempts are numbered across wards
	c, err = f.svc.SubmitQuiz(f.ctx, f.ward2, c.ID, quiz.ID, classroom.QuizAttempt{Answers: []string{"Newton", "Joule", "Watt"}})
	require.NoError(t, err)
	sub = c.Quizzes[0].Submissions[1]
	assert.Equal(t, 100.0, sub.Score)
	assert.Equal(t, 2, sub.Attempt)

	// retakes are not refused by default
	c, err = f.svc.SubmitQuiz(f.ctx, f.ward, c.ID, quiz.ID, classroom.QuizAttempt{Answers: []string{}})
	require.NoError(t, err)
	sub = c.Quizzes[0].Submissions[2]
	assert.Equal(t, 0.0, sub.Score)
	assert.Equal(t, 3, sub.Attempt)
}

func TestService_SubmitQuiz_options(t *testing.T) {
	f := newFixture(t, classroom.Options{PerWardAttempts: true, EnforceRetakes: true})
	c := f.enrolledClassroom(t)

	retake := physicsQuiz
	retake.Title = "Retake"
	retake.RetakeAllowed = true

	c, err := f.svc.AddQuiz(f.ctx, f.tutor, c.ID, physicsQuiz)
	require.NoError(t, err)
	c, err = f.svc.AddQuiz(f.ctx, f.tutor, c.ID, retake)
	require.NoError(t, err)
	once, again := c.Quizzes[0], c.Quizzes[1]

	answers := classroom.QuizAttempt{Answers: []string{"Newton"}}
	_, err = f.svc.SubmitQuiz(f.ctx, f.ward, c.ID, once.ID, answers)
	require.NoError(t, err)
	c, err = f.svc.SubmitQuiz(f.ctx, f.ward2, c.ID, once.ID, answers)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Quizzes[0].Submissions[1].Attempt)
	assert.Equal(t, 33.33, c.Quizzes[0].Submissions[1].Score)

	_, err = f.svc.SubmitQuiz(f.ctx, f.ward, c.ID, once.ID, answers)
	assert.Equal(t, classroom.ErrRetakeNotAllowed, err)

	_, err = f.svc.SubmitQuiz(f.ctx, f.ward, c.ID, again.ID, answers)
	require.NoError(t, err)
	c, err = f.svc.SubmitQuiz(f.ctx, f.ward, c.ID, again.ID, answers)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Quizzes[1].Submissions[1].Attempt)
}

func TestService_Assignments(t *testing.T) {
	f := newFixture(t, classroom.Options{})
	c := f.enrolledClassroom(t)

	c, err := f.svc.AddAssignment(f.ctx, f.tutor, c.ID, classroom.NewAssignment{Title: "Lab report", Description: "Pendulum"})
	require.NoError(t, err)
	asgID := c.Assignments[0].ID

	_, err = f.svc.SubmitAssignment(f.ctx, f.ward, c.ID, "missing", classroom.AssignmentWork{Content: "x"})
	assert.Equal(t, classroom.ErrAssignmentNotFound, err)

	_, err = f.svc.GradeAssignment(f.ctx, f.tutor, c.ID, asgID, classroom.Grade{WardID: f.ward.ID, Grade: null.Float64From(90).Ptr()})
	assert.Equal(t, classroom.ErrSubmissionNotFound, err)

	c, err = f.svc.SubmitAssignment(f.ctx, f.ward, c.ID, asgID, classroom.AssignmentWork{Content: "v1"})
	require.NoError(t, err)
	sub := c.Assignments[0].Submissions[0]
	assert.Equal(t, "v1", sub.Content)
	assert.False(t, sub.Grade.Valid)
	assert.False(t, sub.Feedback.Valid)

	_, err = f.svc.GradeAssignment(f.ctx, f.other, c.ID, asgID, classroom.Grade{WardID: f.ward.ID, Grade: null.Float64From(90).Ptr()})
	assert.Equal(t, classroom.ErrForbidden, err)

	_, err = f.svc.GradeAssignment(f.ctx, f.tutor, c.ID, asgID, classroom.Grade{WardID: f.ward.ID, Grade: null.Float64From(101).Ptr()})
	_, isValidationErr := err.(*core.ValidationError)
	assert.True(t, isValidationErr)

	_, err = f.svc.GradeAssignment(f.ctx, f.tutor, c.ID, asgID, classroom.Grade{WardID: f.ward.ID})
	_, isValidationErr = err.(*core.ValidationError)
	assert.True(t, isValidationErr)

	emailsvc.ClearSentMessages()
	c, err = f.svc.GradeAssignment(f.ctx, f.tutor, c.ID, asgID, classroom.Grade{WardID: f.ward.ID, Grade: null.Float64From(90).Ptr(), Feedback: "Great"})
	require.NoError(t, err)
	sub = c.Assignments[0].Submissions[0]
	assert.Equal(t, 90.0, sub.Grade.Float64)
	assert.Equal(t, "Great", sub.Feedback.String)

	// the ward is notified
	require.Len(t, emailsvc.SentMessages, 1)
	assert.Equal(t, "alice@example.com", emailsvc.SentMessages[0].To[0].Address)
	assert.Contains(t, emailsvc.SentMessages[0].TextContent, "has been graded: 90/100")

	// resubmission keeps the grade
	c, err = f.svc.SubmitAssignment(f.ctx, f.ward, c.ID, asgID, classroom.AssignmentWork{Content: "v2"})
	require.NoError(t, err)
	require.Len(t, c.Assignments[0].Submissions, 1)
	sub = c.Assignments[0].Submissions[0]
	assert.Equal(t, "v2", sub.Content)
	assert.Equal(t, 90.0, sub.Grade.Float64)
	assert.Equal(t, "Great", sub.Feedback.String)
}

func TestService_RecordAttendance(t *testing.T) {
	f := newFixture(t, classroom.Options{})
	c := f.enrolledClassroom(t)

	_, err := f.svc.RecordAttendance(f.ctx, f.tutor, c.ID, classroom.Attendance{Date: "01/09/2024"})
	_, isValidationErr := err.(*core.ValidationError)
	assert.True(t, isValidationErr)

	_, err = f.svc.RecordAttendance(f.ctx, f.other, c.ID, classroom.Attendance{Date: "2024-09-01"})
	assert.Equal(t, classroom.ErrForbidden, err)

	c, err = f.svc.RecordAttendance(f.ctx, f.tutor, c.ID, classroom.Attendance{
		Date: "2024-09-01",
		Statuses: []classroom.AttendanceStatus{
			{WardID: f.ward.ID, Status: classroom.StatusPresent},
			{WardID: f.ward2.ID, Status: classroom.StatusAbsent},
		},
	})
	require.NoError(t, err)
	require.Len(t, c.Attendance, 1)
	assert.Len(t, c.Attendance[0].Statuses, 2)

	// same date replaces the whole status list
	c, err = f.svc.RecordAttendance(f.ctx, f.tutor, c.ID, classroom.Attendance{
		Date:     "2024-09-01",
		Statuses: []classroom.AttendanceStatus{{WardID: f.ward.ID, Status: classroom.StatusLate}},
	})
	require.NoError(t, err)
	require.Len(t, c.Attendance, 1)
	assert.Equal(t, []classroom.AttendanceStatus{{WardID: f.ward.ID, Status: classroom.StatusLate}}, c.Attendance[0].Statuses)

	c, err = f.svc.RecordAttendance(f.ctx, f.tutor, c.ID, classroom.Attendance{Date: "2024-09-02"})
	require.NoError(t, err)
	assert.Len(t, c.Attendance, 2)
}

func TestService_Syllabus(t *testing.T) {
	f := newFixture(t, classroom.Options{})
	c := f.enrolledClassroom(t)

	c, err := f.svc.AddSyllabusItem(f.ctx, f.tutor, c.ID, classroom.NewSyllabusItem{Topic: "Newton's laws"})
	require.NoError(t, err)
	require.Len(t, c.Course.Syllabus, 1)
	item := c.Course.Syllabus[0]
	assert.False(t, item.Completed)

	_, err = f.svc.SetSyllabusItemCompleted(f.ctx, f.tutor, c.ID, "missing", true)
	assert.Equal(t, classroom.ErrSyllabusItemNotFound, err)

	c, err = f.svc.SetSyllabusItemCompleted(f.ctx, f.tutor, c.ID, item.ID, true)
	require.NoError(t, err)
	assert.True(t, c.Course.Syllabus[0].Completed)
}

func TestService_GetAndQueryVisible(t *testing.T) {
	f := newFixture(t, classroom.Options{})
	c := f.enrolledClassroom(t)
	_, err := f.svc.Create(f.ctx, f.other, classroom.NewClassroom{Name: "Chemistry", Description: "Atoms"})
	require.NoError(t, err)

	got, err := f.svc.Get(f.ctx, f.ward, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	_, err = f.svc.Get(f.ctx, f.other, c.ID)
	assert.Equal(t, classroom.ErrForbidden, err)

	visible, err := f.svc.QueryVisible(f.ctx, f.tutor)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, c.ID, visible[0].ID)

	visible, err = f.svc.QueryVisible(f.ctx, f.ward)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, c.ID, visible[0].ID)
}

func TestService_LeaderboardAndAnalytics(t *testing.T) {
	f := newFixture(t, classroom.Options{})
	c := f.enrolledClassroom(t)
	c, err := f.svc.AddQuiz(f.ctx, f.tutor, c.ID, physicsQuiz)
	require.NoError(t, err)
	quizID := c.Quizzes[0].ID

	analytics, err := f.svc.QuizAnalytics(f.ctx, f.tutor, c.ID, quizID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, analytics.ParticipationRate)
	assert.Empty(t, analytics.HardestQuestions)

	_, err = f.svc.SubmitQuiz(f.ctx, f.ward, c.ID, quizID, classroom.QuizAttempt{Answers: []string{"Newton", "Joule", "Newton"}})
	require.NoError(t, err)
	_, err = f.svc.SubmitQuiz(f.ctx, f.ward, c.ID, quizID, classroom.QuizAttempt{Answers: []string{"Newton", "Joule", "Watt"}})
	require.NoError(t, err)

	board, err := f.svc.Leaderboard(f.ctx, f.ward2, c.ID, quizID)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, "Alice", board[0].WardName)
	assert.Equal(t, 100.0, board[0].Score)
	assert.Equal(t, 66.67, board[1].Score)

	_, err = f.svc.Leaderboard(f.ctx, f.other, c.ID, quizID)
	assert.Equal(t, classroom.ErrForbidden, err)

	analytics, err = f.svc.QuizAnalytics(f.ctx, f.tutor, c.ID, quizID)
	require.NoError(t, err)
	assert.Equal(t, 2, analytics.EnrolledCount)
	assert.Equal(t, 1, analytics.ParticipantCount)
	assert.Equal(t, 50.0, analytics.ParticipationRate)
	assert.Equal(t, 83.34, analytics.AverageScore)
	require.Len(t, analytics.HardestQuestions, 3)
	assert.Equal(t, "Unit of power?", analytics.HardestQuestions[0].Question)
	assert.Equal(t, 1, analytics.HardestQuestions[0].IncorrectCount)

	_, err = f.svc.QuizAnalytics(f.ctx, f.ward, c.ID, quizID)
	assert.Equal(t, classroom.ErrForbidden, err)
}

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		want    float64
	}{
		{name: "all correct", answers: []string{"Newton", "Joule", "Watt"}, want: 100},
		{name: "two thirds", answers: []string{"Newton", "Joule", "Pascal"}, want: 66.67},
		{name: "one third", answers: []string{"Newton"}, want: 33.33},
		{name: "none", answers: nil, want: 0},
		{name: "case sensitive", answers: []string{"newton", "joule", "watt"}, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classroom.ComputeScore(physicsQuiz.Questions, tc.answers))
		})
	}
}
