package tests

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	. "github.com/STPREETHI/learning-portal/apps/api/echo"
	"github.com/STPREETHI/learning-portal/core/classroom"
	"github.com/STPREETHI/learning-portal/core/user"
	emailsvc "github.com/STPREETHI/learning-portal/services/email"
	testutil "github.com/STPREETHI/learning-portal/tests"
)

var kinematics = classroom.NewQuiz{
	Title: "Kinematics",
	Questions: []classroom.Question{
		{Question: "Unit of force?", Options: []string{"Newton", "Joule", "Watt", "Pascal"}, CorrectAnswer: "Newton"},
		{Question: "Unit of energy?", Options: []string{"Newton", "Joule", "Watt", "Pascal"}, CorrectAnswer: "Joule"},
		{Question: "Unit of power?", Options: []string{"Newton", "Joule", "Watt", "Pascal"}, CorrectAnswer: "Watt"},
	},
}

// post sends an authenticated request and decodes the classroom it answers with.
func (e *env) post(t *testing.T, token, path string, body interface{}, wantCode int) classroom.Classroom {
	t.Helper()
	rec := e.do(newAuthRequest(http.MethodPost, path, token, marshallObj(t, body)))
	require.Equal(t, wantCode, rec.Code, rec.Body.String())
	var c classroom.Classroom
	decode(t, rec, &c)
	return c
}

func Test_classroomApi_scenario(t *testing.T) {
	e := setup(t)
	tutor := e.createUser(t, "Ms Curie", "curie@example.com", user.RoleTutor)
	alice := e.createUser(t, "Alice", "alice@example.com", user.RoleWard)
	bob := e.createUser(t, "Bob", "", user.RoleWard)
	tutorToken, aliceToken, bobToken := e.getToken(t, tutor), e.getToken(t, alice), e.getToken(t, bob)

	// the tutor opens a classroom
	c := e.post(t, tutorToken, "/api/classrooms", classroom.NewClassroom{Name: "Physics", Description: "Mechanics"}, http.StatusCreated)
	assert.Regexp(t, `^[A-Z0-9]{6}$`, c.Code)
	assert.Equal(t, "Physics Course", c.Course.Title)
	base := "/api/classrooms/" + c.ID

	// wards ask to join, lowercase codes are accepted
	c = e.post(t, aliceToken, "/api/classrooms/join", classroom.JoinRequest{Code: c.Code}, http.StatusOK)
	assert.Equal(t, []string{alice.ID}, c.JoinRequests)
	c = e.post(t, bobToken, "/api/classrooms/join", map[string]string{"code": " " + strings.ToLower(c.Code) + " "}, http.StatusOK)
	assert.Equal(t, []string{alice.ID, bob.ID}, c.JoinRequests)
	// the tutor is notified of each request
	require.Len(t, emailsvc.SentMessages, 2)
	assert.Equal(t, "curie@example.com", emailsvc.SentMessages[1].To[0].Address)

	// ... and are approved
	c = e.post(t, tutorToken, base+"/approve", classroom.Approval{WardID: alice.ID}, http.StatusOK)
	c = e.post(t, tutorToken, base+"/approve", classroom.Approval{WardID: bob.ID}, http.StatusOK)
	assert.Equal(t, []string{alice.ID, bob.ID}, c.WardIDs)
	assert.Empty(t, c.JoinRequests)

	// quiz
	c = e.post(t, tutorToken, base+"/quizzes", kinematics, http.StatusCreated)
	require.Len(t, c.Quizzes, 1)
	quizPath := base + "/quizzes/" + c.Quizzes[0].ID

	c = e.post(t, aliceToken, quizPath+"/submit", classroom.QuizAttempt{Answers: []string{"Newton", "Joule", "Newton"}}, http.StatusOK)
	assert.Equal(t, 66.67, c.Quizzes[0].Submissions[0].Score)
	assert.Equal(t, 1, c.Quizzes[0].Submissions[0].Attempt)
	c = e.post(t, bobToken, quizPath+"/submit", classroom.QuizAttempt{Answers: []string{"Newton", "Joule", "Watt"}}, http.StatusOK)
	assert.Equal(t, 100.0, c.Quizzes[0].Submissions[1].Score)
	assert.Equal(t, 2, c.Quizzes[0].Submissions[1].Attempt)

	rec := e.do(newAuthRequest(http.MethodGet, quizPath+"/leaderboard", aliceToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var board []classroom.LeaderboardEntry
	decode(t, rec, &board)
	require.Len(t, board, 2)
	assert.Equal(t, classroom.LeaderboardEntry{Rank: 1, WardID: bob.ID, WardName: "Bob", Score: 100, Attempt: 2}, board[0])
	assert.Equal(t, "Alice", board[1].WardName)

	rec = e.do(newAuthRequest(http.MethodGet, quizPath+"/analytics", tutorToken))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var qa classroom.QuizAnalytics
	decode(t, rec, &qa)
	assert.Equal(t, 100.0, qa.ParticipationRate)
	assert.Equal(t, 83.34, qa.AverageScore)
	require.NotEmpty(t, qa.HardestQuestions)
	assert.Equal(t, "Unit of power?", qa.HardestQuestions[0].Question)

	// assignment
	c = e.post(t, tutorToken, base+"/assignments", classroom.NewAssignment{Title: "Lab report", Description: "Pendulum"}, http.StatusCreated)
	asgPath := base + "/assignments/" + c.Assignments[0].ID

	rec = e.do(newAuthRequest(http.MethodPost, asgPath+"/submit", aliceToken, []byte(`{"content":"Period is 2s"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"grade":null`)
	assert.Contains(t, rec.Body.String(), `"feedback":null`)

	emailsvc.ClearSentMessages()
	c = e.post(t, tutorToken, asgPath+"/grade", classroom.Grade{WardID: alice.ID, Grade: null.Float64From(90).Ptr(), Feedback: "Great"}, http.StatusOK)
	sub := c.Assignments[0].Submissions[0]
	assert.Equal(t, 90.0, sub.Grade.Float64)
	assert.Equal(t, "Great", sub.Feedback.String)
	require.Len(t, emailsvc.SentMessages, 1)
	assert.Equal(t, "alice@example.com", emailsvc.SentMessages[0].To[0].Address)

	// attendance, same date replaces
	att := classroom.Attendance{Date: "2024-09-01", Statuses: []classroom.AttendanceStatus{
		{WardID: alice.ID, Status: classroom.StatusPresent},
		{WardID: bob.ID, Status: classroom.StatusLate},
	}}
	c = e.post(t, tutorToken, base+"/attendance", att, http.StatusOK)
	require.Len(t, c.Attendance, 1)
	att.Statuses = att.Statuses[:1]
	c = e.post(t, tutorToken, base+"/attendance", att, http.StatusOK)
	require.Len(t, c.Attendance, 1)
	assert.Len(t, c.Attendance[0].Statuses, 1)

	// syllabus
	c = e.post(t, tutorToken, base+"/syllabus", classroom.NewSyllabusItem{Topic: "Newton's laws"}, http.StatusCreated)
	require.Len(t, c.Course.Syllabus, 1)
	rec = e.do(newAuthRequest(http.MethodPut, base+"/syllabus/"+c.Course.Syllabus[0].ID, tutorToken, []byte(`{"completed":true}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &c)
	assert.True(t, c.Course.Syllabus[0].Completed)

	// everyone sees the classroom
	for _, token := range []string{tutorToken, aliceToken, bobToken} {
		rec = e.do(newAuthRequest(http.MethodGet, "/api/classrooms/initial-data", token))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var data InitialData
		decode(t, rec, &data)
		require.Len(t, data.Classrooms, 1)
		assert.Equal(t, c.ID, data.Classrooms[0].ID)
		assert.ElementsMatch(t, []user.Ward{alice.AsWard(), bob.AsWard()}, data.AllWards)
	}
}

func Test_classroomApi_errors(t *testing.T) {
	e := setup(t)
	tutor := e.createUser(t, "Ms Curie", "curie@example.com", user.RoleTutor)
	other := e.createUser(t, "Mr Bohr", "", user.RoleTutor)
	alice := e.createUser(t, "Alice", "", user.RoleWard)
	bob := e.createUser(t, "Bob", "", user.RoleWard)
	c := testutil.CreateClassroom(t, e.clsRepo, tutor, "Physics", "PHY101", alice)
	base := "/api/classrooms/" + c.ID

	tutorToken, otherToken := e.getToken(t, tutor), e.getToken(t, other)
	aliceToken, bobToken := e.getToken(t, alice), e.getToken(t, bob)
	forbidden := marshallObj(t, httpErr{Error: "permission denied"})

	tests := []httpTest{
		{
			name:     "no token",
			method:   http.MethodGet,
			path:     base,
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
		{
			name:     "ward cannot create classrooms",
			method:   http.MethodPost,
			path:     "/api/classrooms",
			body:     marshallObj(t, classroom.NewClassroom{Name: "Nope", Description: "Nope"}),
			token:    aliceToken,
			wantCode: http.StatusForbidden,
			wantData: forbidden,
		},
		{
			name:     "create needs a name",
			method:   http.MethodPost,
			path:     "/api/classrooms",
			body:     marshallObj(t, classroom.NewClassroom{Description: "Nope"}),
			token:    tutorToken,
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name:     "tutor cannot join",
			method:   http.MethodPost,
			path:     "/api/classrooms/join",
			body:     marshallObj(t, classroom.JoinRequest{Code: "PHY101"}),
			token:    tutorToken,
			wantCode: http.StatusForbidden,
			wantData: forbidden,
		},
		{
			name:     "unknown code",
			method:   http.MethodPost,
			path:     "/api/classrooms/join",
			body:     marshallObj(t, classroom.JoinRequest{Code: "ZZZZZZ"}),
			token:    bobToken,
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: classroom.ErrNotFound.Error()}),
		},
		{
			name:     "already enrolled",
			method:   http.MethodPost,
			path:     "/api/classrooms/join",
			body:     marshallObj(t, classroom.JoinRequest{Code: "phy101"}),
			token:    aliceToken,
			wantCode: http.StatusConflict,
			wantData: marshallObj(t, httpErr{Error: classroom.ErrAlreadyMember.Error()}),
		},
		{
			name:     "unknown classroom",
			method:   http.MethodGet,
			path:     "/api/classrooms/missing",
			token:    tutorToken,
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: classroom.ErrNotFound.Error()}),
		},
		{
			name:     "outsider cannot read",
			method:   http.MethodGet,
			path:     base,
			token:    bobToken,
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: classroom.ErrForbidden.Error()}),
		},
		{
			name:     "enrolled ward can read",
			method:   http.MethodGet,
			path:     base,
			token:    aliceToken,
			wantCode: http.StatusOK,
			wantData: marshallObj(t, c),
		},
		{
			name:     "other tutor cannot approve",
			method:   http.MethodPost,
			path:     base + "/approve",
			body:     marshallObj(t, classroom.Approval{WardID: bob.ID}),
			token:    otherToken,
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: classroom.ErrForbidden.Error()}),
		},
		{
			name:     "quiz needs questions",
			method:   http.MethodPost,
			path:     base + "/quizzes",
			body:     marshallObj(t, classroom.NewQuiz{Title: "Empty"}),
			token:    tutorToken,
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"questions": "this field is required"}),
		},
		{
			name:     "unknown quiz",
			method:   http.MethodPost,
			path:     base + "/quizzes/missing/submit",
			body:     marshallObj(t, classroom.QuizAttempt{Answers: []string{"Newton"}}),
			token:    aliceToken,
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: classroom.ErrQuizNotFound.Error()}),
		},
		{
			name:     "bad attendance date",
			method:   http.MethodPost,
			path:     base + "/attendance",
			body:     marshallObj(t, classroom.Attendance{Date: "01/09/2024"}),
			token:    tutorToken,
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"date": "date must be formatted as YYYY-MM-DD"}),
		},
		{
			name:   "bad attendance status",
			method: http.MethodPost,
			path:   base + "/attendance",
			body: marshallObj(t, classroom.Attendance{
				Date:     "2024-09-01",
				Statuses: []classroom.AttendanceStatus{{WardID: alice.ID, Status: "sick"}},
			}),
			token:    tutorToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown assignment",
			method:   http.MethodPost,
			path:     base + "/assignments/missing/grade",
			body:     marshallObj(t, classroom.Grade{WardID: alice.ID, Grade: null.Float64From(50).Ptr()}),
			token:    tutorToken,
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: classroom.ErrAssignmentNotFound.Error()}),
		},
		{
			name:     "grade missing",
			method:   http.MethodPost,
			path:     base + "/assignments/missing/grade",
			body:     []byte(`{"wardId":"` + alice.ID + `","feedback":"hi"}`),
			token:    tutorToken,
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"grade": "this field is required"}),
		},
		{
			name:     "analytics are for the owner",
			method:   http.MethodGet,
			path:     base + "/quizzes/missing/analytics",
			token:    aliceToken,
			wantCode: http.StatusForbidden,
			wantData: forbidden,
		},
	}
	e.run(t, tests)
}
