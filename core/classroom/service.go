package classroom

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/STPREETHI/learning-portal/core"
	"github.com/STPREETHI/learning-portal/core/user"
)

var (
	// errors
	ErrNotFound             = errors.New("classroom not found")
	ErrQuizNotFound         = errors.New("quiz not found")
	ErrAssignmentNotFound   = errors.New("assignment not found")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrSyllabusItemNotFound = errors.New("syllabus item not found")
	ErrForbidden            = errors.New("you do not have permission to perform this action")
	ErrNotEnrolled          = errors.New("you are not enrolled in this classroom")
	ErrAlreadyMember        = errors.New("you are already in this classroom or have a pending request")
	ErrCodeExists           = errors.New("a classroom with this code already exists")
	ErrCodeExhausted        = errors.New("could not generate a unique classroom code, please retry")
	ErrRetakeNotAllowed     = errors.New("retakes are not allowed for this quiz")

	NowFunc = time.Now // mockable
)

const defaultCodeAttempts = 10

type (
	Repository interface {
		FindByID(ctx context.Context, id string) (Classroom, error)
		FindByCode(ctx context.Context, code string) (Classroom, error)
		// FindByTutor returns the classrooms owned by the tutor, most recent first.
		FindByTutor(ctx context.Context, tutorID string) ([]Classroom, error)
		// FindByWard returns the classrooms the ward is enrolled in, most recent first.
		FindByWard(ctx context.Context, wardID string) ([]Classroom, error)
		CodeExists(ctx context.Context, code string) (bool, error)
		// Insert stores a new classroom. It returns ErrCodeExists when the code is taken.
		Insert(ctx context.Context, c Classroom) (Classroom, error)
		// Save replaces the whole aggregate.
		Save(ctx context.Context, c Classroom) (Classroom, error)
	}

	Service interface {
		Create(ctx context.Context, tutor user.User, nc NewClassroom) (Classroom, error)
		Get(ctx context.Context, caller user.User, id string) (Classroom, error)
		// QueryVisible returns the classrooms owned by a tutor or joined by a ward.
		QueryVisible(ctx context.Context, caller user.User) ([]Classroom, error)
		RequestJoin(ctx context.Context, ward user.User, code string) (Classroom, error)
		ApproveJoin(ctx context.Context, tutor user.User, classroomID, wardID string) (Classroom, error)
		AddQuiz(ctx context.Context, tutor user.User, classroomID string, nq NewQuiz) (Classroom, error)
		AddAssignment(ctx context.Context, tutor user.User, classroomID string, na NewAssignment) (Classroom, error)
		SubmitQuiz(ctx context.Context, ward user.User, classroomID, quizID string, qa QuizAttempt) (Classroom, error)
		SubmitAssignment(ctx context.Context, ward user.User, classroomID, assignmentID string, aw AssignmentWork) (Classroom, error)
		GradeAssignment(ctx context.Context, tutor user.User, classroomID, assignmentID string, g Grade) (Classroom, error)
		RecordAttendance(ctx context.Context, tutor user.User, classroomID string, a Attendance) (Classroom, error)
		AddSyllabusItem(ctx context.Context, tutor user.User, classroomID string, ns NewSyllabusItem) (Classroom, error)
		SetSyllabusItemCompleted(ctx context.Context, tutor user.User, classroomID, itemID string, completed bool) (Classroom, error)
		Leaderboard(ctx context.Context, caller user.User, classroomID, quizID string) ([]LeaderboardEntry, error)
		QuizAnalytics(ctx context.Context, tutor user.User, classroomID, quizID string) (QuizAnalytics, error)
	}

	// Options toggles optional classroom rules.
	Options struct {
		// EnforceRetakes refuses a second attempt on quizzes that do not allow retakes.
		EnforceRetakes bool
		// PerWardAttempts numbers attempts per ward instead of across the whole quiz.
		PerWardAttempts bool
		// CodeAttempts bounds join code regeneration on collision.
		CodeAttempts int
	}

	service struct {
		repo    Repository
		usrSvc  user.Service
		mailSvc core.EmailService
		logger  core.Logger
		opts    Options
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service, mailSvc core.EmailService, logger core.Logger, opts Options) Service {
	if opts.CodeAttempts <= 0 {
		opts.CodeAttempts = defaultCodeAttempts
	}
	return &service{
		repo:    repo,
		usrSvc:  usrSvc,
		mailSvc: mailSvc,
		logger:  logger,
		opts:    opts,
	}
}

// OptionsFromConfig maps the classroom section of the app config.
func OptionsFromConfig(conf *core.Config) Options {
	return Options{
		EnforceRetakes:  conf.Classroom.EnforceRetakes,
		PerWardAttempts: conf.Classroom.PerWardAttempts,
		CodeAttempts:    conf.Classroom.CodeAttempts,
	}
}

func (svc *service) Create(ctx context.Context, tutor user.User, nc NewClassroom) (Classroom, error) {
	if !tutor.IsTutor() {
		return Classroom{}, ErrForbidden
	}

	now := NowFunc().UTC()
	c := Classroom{
		ID:           uuid.New().String(),
		Name:         nc.Name,
		Description:  nc.Description,
		TutorID:      tutor.ID,
		WardIDs:      []string{},
		JoinRequests: []string{},
		Course: Course{
			ID:          uuid.New().String(),
			Title:       nc.Name + " Course",
			Description: "Syllabus for " + nc.Name,
			Syllabus:    []SyllabusItem{},
		},
		Quizzes:     []Quiz{},
		Assignments: []Assignment{},
		Attendance:  []AttendanceRecord{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for i := 0; i < svc.opts.CodeAttempts; i++ {
		code, err := GenerateCode()
		if err != nil {
			return Classroom{}, err
		}
		exists, err := svc.repo.CodeExists(ctx, code)
		if err != nil {
			return Classroom{}, err
		}
		if exists {
			continue
		}

		c.Code = code
		created, err := svc.repo.Insert(ctx, c)
		if err == ErrCodeExists {
			// lost a race with a concurrent insert
			continue
		}
		return created, err
	}
	return Classroom{}, ErrCodeExhausted
}

func (svc *service) Get(ctx context.Context, caller user.User, id string) (Classroom, error) {
	c, err := svc.repo.FindByID(ctx, id)
	if err != nil {
		return Classroom{}, err
	}
	if !c.IsOwner(caller.ID) && !c.IsEnrolled(caller.ID) {
		return Classroom{}, ErrForbidden
	}
	return c, nil
}

func (svc *service) QueryVisible(ctx context.Context, caller user.User) ([]Classroom, error) {
	if caller.IsTutor() {
		return svc.repo.FindByTutor(ctx, caller.ID)
	}
	return svc.repo.FindByWard(ctx, caller.ID)
}

func (svc *service) RequestJoin(ctx context.Context, ward user.User, code string) (Classroom, error) {
	if !ward.IsWard() {
		return Classroom{}, ErrForbidden
	}
	c, err := svc.repo.FindByCode(ctx, code)
	if err != nil {
		return Classroom{}, err
	}
	if c.IsEnrolled(ward.ID) || c.IsPending(ward.ID) {
		return Classroom{}, ErrAlreadyMember
	}

	c.JoinRequests = append(c.JoinRequests, ward.ID)
	c, err = svc.save(ctx, c)
	if err != nil {
		return Classroom{}, err
	}

	svc.notifyJoinRequest(ctx, c, ward)
	return c, nil
}

func (svc *service) ApproveJoin(ctx context.Context, tutor user.User, classroomID, wardID string) (Classroom, error) {
	c, err := svc.loadOwned(ctx, tutor, classroomID)
	if err != nil {
		return Classroom{}, err
	}

	if !c.IsPending(wardID) {
		return c, nil
	}
	c.JoinRequests = removeAll(c.JoinRequests, wardID)
	if !c.IsEnrolled(wardID) {
		c.WardIDs = append(c.WardIDs, wardID)
	}
	return svc.save(ctx, c)
}

func (svc *service) AddQuiz(ctx context.Context, tutor user.User, classroomID string, nq NewQuiz) (Classroom, error) {
	c, err := svc.loadOwned(ctx, tutor, classroomID)
	if err != nil {
		return Classroom{}, err
	}

	c.Quizzes = append(c.Quizzes, Quiz{
		ID:            uuid.New().String(),
		Title:         nq.Title,
		Questions:     nq.Questions,
		RetakeAllowed: nq.RetakeAllowed,
		Submissions:   []WardSubmission{},
	})
	return svc.save(ctx, c)
}

func (svc *service) AddAssignment(ctx context.Context, tutor user.User, classroomID string, na NewAssignment) (Classroom, error) {
	c, err := svc.loadOwned(ctx, tutor, classroomID)
	if err != nil {
		return Classroom{}, err
	}

	c.Assignments = append(c.Assignments, Assignment{
		ID:          uuid.New().String(),
		Title:       na.Title,
		Description: na.Description,
		Submissions: []AssignmentSubmission{},
	})
	return svc.save(ctx, c)
}

func (svc *service) SubmitQuiz(ctx context.Context, ward user.User, classroomID, quizID string, qa QuizAttempt) (Classroom, error) {
	c, err := svc.loadEnrolled(ctx, ward, classroomID)
	if err != nil {
		return Classroom{}, err
	}
	quiz := c.quiz(quizID)
	if quiz == nil {
		return Classroom{}, ErrQuizNotFound
	}

	var maxAttempt int
	for _, sub := range quiz.Submissions {
		if svc.opts.PerWardAttempts && sub.WardID != ward.ID {
			continue
		}
		if svc.opts.EnforceRetakes && !quiz.RetakeAllowed && sub.WardID == ward.ID {
			return Classroom{}, ErrRetakeNotAllowed
		}
		if sub.Attempt > maxAttempt {
			maxAttempt = sub.Attempt
		}
	}

	quiz.Submissions = append(quiz.Submissions, WardSubmission{
		WardID:  ward.ID,
		Score:   ComputeScore(quiz.Questions, qa.Answers),
		Answers: qa.Answers,
		Attempt: maxAttempt + 1,
	})
	return svc.save(ctx, c)
}

func (svc *service) SubmitAssignment(ctx context.Context, ward user.User, classroomID, assignmentID string, aw AssignmentWork) (Classroom, error) {
	c, err := svc.loadEnrolled(ctx, ward, classroomID)
	if err != nil {
		return Classroom{}, err
	}
	asg := c.assignment(assignmentID)
	if asg == nil {
		return Classroom{}, ErrAssignmentNotFound
	}

	if sub := asg.submission(ward.ID); sub != nil {
		sub.Content = aw.Content
	} else {
		asg.Submissions = append(asg.Submissions, AssignmentSubmission{
			WardID:  ward.ID,
			Content: aw.Content,
		})
	}
	return svc.save(ctx, c)
}

func (svc *service) GradeAssignment(ctx context.Context, tutor user.User, classroomID, assignmentID string, g Grade) (Classroom, error) {
	if g.Grade == nil {
		err := errors.New("grade is required")
		return Classroom{}, core.NewValidationError(err, core.FieldError{Field: "grade", Error: err.Error()})
	}
	if *g.Grade < 0 || *g.Grade > 100 {
		err := errors.New("grade must be between 0 and 100")
		return Classroom{}, core.NewValidationError(err, core.FieldError{Field: "grade", Error: err.Error()})
	}

	c, err := svc.loadOwned(ctx, tutor, classroomID)
	if err != nil {
		return Classroom{}, err
	}
	asg := c.assignment(assignmentID)
	if asg == nil {
		return Classroom{}, ErrAssignmentNotFound
	}
	sub := asg.submission(g.WardID)
	if sub == nil {
		return Classroom{}, ErrSubmissionNotFound
	}

	sub.Grade = null.Float64FromPtr(g.Grade)
	sub.Feedback = null.StringFrom(g.Feedback)
	graded := *sub

	c, err = svc.save(ctx, c)
	if err != nil {
		return Classroom{}, err
	}

	svc.notifyGraded(ctx, c, asg.Title, graded)
	return c, nil
}

func (svc *service) RecordAttendance(ctx context.Context, tutor user.User, classroomID string, a Attendance) (Classroom, error) {
	if _, err := time.Parse(core.DateLayout, a.Date); err != nil {
		err = errors.New("date must be formatted as YYYY-MM-DD")
		return Classroom{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: err.Error()})
	}

	c, err := svc.loadOwned(ctx, tutor, classroomID)
	if err != nil {
		return Classroom{}, err
	}

	statuses := a.Statuses
	if statuses == nil {
		statuses = []AttendanceStatus{}
	}
	for i := range c.Attendance {
		if c.Attendance[i].Date == a.Date {
			c.Attendance[i].Statuses = statuses
			return svc.save(ctx, c)
		}
	}
	c.Attendance = append(c.Attendance, AttendanceRecord{Date: a.Date, Statuses: statuses})
	return svc.save(ctx, c)
}

func (svc *service) AddSyllabusItem(ctx context.Context, tutor user.User, classroomID string, ns NewSyllabusItem) (Classroom, error) {
	c, err := svc.loadOwned(ctx, tutor, classroomID)
	if err != nil {
		return Classroom{}, err
	}
	c.Course.Syllabus = append(c.Course.Syllabus, SyllabusItem{
		ID:    uuid.New().String(),
		Topic: ns.Topic,
	})
	return svc.save(ctx, c)
}

func (svc *service) SetSyllabusItemCompleted(ctx context.Context, tutor user.User, classroomID, itemID string, completed bool) (Classroom, error) {
	c, err := svc.loadOwned(ctx, tutor, classroomID)
	if err != nil {
		return Classroom{}, err
	}
	item := c.syllabusItem(itemID)
	if item == nil {
		return Classroom{}, ErrSyllabusItemNotFound
	}
	item.Completed = completed
	return svc.save(ctx, c)
}

// ComputeScore returns the percentage of questions answered with the exact correct option,
// rounded to 2 decimal places.
func ComputeScore(questions []Question, answers []string) float64 {
	if len(questions) == 0 {
		return 0
	}
	var correct int64
	for i, q := range questions {
		if i < len(answers) && answers[i] == q.CorrectAnswer {
			correct++
		}
	}
	score, _ := decimal.NewFromInt(correct).
		Div(decimal.NewFromInt(int64(len(questions)))).
		Mul(decimal.NewFromInt(100)).
		Round(2).
		Float64()
	return score
}

func (svc *service) loadOwned(ctx context.Context, tutor user.User, classroomID string) (Classroom, error) {
	c, err := svc.repo.FindByID(ctx, classroomID)
	if err != nil {
		return Classroom{}, err
	}
	if !tutor.IsTutor() || !c.IsOwner(tutor.ID) {
		return Classroom{}, ErrForbidden
	}
	return c, nil
}

func (svc *service) loadEnrolled(ctx context.Context, ward user.User, classroomID string) (Classroom, error) {
	c, err := svc.repo.FindByID(ctx, classroomID)
	if err != nil {
		return Classroom{}, err
	}
	if !ward.IsWard() || !c.IsEnrolled(ward.ID) {
		return Classroom{}, ErrNotEnrolled
	}
	return c, nil
}

func (svc *service) save(ctx context.Context, c Classroom) (Classroom, error) {
	c.UpdatedAt = NowFunc().UTC()
	return svc.repo.Save(ctx, c)
}

func (svc *service) notifyJoinRequest(ctx context.Context, c Classroom, ward user.User) {
	tutor, err := svc.usrSvc.GetByID(ctx, c.TutorID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("classroom.notifyJoinRequest(%s): %v", c.ID, err), err)
		return
	}
	if tutor.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: tutor.Name, Address: tutor.Email}},
		Subject:      fmt.Sprintf("New join request for %s", c.Name),
		TemplateName: "join_request",
		TemplateData: map[string]interface{}{
			"RecipientName": tutor.Name,
			"WardName":      ward.Name,
			"ClassroomName": c.Name,
		},
	})
}

func (svc *service) notifyGraded(ctx context.Context, c Classroom, assignmentTitle string, sub AssignmentSubmission) {
	ward, err := svc.usrSvc.GetByID(ctx, sub.WardID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("classroom.notifyGraded(%s): %v", c.ID, err), err)
		return
	}
	if ward.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: ward.Name, Address: ward.Email}},
		Subject:      fmt.Sprintf("%s has been graded", assignmentTitle),
		TemplateName: "assignment_graded",
		TemplateData: map[string]interface{}{
			"RecipientName":   ward.Name,
			"AssignmentTitle": assignmentTitle,
			"ClassroomName":   c.Name,
			"Grade":           sub.Grade.Float64,
			"Feedback":        sub.Feedback.String,
		},
	})
}
