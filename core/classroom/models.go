package classroom

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/STPREETHI/learning-portal/core"
)

// Attendance statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
)

var AllStatuses = []string{StatusPresent, StatusAbsent, StatusLate}

type (
	Classroom struct {
		ID           string             `json:"id" bson:"_id"`
		Name         string             `json:"name" bson:"name"`
		Description  string             `json:"description" bson:"description"`
		TutorID      string             `json:"tutorId" bson:"tutorId"`
		WardIDs      []string           `json:"wardIds" bson:"wardIds"`
		JoinRequests []string           `json:"joinRequests" bson:"joinRequests"`
		Code         string             `json:"code" bson:"code"`
		Course       Course             `json:"course" bson:"course"`
		Quizzes      []Quiz             `json:"quizzes" bson:"quizzes"`
		Assignments  []Assignment       `json:"assignments" bson:"assignments"`
		Attendance   []AttendanceRecord `json:"attendance" bson:"attendance"`
		CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"` // UTC
		UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"` // UTC
	}

	Course struct {
		ID          string         `json:"id" bson:"id"`
		Title       string         `json:"title" bson:"title"`
		Description string         `json:"description" bson:"description"`
		Syllabus    []SyllabusItem `json:"syllabus" bson:"syllabus"`
	}

	SyllabusItem struct {
		ID        string `json:"id" bson:"id"`
		Topic     string `json:"topic" bson:"topic"`
		Completed bool   `json:"completed" bson:"completed"`
	}

	Question struct {
		Question      string   `json:"question" bson:"question" validate:"required"`
		Options       []string `json:"options" bson:"options" validate:"required,min=2,dive,required"`
		CorrectAnswer string   `json:"correctAnswer" bson:"correctAnswer" validate:"required"`
	}

	Quiz struct {
		ID            string           `json:"id" bson:"id"`
		Title         string           `json:"title" bson:"title"`
		Questions     []Question       `json:"questions" bson:"questions"`
		RetakeAllowed bool             `json:"retakeAllowed" bson:"retakeAllowed"`
		Submissions   []WardSubmission `json:"submissions" bson:"submissions"`
	}

	WardSubmission struct {
		WardID  string   `json:"wardId" bson:"wardId"`
		Score   float64  `json:"score" bson:"score"`
		Answers []string `json:"answers" bson:"answers"`
		Attempt int      `json:"attempt" bson:"attempt"`
	}

	Assignment struct {
		ID          string                 `json:"id" bson:"id"`
		Title       string                 `json:"title" bson:"title"`
		Description string                 `json:"description" bson:"description"`
		Submissions []AssignmentSubmission `json:"submissions" bson:"submissions"`
	}

	AssignmentSubmission struct {
		WardID   string       `json:"wardId" bson:"wardId"`
		Content  string       `json:"content" bson:"content"`
		Grade    null.Float64 `json:"grade" bson:"grade"`
		Feedback null.String  `json:"feedback" bson:"feedback"`
	}

	AttendanceRecord struct {
		Date     string             `json:"date" bson:"date"` // YYYY-MM-DD
		Statuses []AttendanceStatus `json:"statuses" bson:"statuses"`
	}

	AttendanceStatus struct {
		WardID string `json:"wardId" bson:"wardId" validate:"required"`
		Status string `json:"status" bson:"status" validate:"required,attendance_status"`
	}
)

func (c *Classroom) IsOwner(tutorID string) bool {
	return c.TutorID == tutorID
}

func (c *Classroom) IsEnrolled(wardID string) bool {
	return indexOf(c.WardIDs, wardID) > -1
}

func (c *Classroom) IsPending(wardID string) bool {
	return indexOf(c.JoinRequests, wardID) > -1
}

func (c *Classroom) quiz(id string) *Quiz {
	for i := range c.Quizzes {
		if c.Quizzes[i].ID == id {
			return &c.Quizzes[i]
		}
	}
	return nil
}

func (c *Classroom) assignment(id string) *Assignment {
	for i := range c.Assignments {
		if c.Assignments[i].ID == id {
			return &c.Assignments[i]
		}
	}
	return nil
}

func (c *Classroom) syllabusItem(id string) *SyllabusItem {
	for i := range c.Course.Syllabus {
		if c.Course.Syllabus[i].ID == id {
			return &c.Course.Syllabus[i]
		}
	}
	return nil
}

func (a *Assignment) submission(wardID string) *AssignmentSubmission {
	for i := range a.Submissions {
		if a.Submissions[i].WardID == wardID {
			return &a.Submissions[i]
		}
	}
	return nil
}

// NewClassroom contains information needed to create a new Classroom.
type NewClassroom struct {
	Name        string `json:"name" validate:"required,max=150"`
	Description string `json:"description" validate:"required"`
}

func (nc *NewClassroom) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

type JoinRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

func (jr *JoinRequest) Validate(validate *validator.Validate) error {
	jr.Code = strings.ToUpper(core.CleanString(jr.Code))
	return validate.Struct(jr)
}

type Approval struct {
	WardID string `json:"wardId" validate:"required"`
}

func (a *Approval) Validate(validate *validator.Validate) error {
	a.WardID = core.CleanString(a.WardID)
	return validate.Struct(a)
}

// NewQuiz defines what information may be provided to author a Quiz.
type NewQuiz struct {
	Title         string     `json:"title" validate:"required"`
	Questions     []Question `json:"questions" validate:"required,min=1,dive"`
	RetakeAllowed bool       `json:"retakeAllowed"`
}

func (nq *NewQuiz) Validate(validate *validator.Validate) error {
	nq.Title = core.CleanString(nq.Title)
	return validate.Struct(nq)
}

// NewAssignment defines what information may be provided to author an Assignment.
type NewAssignment struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	return validate.Struct(na)
}

// QuizAttempt holds the ward's chosen answers in question order.
// Score and attempt are computed server side.
type QuizAttempt struct {
	Answers []string `json:"answers" validate:"required"`
}

func (qa *QuizAttempt) Validate(validate *validator.Validate) error {
	return validate.Struct(qa)
}

type AssignmentWork struct {
	Content string `json:"content" validate:"required"`
}

func (aw *AssignmentWork) Validate(validate *validator.Validate) error {
	return validate.Struct(aw)
}

type Grade struct {
	WardID   string   `json:"wardId" validate:"required"`
	Grade    *float64 `json:"grade" validate:"required,min=0,max=100"`
	Feedback string   `json:"feedback"`
}

func (g *Grade) Validate(validate *validator.Validate) error {
	g.WardID = core.CleanString(g.WardID)
	g.Feedback = core.CleanString(g.Feedback)
	return validate.Struct(g)
}

type Attendance struct {
	Date     string             `json:"date" validate:"required,isodate"`
	Statuses []AttendanceStatus `json:"statuses" validate:"dive"`
}

func (a *Attendance) Validate(validate *validator.Validate) error {
	a.Date = core.CleanString(a.Date)
	return validate.Struct(a)
}

type NewSyllabusItem struct {
	Topic string `json:"topic" validate:"required"`
}

func (ns *NewSyllabusItem) Validate(validate *validator.Validate) error {
	ns.Topic = core.CleanString(ns.Topic)
	return validate.Struct(ns)
}

type SyllabusProgress struct {
	Completed bool `json:"completed"`
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// removeAll returns ids without any occurrence of id.
func removeAll(ids []string, id string) []string {
	kept := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			kept = append(kept, v)
		}
	}
	return kept
}
