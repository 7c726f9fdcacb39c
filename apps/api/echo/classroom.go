package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/STPREETHI/learning-portal/core/classroom"
	"github.com/STPREETHI/learning-portal/core/user"
)

type classroomApi struct {
	svc      classroom.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerClassroomAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := classroomApi{
		svc:      deps.ClassroomSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	tutorOnly := roleMiddleware(user.RoleTutor)
	wardOnly := roleMiddleware(user.RoleWard)

	cg := g.Group("/classrooms", jwt)
	cg.GET("/initial-data", api.initialData)
	cg.POST("", api.create, tutorOnly)
	cg.POST("/join", api.join, wardOnly)

	// detail endpoints
	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.POST("/approve", api.approve, tutorOnly)
	dg.POST("/quizzes", api.addQuiz, tutorOnly)
	dg.POST("/quizzes/:qid/submit", api.submitQuiz, wardOnly)
	dg.GET("/quizzes/:qid/leaderboard", api.leaderboard)
	dg.GET("/quizzes/:qid/analytics", api.analytics, tutorOnly)
	dg.POST("/assignments", api.addAssignment, tutorOnly)
	dg.POST("/assignments/:aid/submit", api.submitAssignment, wardOnly)
	dg.POST("/assignments/:aid/grade", api.grade, tutorOnly)
	dg.POST("/attendance", api.recordAttendance, tutorOnly)
	dg.POST("/syllabus", api.addSyllabusItem, tutorOnly)
	dg.PUT("/syllabus/:itemId", api.setSyllabusItem, tutorOnly)
}

// Handlers

func (api *classroomApi) initialData(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	reqCtx := ctx.Request().Context()

	classrooms, err := api.svc.QueryVisible(reqCtx, usr)
	if err != nil {
		return errors.Wrap(err, "querying classrooms")
	}
	if classrooms == nil {
		classrooms = []classroom.Classroom{}
	}

	wards, err := api.usrSvc.QueryWards(reqCtx)
	if err != nil {
		return errors.Wrap(err, "querying wards")
	}
	allWards := make([]user.Ward, 0, len(wards))
	for _, w := range wards {
		allWards = append(allWards, w.AsWard())
	}

	return ctx.JSON(http.StatusOK, InitialData{Classrooms: classrooms, AllWards: allWards})
}

func (api *classroomApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data classroom.NewClassroom
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassroom")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating classroom")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *classroomApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	c, err := api.svc.Get(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting classroom")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *classroomApi) join(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data classroom.JoinRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to JoinRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.RequestJoin(ctx.Request().Context(), usr, data.Code)
	if err != nil {
		return errors.Wrap(err, "requesting to join classroom")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *classroomApi) approve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data classroom.Approval
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Approval")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.ApproveJoin(ctx.Request().Context(), usr, ctx.Param("id"), data.WardID)
	if err != nil {
		return errors.Wrap(err, "approving join request")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *classroomApi) addQuiz(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data classroom.NewQuiz
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.AddQuiz(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding quiz")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *classroomApi) addAssignment(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data classroom.NewAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.AddAssignment(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding assignment")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *classroomApi) submitQuiz(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data classroom.QuizAttempt
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QuizAttempt")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.SubmitQuiz(ctx.Request().Context(), usr, ctx.Param("id"), ctx.Param("qid"), data)
	if err != nil {
		return errors.Wrap(err, "submitting quiz")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *classroomApi) submitAssignment(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data classroom.AssignmentWork
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignmentWork")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.SubmitAssignment(ctx.Request().Context(), usr, ctx.Param("id"), ctx.Param("aid"), data)
	if err != nil {
		return errors.Wrap(err, "submitting assignment")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *classroomApi) grade(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data classroom.Grade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Grade")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.GradeAssignment(ctx.Request().Context(), usr, ctx.Param("id"), ctx.Param("aid"), data)
	if err != nil {
		return errors.Wrap(err, "grading assignment")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *classroomApi) recordAttendance(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data classroom.Attendance
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Attendance")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.RecordAttendance(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "recording attendance")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *classroomApi) addSyllabusItem(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data classroom.NewSyllabusItem
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSyllabusItem")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.AddSyllabusItem(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding syllabus item")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *classroomApi) setSyllabusItem(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data classroom.SyllabusProgress
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SyllabusProgress")
	}

	c, err := api.svc.SetSyllabusItemCompleted(ctx.Request().Context(), usr, ctx.Param("id"), ctx.Param("itemId"), data.Completed)
	if err != nil {
		return errors.Wrap(err, "updating syllabus item")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *classroomApi) leaderboard(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	board, err := api.svc.Leaderboard(ctx.Request().Context(), usr, ctx.Param("id"), ctx.Param("qid"))
	if err != nil {
		return errors.Wrap(err, "building leaderboard")
	}
	return ctx.JSON(http.StatusOK, board)
}

func (api *classroomApi) analytics(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	qa, err := api.svc.QuizAnalytics(ctx.Request().Context(), usr, ctx.Param("id"), ctx.Param("qid"))
	if err != nil {
		return errors.Wrap(err, "computing quiz analytics")
	}
	return ctx.JSON(http.StatusOK, qa)
}

type InitialData struct {
	Classrooms []classroom.Classroom `json:"classrooms"`
	AllWards   []user.Ward           `json:"allWards"`
}
