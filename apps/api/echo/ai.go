package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/STPREETHI/learning-portal/core"
	"github.com/STPREETHI/learning-portal/core/ai"
	"github.com/STPREETHI/learning-portal/core/classroom"
)

type aiApi struct {
	svc      ai.Service
	validate *validator.Validate
	metrics  *metrics
}

func registerAIAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps, m *metrics) {
	api := aiApi{
		svc:      deps.AISvc,
		validate: deps.Validate,
		metrics:  m,
	}

	ag := g.Group("/ai", jwt)
	ag.POST("/generate-quiz", api.generateQuiz)
	ag.POST("/generate-review", api.generateReview)
}

// Handlers

func (api *aiApi) generateQuiz(ctx echo.Context) error {
	var data GenerateQuizRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateQuizRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	questions, err := api.svc.GenerateQuiz(ctx.Request().Context(), data.TextContent, data.NumQuestions)
	api.metrics.observeAI("generate_quiz", err)
	if err != nil {
		return errors.Wrap(err, "generating quiz")
	}
	return ctx.JSON(http.StatusOK, GenerateQuizResponse{Questions: questions})
}

func (api *aiApi) generateReview(ctx echo.Context) error {
	var data GenerateReviewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateReviewRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	review, err := api.svc.GenerateReview(ctx.Request().Context(), data.Questions, data.UserAnswers, data.Score)
	api.metrics.observeAI("generate_review", err)
	if err != nil {
		return errors.Wrap(err, "generating review")
	}
	return ctx.JSON(http.StatusOK, GenerateReviewResponse{Review: review})
}

type (
	GenerateQuizRequest struct {
		TextContent  string `json:"textContent" validate:"required"`
		NumQuestions int    `json:"numQuestions" validate:"required,min=1,max=50"`
	}

	GenerateQuizResponse struct {
		Questions []classroom.Question `json:"questions"`
	}

	GenerateReviewRequest struct {
		Questions   []classroom.Question `json:"questions" validate:"required,min=1"`
		UserAnswers []string             `json:"userAnswers"`
		Score       float64              `json:"score" validate:"min=0,max=100"`
	}

	GenerateReviewResponse struct {
		Review string `json:"review"`
	}
)

func (r *GenerateQuizRequest) Validate(validate *validator.Validate) error {
	r.TextContent = core.CleanString(r.TextContent)
	return validate.Struct(r)
}

func (r *GenerateReviewRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}
