package echoapi

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/STPREETHI/learning-portal/core"
	"github.com/STPREETHI/learning-portal/core/ai"
	"github.com/STPREETHI/learning-portal/core/classroom"
	"github.com/STPREETHI/learning-portal/core/user"
	logsvc "github.com/STPREETHI/learning-portal/services/logger"
)

func Test_statusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing jwt", middleware.ErrJWTMissing, http.StatusUnauthorized},
		{"http error", errHttpForbidden, http.StatusForbidden},
		{"validation", core.NewValidationError(errors.New("bad")), http.StatusBadRequest},
		{"ai", &ai.ServiceError{Msg: "failed", Err: errors.New("quota")}, http.StatusBadGateway},
		{"wrapped domain", errors.Wrap(classroom.ErrQuizNotFound, "getting quiz"), http.StatusNotFound},
		{"user not found", user.ErrNotFound, http.StatusNotFound},
		{"retake", classroom.ErrRetakeNotAllowed, http.StatusConflict},
		{
			"unhashable command error",
			errors.Wrap(mongo.CommandError{Code: 11600, Labels: []string{"x"}}, "getting classroom"),
			http.StatusInternalServerError,
		},
		{
			"unhashable write exception",
			errors.Wrap(mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}, "inserting classroom"),
			http.StatusInternalServerError,
		},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func Test_appHTTPErrorHandler_driverError(t *testing.T) {
	conf := core.NewTestConfig()
	buf := new(bytes.Buffer)
	logger := logsvc.NewRollbarLogger(log.New(buf, "", 0), conf)

	e := echo.New()
	e.HTTPErrorHandler = newAppHTTPErrorHandler(logger, core.NewTranslator(), func() {})
	e.GET("/", func(ctx echo.Context) error {
		return errors.Wrap(mongo.CommandError{Code: 11600, Labels: []string{"x"}}, "getting classroom")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "getting classroom")
}
