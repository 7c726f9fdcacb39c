package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/STPREETHI/learning-portal/core"
	"github.com/STPREETHI/learning-portal/core/ai"
	"github.com/STPREETHI/learning-portal/core/classroom"
	"github.com/STPREETHI/learning-portal/core/user"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errInvalidCredentials = echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	errRefreshExpired     = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

// statusCodes maps domain errors to HTTP status codes.
// Causes are matched with errors.Is since driver errors may not be hashable.
var statusCodes = []struct {
	err  error
	code int
}{
	{user.ErrNotFound, http.StatusNotFound},
	{classroom.ErrNotFound, http.StatusNotFound},
	{classroom.ErrQuizNotFound, http.StatusNotFound},
	{classroom.ErrAssignmentNotFound, http.StatusNotFound},
	{classroom.ErrSubmissionNotFound, http.StatusNotFound},
	{classroom.ErrSyllabusItemNotFound, http.StatusNotFound},
	{classroom.ErrForbidden, http.StatusForbidden},
	{classroom.ErrNotEnrolled, http.StatusForbidden},
	{classroom.ErrAlreadyMember, http.StatusConflict},
	{classroom.ErrCodeExists, http.StatusConflict},
	{classroom.ErrCodeExhausted, http.StatusConflict},
	{classroom.ErrRetakeNotAllowed, http.StatusConflict},
}

func domainStatus(err error) (int, bool) {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return sc.code, true
		}
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *ai.ServiceError:
			code = http.StatusBadGateway
			message = origErr.Error()
			logger.Error(origErr.Error(), errors.Wrap(origErr.Err, origErr.Error()), contextUser(ctx))
		default:
			if c, ok := domainStatus(cause); ok {
				code = c
				message = cause.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			if ctx.Echo().Debug {
				message = err.Error()
			}
			logger.Error(msg, errors.Wrap(err, msg), contextUser(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// contextUser returns whatever is known of the caller, for logging.
func contextUser(ctx echo.Context) user.User {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr
	}
	var usr user.User
	if claims, err := getContextClaims(ctx); err == nil {
		usr.ID = claims.Subject
		usr.Name = claims.Name
		usr.Role = claims.Role
	}
	return usr
}

// statusFor returns the status code the error handler will answer err with.
func statusFor(err error) int {
	switch cause := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if cause == middleware.ErrJWTMissing {
			return http.StatusUnauthorized
		}
		return cause.Code
	case validator.ValidationErrors, *core.ValidationError:
		return http.StatusBadRequest
	case *ai.ServiceError:
		return http.StatusBadGateway
	default:
		if code, ok := domainStatus(cause); ok {
			return code
		}
		return http.StatusInternalServerError
	}
}
