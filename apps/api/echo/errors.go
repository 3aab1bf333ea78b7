package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/arnalearn/arna/core"
	"github.com/arnalearn/arna/core/assignment"
	"github.com/arnalearn/arna/core/progress"
	"github.com/arnalearn/arna/core/user"
)

var (
	errMissingToken  = echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed jwt")
	errInvalidToken  = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired jwt")
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")

	errValidationFailed = "invalid request data"
)

// storeError is a failed assignment mutation, reported as 400 with the underlying error.
// It has no Cause method so that errors.Cause stops on it.
type storeError struct {
	message string
	err     error
}

func newStoreError(message string, err error) error {
	return &storeError{message: message, err: err}
}

func (e *storeError) Error() string {
	return e.message + ": " + e.err.Error()
}

// sentinelCode maps domain errors to their HTTP status.
func sentinelCode(err error) (int, bool) {
	switch err {
	case user.ErrNotFound, assignment.ErrNotFound, progress.ErrNotFound:
		return http.StatusNotFound, true
	case user.ErrInvalidCredentials, progress.ErrAlreadySubmitted, assignment.ErrInUse:
		return http.StatusBadRequest, true
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		body := echo.Map{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			body["message"] = fmt.Sprint(origErr.Message)
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			body["message"] = errValidationFailed
			body["fields"] = fldErrs
		case *core.ValidationError:
			code = http.StatusBadRequest
			body["message"] = origErr.Error()
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				body["fields"] = fldErrs
				if origErr.Err == nil {
					body["message"] = errValidationFailed
				}
			}
		case *storeError:
			code = http.StatusBadRequest
			body["message"] = origErr.message
			body["error"] = origErr.err.Error()
		default:
			if c, ok := sentinelCode(origErr); ok {
				code = c
				body["message"] = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			body["message"] = msg
			if ctx.Echo().Debug {
				body["error"] = err.Error()
			}

			principal, _ := getPrincipal(ctx)
			logger.Error(msg, errors.Wrap(err, msg), principal)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
