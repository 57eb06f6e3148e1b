package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	devstore "github.com/trezcool/fypdesk/apps/devapi/store"
	"github.com/trezcool/fypdesk/core"
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errBadID        = echo.NewHTTPError(http.StatusBadRequest, "invalid id")
)

// messageResponse is the error body of the FYP API. Messages raised by the workflow rules
// are prefixed with "Error: ".
type messageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func failure(msg string) messageResponse {
	return messageResponse{Message: "Error: " + msg}
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = messageResponse{Message: "missing or malformed jwt"}
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if m, ok := origErr.Message.(string); ok {
				message = messageResponse{Message: m}
			} else {
				message = origErr.Message
			}
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
				message = failure(origErr.Error())
			}
			code = http.StatusBadRequest
		case *devstore.RuleError:
			code = origErr.Status
			message = failure(origErr.Message)
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = failure("An unexpected error occurred.")

			var extras map[string]interface{}
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				extras = map[string]interface{}{"user": claims.Subject, "email": claims.Email}
			}
			logger.Error(msg, errors.Wrap(err, msg), extras)

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
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
