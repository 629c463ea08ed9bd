package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/campuscompanion/core"
	"github.com/trezcool/campuscompanion/core/dashboard"
	"github.com/trezcool/campuscompanion/core/portal"
	"github.com/trezcool/campuscompanion/core/session"
	"github.com/trezcool/campuscompanion/services/chat"
)

const msgChatUnreachable = "Server not reachable. Check backend."

var (
	errUnauthorized    = echo.NewHTTPError(http.StatusUnauthorized, "session not authenticated")
	errSessionExpired  = echo.NewHTTPError(http.StatusUnauthorized, "session expired, please login again")
	errRefreshExpired  = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpNotFound    = echo.NewHTTPError(http.StatusNotFound, "not found")
	errNoCredentials   = echo.NewHTTPError(http.StatusNotFound, "no saved credentials")
	errOffline         = echo.NewHTTPError(http.StatusForbidden, "the portal is offline, only the demo is available")
	errBadDate         = echo.NewHTTPError(http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
	errChatUnreachable = echo.NewHTTPError(http.StatusServiceUnavailable, msgChatUnreachable)
)

// domainError maps the errors of the core packages to an HTTP status and message.
func domainError(err error) (int, interface{}, bool) {
	var userErr *core.UserError
	switch {
	case errors.As(err, &userErr):
		code := http.StatusBadRequest
		if portal.IsUnavailable(err) || portal.IsNetwork(err) {
			code = http.StatusServiceUnavailable
		}
		return code, userErr.Message, true
	case portal.IsUnavailable(err):
		return http.StatusServiceUnavailable, session.MsgUnavailable, true
	case portal.IsNetwork(err):
		return http.StatusServiceUnavailable, session.MsgNetwork, true
	case errors.Is(err, portal.ErrNotLoggedIn), errors.Is(err, session.ErrNotFound):
		return errSessionExpired.Code, errSessionExpired.Message, true
	case errors.Is(err, session.ErrOffline):
		return errOffline.Code, errOffline.Message, true
	case errors.Is(err, session.ErrNoCredentials):
		return errNoCredentials.Code, errNoCredentials.Message, true
	case errors.Is(err, dashboard.ErrUnknownSemester),
		errors.Is(err, dashboard.ErrUnknownEvent),
		errors.Is(err, dashboard.ErrUnknownSubject),
		errors.Is(err, dashboard.ErrNoSemesters):
		return http.StatusNotFound, errors.Cause(err).Error(), true
	case portal.IsNoData(err):
		return http.StatusNotFound, err.Error(), true
	case errors.Is(err, chat.ErrEmptyQuestion):
		return http.StatusBadRequest, map[string]string{"question": chat.ErrEmptyQuestion.Error()}, true
	case errors.Is(err, chat.ErrUnreachable):
		return errChatUnreachable.Code, errChatUnreachable.Message, true
	}
	return 0, nil, false
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
		default:
			var ok bool
			if code, message, ok = domainError(err); ok {
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var person core.Person
			if sess, sErr := getContextSession(ctx); sErr == nil {
				person = core.Person{ID: sess.ID, Username: sess.Username}
			}
			logger.Error(msg, errors.Wrap(err, msg), person)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
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
