package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campuscompanion/core/prefs"
	"github.com/trezcool/campuscompanion/core/session"
)

type sessionApi struct {
	svc      *session.Service
	auth     authenticator
	validate *validator.Validate
}

func registerSessionAPI(g *echo.Group, authed []echo.MiddlewareFunc, auth authenticator, deps ServerDeps) {
	api := sessionApi{
		svc:      deps.SessionSvc,
		auth:     auth,
		validate: deps.Validate,
	}

	sg := g.Group("/session")

	// un-authed endpoints
	sg.POST("/login", api.login)
	sg.POST("/demo", api.demo)
	sg.POST("/resume", api.resume)

	// authed endpoints
	ag := sg.Group("", authed...)
	ag.GET("", api.retrieve)
	ag.POST("/token-refresh", api.refreshToken)
	ag.POST("/logout", api.logout)
}

func (api *sessionApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.Login(ctx.Request().Context(), data.EnrollmentNumber, data.Password)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	return api.respondWithToken(ctx, sess)
}

func (api *sessionApi) demo(ctx echo.Context) error {
	sess, err := api.svc.LoginDemo(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "starting demo")
	}
	return api.respondWithToken(ctx, sess)
}

func (api *sessionApi) resume(ctx echo.Context) error {
	sess, err := api.svc.Resume(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "resuming session")
	}
	return api.respondWithToken(ctx, sess)
}

func (api *sessionApi) respondWithToken(ctx echo.Context, sess *session.Session) error {
	token, err := api.auth.GenerateToken(api.auth.claims(sess))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	resp, err := newSessionResponse(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *sessionApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refresh(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *sessionApi) logout(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Logout(ctx.Request().Context(), sess.ID); err != nil {
		return errors.Wrap(err, "logging out")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Logged out."})
}

type prefsApi struct {
	repo     prefs.Repository
	validate *validator.Validate
}

func registerPrefsAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := prefsApi{repo: deps.Prefs, validate: deps.Validate}

	pg := g.Group("/preferences", authed...)
	pg.GET("/attendance-goal", api.goal)
	pg.PUT("/attendance-goal", api.setGoal)
}

func (api *prefsApi) goal(ctx echo.Context) error {
	goal, err := api.repo.Goal(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting attendance goal")
	}
	return ctx.JSON(http.StatusOK, GoalResponse{Goal: goal})
}

func (api *prefsApi) setGoal(ctx echo.Context) error {
	var data GoalRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GoalRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := api.repo.SetGoal(ctx.Request().Context(), data.Goal); err != nil {
		return errors.Wrap(err, "setting attendance goal")
	}
	return ctx.JSON(http.StatusOK, GoalResponse{Goal: data.Goal})
}
