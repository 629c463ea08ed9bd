package echoapi

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/campuscompanion/core"
)

const dateParam = "date"

type (
	LoginRequest struct {
		EnrollmentNumber string `json:"enrollment_number" validate:"required,enrollment"`
		Password         string `json:"password" validate:"required"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}

	SessionResponse struct {
		ID        string    `json:"id"`
		Username  string    `json:"username"`
		Demo      bool      `json:"demo"`
		CreatedAt time.Time `json:"created_at"`
	}

	GoalRequest struct {
		Goal int `json:"goal" validate:"required,goal"`
	}

	GoalResponse struct {
		Goal int `json:"goal"`
	}

	ChatRequest struct {
		Question string `json:"question" validate:"required"`
	}

	ChatResponse struct {
		Answer string `json:"answer"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	// SemesterQuery selects a semester by registration id; empty means the current selection.
	SemesterQuery struct {
		Semester string `query:"semester"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.EnrollmentNumber = core.CleanString(lr.EnrollmentNumber)
	return validate.Struct(lr)
}

func (gr *GoalRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(gr)
}

func (cr *ChatRequest) Validate(validate *validator.Validate) error {
	cr.Question = core.CleanString(cr.Question)
	return validate.Struct(cr)
}

func (sq *SemesterQuery) Bind(ctx echo.Context) {
	sq.Semester = core.CleanString(ctx.QueryParam("semester"))
}

// bindDate reads the "date" query parameter; today when absent.
func bindDate(ctx echo.Context) (time.Time, error) {
	val := core.CleanString(ctx.QueryParam(dateParam))
	if val == "" {
		y, m, d := time.Now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse("2006-01-02", val)
	if err != nil {
		return time.Time{}, errBadDate
	}
	return day, nil
}

func newSessionResponse(ctx echo.Context) (SessionResponse, error) {
	sess, err := getContextSession(ctx)
	if err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse{ID: sess.ID, Username: sess.Username, Demo: sess.Demo, CreatedAt: sess.CreatedAt}, nil
}
