// Package prefs holds what outlives a session on this device:
// the attendance goal and the remembered portal credentials.
package prefs

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/campuscompanion/core"
)

const (
	DefaultGoal = 75
	MinGoal     = 1
	MaxGoal     = 100
)

var (
	ErrNotFound    = errors.New("prefs: not found")
	ErrInvalidGoal = errors.New("the attendance goal must be between 1 and 100")
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Repository persists preferences.
// Goal returns DefaultGoal when none was saved; Credentials returns ErrNotFound.
type Repository interface {
	Goal(ctx context.Context) (int, error)
	SetGoal(ctx context.Context, goal int) error
	Credentials(ctx context.Context) (Credentials, error)
	SaveCredentials(ctx context.Context, creds Credentials) error
	ClearCredentials(ctx context.Context) error
}

// ValidateGoal returns a core.ValidationError wrapping ErrInvalidGoal.
func ValidateGoal(goal int) error {
	if goal < MinGoal || goal > MaxGoal {
		return core.NewValidationError(ErrInvalidGoal, core.FieldError{Field: "goal", Error: ErrInvalidGoal.Error()})
	}
	return nil
}
