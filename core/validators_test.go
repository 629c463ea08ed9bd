package core

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func newTestValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	InitValidators(validate, translator)
	return validate, translator
}

func TestInitValidators(t *testing.T) {
	validate, translator := newTestValidator()

	type form struct {
		Enrollment string `json:"enrollment_number" validate:"required,enrollment"`
		Goal       int    `json:"goal" validate:"goal"`
	}

	tests := []struct {
		name    string
		form    form
		wantErr map[string]string
	}{
		{name: "valid", form: form{Enrollment: "22103145", Goal: 75}},
		{name: "alphanumeric enrollment", form: form{Enrollment: "9921AB03", Goal: 100}},
		{
			name:    "missing enrollment",
			form:    form{Goal: 1},
			wantErr: map[string]string{"enrollment_number": requiredText},
		},
		{
			name:    "bad enrollment",
			form:    form{Enrollment: "22-103", Goal: 50},
			wantErr: map[string]string{"enrollment_number": enrollmentText},
		},
		{
			name:    "goal too low",
			form:    form{Enrollment: "22103145", Goal: 0},
			wantErr: map[string]string{"goal": goalText},
		},
		{
			name:    "goal too high",
			form:    form{Enrollment: "22103145", Goal: 101},
			wantErr: map[string]string{"goal": goalText},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.form)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			if !assert.True(t, ok, "want validator.ValidationErrors, got %T", err) {
				return
			}
			got := make(map[string]string, len(vErrs))
			for _, vErr := range vErrs {
				got[vErr.Field()] = vErr.Translate(translator)
			}
			assert.Equal(t, tt.wantErr, got)
		})
	}
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "22103145", CleanString("  22103145\t"))
	assert.Equal(t, "abc", CleanString(" ABC ", true))
	assert.Equal(t, "ABC", CleanString("ABC", false))
}

func TestIsShutdown(t *testing.T) {
	assert.True(t, IsShutdown(NewShutdownError("bye")))
	assert.False(t, IsShutdown(NewValidationError(nil)))
}
