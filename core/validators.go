package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	enrollmentTag   = "enrollment"
	enrollmentText  = "enter a valid enrollment number"
	enrollmentRegex = regexp.MustCompile(`^[A-Za-z0-9]{4,20}$`)

	goalTag  = "goal"
	goalText = "the attendance goal must be between 1 and 100"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(enrollmentTag, enrollmentValidation)
	RegisterCustomTranslation(validate, translator, enrollmentTag, enrollmentText)

	_ = validate.RegisterValidation(goalTag, goalValidation)
	RegisterCustomTranslation(validate, translator, goalTag, goalText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// enrollmentValidation accepts portal enrollment numbers: 4 to 20 letters or digits.
func enrollmentValidation(fl validator.FieldLevel) bool {
	return enrollmentRegex.MatchString(fl.Field().String())
}

func goalValidation(fl validator.FieldLevel) bool {
	g := fl.Field().Int()
	return g >= 1 && g <= 100
}
