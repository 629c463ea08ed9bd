// Package shared wires the dependencies common to the API server and the command line.
package shared

import (
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/campuscompanion/core"
	"github.com/trezcool/campuscompanion/core/portal"
	"github.com/trezcool/campuscompanion/core/prefs"
	"github.com/trezcool/campuscompanion/core/session"
	"github.com/trezcool/campuscompanion/services/portal/demo"
	"github.com/trezcool/campuscompanion/services/portal/webportal"
	"github.com/trezcool/campuscompanion/storage/prefs/boltprefs"
	"github.com/trezcool/campuscompanion/storage/prefs/inmem"
)

// NewValidator returns a validator with the english messages and the custom tags registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate, translator
}

// OpenPrefs opens the preferences file, or an in-memory store when no path is configured.
// The returned func closes the store.
func OpenPrefs(conf *core.Config) (prefs.Repository, func() error, error) {
	if conf.Prefs.Path == "" {
		return inmem.NewStore(), func() error { return nil }, nil
	}
	store, err := boltprefs.Open(conf.Prefs.Path, conf.SecretKey)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening preferences")
	}
	return store, store.Close, nil
}

// PortalFactories returns the constructors of the real portal client and of the demo one.
func PortalFactories(conf *core.Config) (realPortal, demoPortal portal.Factory) {
	opts := webportal.OptionsFromConfig(conf)
	return func() portal.Client { return webportal.NewClient(opts) }, demo.NewClient
}

// NewSessionService builds the session service on top of the configured portal.
func NewSessionService(conf *core.Config, repo prefs.Repository, logger core.Logger) *session.Service {
	realPortal, demoPortal := PortalFactories(conf)
	return session.NewService(conf, repo, realPortal, demoPortal, logger)
}
