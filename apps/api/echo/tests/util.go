package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/campuscompanion/apps/api/echo"
	"github.com/trezcool/campuscompanion/core"
	"github.com/trezcool/campuscompanion/core/portal"
	"github.com/trezcool/campuscompanion/core/session"
	"github.com/trezcool/campuscompanion/services/chat"
	"github.com/trezcool/campuscompanion/services/portal/demo"
	"github.com/trezcool/campuscompanion/storage/prefs/inmem"
	"github.com/trezcool/campuscompanion/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

// fixture is a Server backed by the demo data. Real portal logins are served by demo
// clients too, so any well formed credentials are accepted until loginErr is set.
type fixture struct {
	app     Server
	conf    *core.Config
	prefs   *inmem.Store
	svc     *session.Service
	logger  *testutil.RecordingLogger
	clients []*testutil.CountingClient

	mu       sync.Mutex
	loginErr error
}

func setup(t *testing.T, configure ...func(*core.Config)) *fixture {
	t.Helper()
	f := &fixture{
		conf:   testutil.Config(t),
		prefs:  inmem.NewStore(),
		logger: new(testutil.RecordingLogger),
	}
	for _, fn := range configure {
		fn(f.conf)
	}

	realPortal := func() portal.Client {
		c := testutil.WrapClient(demo.NewClient())
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.loginErr != nil {
			c.Fail("Login", f.loginErr)
		}
		f.clients = append(f.clients, c)
		return c
	}
	f.svc = session.NewService(f.conf, f.prefs, realPortal, demo.NewClient, f.logger)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	f.app = NewServer(ServerDeps{
		Conf:       f.conf,
		Logger:     f.logger,
		SessionSvc: f.svc,
		Prefs:      f.prefs,
		Chat:       chat.NewDemo(),
		Validate:   validate,
		Translator: translator,
	})
	t.Cleanup(func() { _ = f.app.Close() })
	return f
}

func (f *fixture) failLogin(err error) {
	f.mu.Lock()
	f.loginErr = err
	f.mu.Unlock()
}

// demoToken starts a demo session and returns its token.
func (f *fixture) demoToken(t *testing.T) string {
	t.Helper()
	req, rec := newRequest(http.MethodPost, "/v1/session/demo")
	f.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("demoToken() failed: code = %v; body %s", rec.Code, rec.Body.String())
	}
	return decodeToken(t, rec)
}

// loginToken signs in through the API and returns the token.
func (f *fixture) loginToken(t *testing.T, username, password string) string {
	t.Helper()
	body := marchallObj(t, LoginRequest{EnrollmentNumber: username, Password: password})
	req, rec := newRequest(http.MethodPost, "/v1/session/login", body)
	f.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("loginToken() failed: code = %v; body %s", rec.Code, rec.Body.String())
	}
	return decodeToken(t, rec)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func decodeToken(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp TokenResponse
	decode(t, rec, &resp)
	if resp.Token == "" {
		t.Fatalf("decodeToken() failed: empty token in %s", rec.Body.String())
	}
	return resp.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode() failed: %v; body %s", err, rec.Body.String())
	}
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	assert.True(t, ok, "data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
}

func runHttpTests(t *testing.T, f *fixture, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			f.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
