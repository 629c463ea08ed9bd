package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/campuscompanion/apps/api/echo"
	"github.com/trezcool/campuscompanion/core"
	"github.com/trezcool/campuscompanion/core/portal"
	"github.com/trezcool/campuscompanion/core/prefs"
	"github.com/trezcool/campuscompanion/core/session"
)

func TestSessionAPI_Login(t *testing.T) {
	f := setup(t)

	tests := []httpTest{
		{
			name:     "empty",
			method:   http.MethodPost,
			path:     "/v1/session/login",
			body:     marchallObj(t, LoginRequest{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"enrollment_number": "this field is required",
				"password":          "this field is required",
			}),
		},
		{
			name:     "bad enrollment number",
			method:   http.MethodPost,
			path:     "/v1/session/login",
			body:     marchallObj(t, LoginRequest{EnrollmentNumber: "21-10 31", Password: "secret"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"enrollment_number": "enter a valid enrollment number"}),
		},
	}
	runHttpTests(t, f, tests)

	t.Run("success", func(t *testing.T) {
		token := f.loginToken(t, " 21103123 ", "secret")

		req, rec := newAuthRequest(http.MethodGet, "/v1/session", token)
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp SessionResponse
		decode(t, rec, &resp)
		assert.Equal(t, "21103123", resp.Username)
		assert.False(t, resp.Demo)
		assert.NotEmpty(t, resp.ID)

		creds, err := f.prefs.Credentials(context.Background())
		require.NoError(t, err)
		assert.Equal(t, prefs.Credentials{Username: "21103123", Password: "secret"}, creds)
	})
}

func TestSessionAPI_Login_failures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"bad credentials", &portal.LoginError{Err: portal.ErrBadCredentials}, http.StatusBadRequest, session.MsgLoginFailed},
		{"unavailable", portal.ErrServiceUnavailable, http.StatusServiceUnavailable, session.MsgUnavailable},
		{"network", portal.ErrNetwork, http.StatusServiceUnavailable, session.MsgNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			f.failLogin(tt.err)

			body := marchallObj(t, LoginRequest{EnrollmentNumber: "21103123", Password: "secret"})
			runHttpTests(t, f, []httpTest{{
				name:     "login",
				method:   http.MethodPost,
				path:     "/v1/session/login",
				body:     body,
				wantCode: tt.wantCode,
				wantData: marchallObj(t, httpErr{Error: tt.wantMsg}),
			}})

			_, err := f.prefs.Credentials(context.Background())
			assert.ErrorIs(t, err, prefs.ErrNotFound)
		})
	}
}

func TestSessionAPI_Demo(t *testing.T) {
	f := setup(t)
	token := f.demoToken(t)

	req, rec := newAuthRequest(http.MethodGet, "/v1/session", token)
	f.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionResponse
	decode(t, rec, &resp)
	assert.Equal(t, "demo", resp.Username)
	assert.True(t, resp.Demo)

	// the demo never remembers credentials
	_, err := f.prefs.Credentials(context.Background())
	assert.ErrorIs(t, err, prefs.ErrNotFound)
}

func TestSessionAPI_Resume(t *testing.T) {
	f := setup(t)

	runHttpTests(t, f, []httpTest{{
		name:     "no credentials",
		method:   http.MethodPost,
		path:     "/v1/session/resume",
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Error: "no saved credentials"}),
	}})

	f.loginToken(t, "21103123", "secret")

	t.Run("unavailable keeps credentials", func(t *testing.T) {
		f.failLogin(portal.ErrServiceUnavailable)
		defer f.failLogin(nil)

		req, rec := newRequest(http.MethodPost, "/v1/session/resume")
		f.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		_, err := f.prefs.Credentials(context.Background())
		assert.NoError(t, err)
	})

	t.Run("success", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/session/resume")
		f.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		token := decodeToken(t, rec)

		req, rec = newAuthRequest(http.MethodGet, "/v1/session", token)
		f.app.ServeHTTP(rec, req)
		var resp SessionResponse
		decode(t, rec, &resp)
		assert.Equal(t, "21103123", resp.Username)
	})

	t.Run("rejected forgets credentials", func(t *testing.T) {
		f.failLogin(&portal.LoginError{Err: portal.ErrBadCredentials})
		defer f.failLogin(nil)

		req, rec := newRequest(http.MethodPost, "/v1/session/resume")
		f.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		ok, err := jsonBytesEqual(rec.Body.Bytes(), marchallObj(t, httpErr{Error: session.MsgAutoLoginFailed}))
		require.NoError(t, err)
		assert.True(t, ok, rec.Body.String())

		_, err = f.prefs.Credentials(context.Background())
		assert.ErrorIs(t, err, prefs.ErrNotFound)
	})
}

func TestSessionAPI_Logout(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.prefs.SetGoal(ctx, 80))
	token := f.loginToken(t, "21103123", "secret")

	runHttpTests(t, f, []httpTest{
		{
			name:     "logout",
			method:   http.MethodPost,
			path:     "/v1/session/logout",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, SuccessResponse{Success: "Logged out."}),
		},
		{
			name:     "token of an ended session",
			method:   http.MethodGet,
			path:     "/v1/session",
			token:    token,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "session expired, please login again"}),
		},
	})

	assert.Equal(t, 0, f.svc.Len())
	_, err := f.prefs.Credentials(ctx)
	assert.ErrorIs(t, err, prefs.ErrNotFound)

	goal, err := f.prefs.Goal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 80, goal)
}

func TestSessionAPI_RefreshToken(t *testing.T) {
	f := setup(t)
	token := f.demoToken(t)

	req, rec := newAuthRequest(http.MethodPost, "/v1/session/token-refresh", token)
	f.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	refreshed := decodeToken(t, rec)

	req, rec = newAuthRequest(http.MethodGet, "/v1/session", refreshed)
	f.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionAPI_offline(t *testing.T) {
	f := setup(t, func(conf *core.Config) { conf.Portal.Offline = true })

	runHttpTests(t, f, []httpTest{{
		name:     "login",
		method:   http.MethodPost,
		path:     "/v1/session/login",
		body:     marchallObj(t, LoginRequest{EnrollmentNumber: "21103123", Password: "secret"}),
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: session.ErrOffline.Error()}),
	}})

	f.demoToken(t)
}
