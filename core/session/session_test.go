package session

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campuscompanion/core"
	"github.com/trezcool/campuscompanion/core/portal"
	"github.com/trezcool/campuscompanion/core/prefs"
	"github.com/trezcool/campuscompanion/services/portal/demo"
	"github.com/trezcool/campuscompanion/storage/prefs/boltprefs"
	"github.com/trezcool/campuscompanion/storage/prefs/inmem"
	testutil "github.com/trezcool/campuscompanion/tests"
)

type fixture struct {
	svc      *Service
	prefs    *inmem.Store
	loginErr error
	clients  []*testutil.CountingClient
	now      time.Time
}

func newFixture(t *testing.T, mods ...func(conf *core.Config)) *fixture {
	t.Helper()
	conf := testutil.Config(t)
	conf.Session.TTL = time.Hour
	for _, mod := range mods {
		mod(conf)
	}

	f := &fixture{prefs: inmem.NewStore(), now: time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC)}
	realPortal := func() portal.Client {
		c := testutil.WrapClient(demo.NewClient())
		c.Fail("Login", f.loginErr)
		f.clients = append(f.clients, c)
		return c
	}
	f.svc = NewService(conf, f.prefs, realPortal, demo.NewClient, &testutil.RecordingLogger{}, WithClock(func() time.Time { return f.now }))
	return f
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sess, err := f.svc.Login(ctx, " 21103001 ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "21103001", sess.Username)
	assert.False(t, sess.Demo)
	assert.NotEmpty(t, sess.ID)

	creds, err := f.prefs.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, prefs.Credentials{Username: "21103001", Password: "s3cret"}, creds)

	got, err := f.svc.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
}

func TestService_Login_failures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{name: "unavailable", err: &portal.LoginError{Err: portal.ErrServiceUnavailable}, wantMsg: MsgUnavailable},
		{name: "network", err: &portal.LoginError{Err: portal.ErrNetwork}, wantMsg: MsgNetwork},
		{name: "bad credentials", err: &portal.LoginError{Err: portal.ErrBadCredentials}, wantMsg: MsgLoginFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			f.loginErr = tc.err

			_, err := f.svc.Login(ctx, "21103001", "s3cret")
			require.Error(t, err)
			assert.Equal(t, tc.wantMsg, err.Error())
			assert.True(t, errors.Is(err, tc.err))

			_, err = f.prefs.Credentials(ctx)
			assert.Equal(t, prefs.ErrNotFound, err)
			assert.Equal(t, 0, f.svc.Len())
		})
	}
}

func TestService_Resume(t *testing.T) {
	ctx := context.Background()
	saved := prefs.Credentials{Username: "21103001", Password: "s3cret"}

	t.Run("no credentials", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Resume(ctx)
		assert.Equal(t, ErrNoCredentials, err)
		assert.Empty(t, f.clients)
	})

	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.prefs.SaveCredentials(ctx, saved))
		sess, err := f.svc.Resume(ctx)
		require.NoError(t, err)
		assert.Equal(t, saved.Username, sess.Username)
		require.Len(t, f.clients, 1)
		assert.Equal(t, 1, f.clients[0].Calls("Login"))
	})

	t.Run("portal unavailable keeps credentials", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.prefs.SaveCredentials(ctx, saved))
		f.loginErr = &portal.LoginError{Err: portal.ErrServiceUnavailable}

		_, err := f.svc.Resume(ctx)
		assert.Equal(t, MsgUnavailable, err.Error())
		creds, err := f.prefs.Credentials(ctx)
		require.NoError(t, err)
		assert.Equal(t, saved, creds)
	})

	t.Run("rejected credentials are forgotten", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.prefs.SaveCredentials(ctx, saved))
		f.loginErr = &portal.LoginError{Err: portal.ErrBadCredentials}

		_, err := f.svc.Resume(ctx)
		assert.Equal(t, MsgAutoLoginFailed, err.Error())
		_, err = f.prefs.Credentials(ctx)
		assert.Equal(t, prefs.ErrNotFound, err)
	})
}

func TestService_Resume_unreadableCredentials(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")

	old, err := boltprefs.Open(path, "old secret")
	require.NoError(t, err)
	require.NoError(t, old.SaveCredentials(ctx, prefs.Credentials{Username: "21103001", Password: "s3cret"}))
	require.NoError(t, old.Close())

	// the app secret was rotated since the credentials were saved
	store, err := boltprefs.Open(path, "rotated secret")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := &testutil.RecordingLogger{}
	svc := NewService(testutil.Config(t), store, func() portal.Client { return demo.NewClient() }, demo.NewClient, logger)

	_, err = svc.Resume(ctx)
	require.Error(t, err)
	assert.Equal(t, MsgAutoLoginFailed, err.Error())
	assert.NotEmpty(t, logger.Entries("error"))

	_, err = store.Credentials(ctx)
	assert.Equal(t, prefs.ErrNotFound, err)

	_, err = svc.Resume(ctx)
	assert.Equal(t, ErrNoCredentials, err)
}

func TestService_Drop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sess, err := f.svc.Login(ctx, "21103001", "s3cret")
	require.NoError(t, err)
	_, err = sess.Store.Attendance.Report(ctx, "")
	require.NoError(t, err)

	f.svc.Drop(sess.ID)
	assert.Zero(t, f.svc.Len())
	_, err = f.svc.Get(sess.ID)
	assert.Equal(t, ErrNotFound, err)

	creds, err := f.prefs.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "21103001", creds.Username)

	f.svc.Drop(sess.ID) // already gone
}

func TestService_Logout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.prefs.SetGoal(ctx, 80))

	sess, err := f.svc.Login(ctx, "21103001", "s3cret")
	require.NoError(t, err)
	view, err := sess.Store.Attendance.Report(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 80, view.Goal)

	require.NoError(t, f.svc.Logout(ctx, sess.ID))

	_, err = f.svc.Get(sess.ID)
	assert.Equal(t, ErrNotFound, err)
	_, err = f.prefs.Credentials(ctx)
	assert.Equal(t, prefs.ErrNotFound, err)
	goal, err := f.prefs.Goal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 80, goal)

	sems, err := sess.Store.Attendance.Semesters(ctx)
	require.NoError(t, err)
	assert.Empty(t, sems.Selected)

	assert.Equal(t, ErrNotFound, f.svc.Logout(ctx, sess.ID))
}

func TestService_expiry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	idle, err := f.svc.LoginDemo(ctx)
	require.NoError(t, err)
	f.now = f.now.Add(40 * time.Minute)
	active, err := f.svc.LoginDemo(ctx)
	require.NoError(t, err)

	f.now = f.now.Add(30 * time.Minute)
	_, err = f.svc.Get(active.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(idle.ID)
	assert.Equal(t, ErrNotFound, err)

	f.now = f.now.Add(2 * time.Hour)
	_, err = f.svc.LoginDemo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.svc.Len())
}

func TestService_offline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(conf *core.Config) { conf.Portal.Offline = true })
	require.NoError(t, f.prefs.SaveCredentials(ctx, prefs.Credentials{Username: "21103001", Password: "s3cret"}))

	_, err := f.svc.Login(ctx, "21103001", "s3cret")
	assert.Equal(t, ErrOffline, err)
	_, err = f.svc.Resume(ctx)
	assert.Equal(t, ErrOffline, err)
	_, err = f.prefs.Credentials(ctx)
	assert.NoError(t, err)
	assert.Empty(t, f.clients)

	sess, err := f.svc.LoginDemo(ctx)
	require.NoError(t, err)
	assert.True(t, sess.Demo)
}

type failingTransport struct {
	t *testing.T
}

func (ft failingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ft.t.Errorf("unexpected request to %s", req.URL)
	return nil, errors.New("network disabled")
}

func TestService_LoginDemo_noNetwork(t *testing.T) {
	orig := http.DefaultTransport
	http.DefaultTransport = failingTransport{t}
	defer func() { http.DefaultTransport = orig }()

	ctx := context.Background()
	f := newFixture(t)
	sess, err := f.svc.LoginDemo(ctx)
	require.NoError(t, err)
	assert.True(t, sess.Demo)

	_, err = sess.Store.Attendance.Report(ctx, "")
	require.NoError(t, err)
	_, err = sess.Store.Attendance.LoadAllDaily(ctx, "")
	require.NoError(t, err)
	_, err = sess.Store.Grades.Overview(ctx)
	require.NoError(t, err)
	_, err = sess.Store.Exams.Events(ctx, "")
	require.NoError(t, err)
	_, err = sess.Store.Subjects.Subjects(ctx, "")
	require.NoError(t, err)
	_, err = sess.Store.Profile.Profile(ctx)
	require.NoError(t, err)

	_, err = f.prefs.Credentials(ctx)
	assert.Equal(t, prefs.ErrNotFound, err)
}
