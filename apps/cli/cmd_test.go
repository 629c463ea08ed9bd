package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campuscompanion/apps"
	"github.com/trezcool/campuscompanion/core/portal"
	"github.com/trezcool/campuscompanion/core/prefs"
	"github.com/trezcool/campuscompanion/core/session"
	"github.com/trezcool/campuscompanion/services/chat"
	"github.com/trezcool/campuscompanion/services/portal/demo"
	"github.com/trezcool/campuscompanion/storage/prefs/inmem"
	"github.com/trezcool/campuscompanion/tests"
)

type fixture struct {
	cli   *commandLine
	out   *bytes.Buffer
	prefs *inmem.Store
	// loginErr is returned by the next real portal logins when set
	loginErr error
}

func setup(t *testing.T) *fixture {
	f := &fixture{out: new(bytes.Buffer), prefs: inmem.NewStore()}
	realPortal := func() portal.Client {
		c := testutil.WrapClient(demo.NewClient())
		if f.loginErr != nil {
			c.Fail("Login", f.loginErr)
		}
		return c
	}
	svc := session.NewService(testutil.Config(t), f.prefs, realPortal, demo.NewClient, new(testutil.RecordingLogger))
	f.cli = &commandLine{svc: svc, prefs: f.prefs, asker: chat.NewDemo(), out: f.out}
	return f
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    []string
	extra      interface{}
}

func (f *fixture) runTests(t *testing.T, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"campusctl"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			f.out.Reset()
			err := f.cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Equal(t, tt.wantErrStr, err.Error())
				}
			default:
				assert.NoError(t, err)
			}
			for _, want := range tt.wantOut {
				assert.Contains(t, f.out.String(), want)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	f := setup(t)
	f.runTests(t, []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: []string{"Usage:"}},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "login without username", args: []string{"login"}, wantErr: errHelp},
		{name: "daily without subject", args: []string{"daily", "-demo"}, wantErr: errHelp},
		{name: "ask without question", args: []string{"ask"}, wantErr: errHelp},
	})
}

func Test_commandLine_login(t *testing.T) {
	f := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "username but no password", args: []string{"login", "-username", "21103123"}, wantErr: errHelp},
		{name: "login", args: []string{"login", "-username", "21103123"}, extra: extra{pwd: "secret"}, wantOut: []string{"Logged in as 21103123."}},
	}
	for _, tt := range tests {
		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}
		f.runTests(t, []cliTest{tt})
	}

	creds, err := f.prefs.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "21103123", creds.Username)

	// data commands now auto-login with the saved credentials
	f.runTests(t, []cliTest{
		{name: "attendance", args: []string{"attendance"}, wantOut: []string{"Attendance 2025EVESEM (goal 75%)", "OPERATING SYSTEMS"}},
		{name: "logout", args: []string{"logout"}, wantOut: []string{"Logged out."}},
		{name: "attendance after logout", args: []string{"attendance"}, wantErr: errNotLoggedIn},
	})
}

func Test_commandLine_login_failed(t *testing.T) {
	f := setup(t)
	f.loginErr = &portal.LoginError{Err: portal.ErrBadCredentials}
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("wrong"), nil }

	f.runTests(t, []cliTest{
		{name: "bad credentials", args: []string{"login", "-username", "21103123"}, wantErrStr: session.MsgLoginFailed},
	})
	_, err := f.prefs.Credentials(context.Background())
	assert.ErrorIs(t, err, prefs.ErrNotFound)
}

func Test_commandLine_goal(t *testing.T) {
	f := setup(t)
	f.runTests(t, []cliTest{
		{name: "default", args: []string{"goal"}, wantOut: []string{"Attendance goal: 75%"}},
		{name: "out of range", args: []string{"goal", "-set", "120"}, wantErr: apps.NewArgumentError(prefs.ErrInvalidGoal.Error())},
		{name: "set", args: []string{"goal", "-set", "80"}, wantOut: []string{"Attendance goal: 80%"}},
		{name: "attendance follows", args: []string{"attendance", "-demo"}, wantOut: []string{"(goal 80%)"}},
	})
}

func Test_commandLine_demo(t *testing.T) {
	f := setup(t)
	f.runTests(t, []cliTest{
		{name: "attendance", args: []string{"attendance", "-demo"}, wantOut: []string{"2025EVESEM", "ECONOMICS"}},
		{name: "attendance of a semester", args: []string{"attendance", "-demo", "-semester", "DEMO2024ODDSEM"}, wantOut: []string{"DATA STRUCTURES"}},
		{name: "attendance not uploaded", args: []string{"attendance", "-demo", "-semester", "DEMO2024EVESEM"}, wantOut: []string{"2024EVESEM"}},
		{name: "daily", args: []string{"daily", "-demo", "-semester", "DEMO2024ODDSEM", "-subject", "DATA STRUCTURES(15B11CI311)"}, wantOut: []string{"Lecture", "Practical", "Present"}},
		{name: "classes", args: []string{"classes", "-demo", "-date", "2025-01-06"}, wantOut: []string{"Classes on Mon 06 Jan 2025", "09:00"}},
		{name: "no classes", args: []string{"classes", "-demo", "-date", "2025-01-07"}, wantOut: []string{"No classes on this day"}},
		{name: "bad date", args: []string{"classes", "-demo", "-date", "07/01/2025"}, wantErr: apps.NewArgumentError("date must be formatted as YYYY-MM-DD")},
		{name: "subjects", args: []string{"subjects", "-demo"}, wantOut: []string{"ENVIRONMENTAL STUDIES", "(audit)", "Dr. Anita Sharma"}},
		{name: "exams", args: []string{"exams", "-demo"}, wantOut: []string{"DEMOEV-T1-2025", "T2 EXAMINATION EVEN 2025"}},
		{name: "exam schedule", args: []string{"exams", "-demo", "-event", "DEMOEV-T1-2025"}, wantOut: []string{"T1 EXAMINATION EVEN 2025", "OPERATING SYSTEMS"}},
		{name: "grades", args: []string{"grades", "-demo"}, wantOut: []string{"SGPA", "8.6"}},
		{name: "marks", args: []string{"marks", "-demo", "-semester", "DEMO2025EVESEM"}, wantOut: []string{"OPERATING SYSTEMS", "16 / 20"}},
		{name: "profile", args: []string{"profile", "-demo"}, wantOut: []string{"DEMO STUDENT", "99103000"}},
	})

	// every command ends its own session
	assert.Zero(t, f.cli.svc.Len())
}

func Test_commandLine_ask(t *testing.T) {
	f := setup(t)
	f.runTests(t, []cliTest{
		{name: "known question", args: []string{"ask", "-q", "how is the cgpa calculated"}, wantOut: []string{"credit weighted average"}},
		{name: "unknown question", args: []string{"ask", "-q", "who won the football match yesterday"}, wantOut: []string{chat.NotFound}},
	})
}

func Test_parseDate(t *testing.T) {
	day, err := parseDate("2025-01-06")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-06", day.Format("2006-01-02"))

	today, err := parseDate("")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(today.String(), today.Format("2006-01-02")))
}
