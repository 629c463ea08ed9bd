package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/campuscompanion/apps"
	"github.com/trezcool/campuscompanion/core/prefs"
	"github.com/trezcool/campuscompanion/core/session"
)

var errNotLoggedIn = apps.NewArgumentError("not logged in: run `campusctl login -username ENROLLMENT` or pass -demo")

func (cli *commandLine) login(ctx context.Context, uname, pwd string) error {
	sess, err := cli.svc.Login(ctx, uname, pwd)
	if err != nil {
		return err
	}
	defer cli.close(ctx, sess)
	fmt.Fprintf(cli.out, "Logged in as %s.\n", sess.Username)
	return nil
}

// logout forgets the saved credentials; the attendance goal is kept.
func (cli *commandLine) logout(ctx context.Context) error {
	if err := cli.prefs.ClearCredentials(ctx); err != nil {
		return errors.Wrap(err, "clearing credentials")
	}
	fmt.Fprintln(cli.out, "Logged out.")
	return nil
}

// open starts a session for one command: the demo, or an auto-login with the saved credentials.
func (cli *commandLine) open(ctx context.Context, demo bool) (*session.Session, error) {
	if demo {
		return cli.svc.LoginDemo(ctx)
	}
	sess, err := cli.svc.Resume(ctx)
	if err != nil {
		if errors.Is(err, session.ErrNoCredentials) {
			return nil, errNotLoggedIn
		}
		return nil, err
	}
	return sess, nil
}

// close drops the in-process session without touching the saved credentials.
func (cli *commandLine) close(_ context.Context, sess *session.Session) {
	cli.svc.Drop(sess.ID)
}

func (cli *commandLine) goal(ctx context.Context, set int) error {
	if set != 0 {
		if err := prefs.ValidateGoal(set); err != nil {
			return apps.NewArgumentError(err.Error())
		}
		if err := cli.prefs.SetGoal(ctx, set); err != nil {
			return errors.Wrap(err, "setting attendance goal")
		}
	}
	goal, err := cli.prefs.Goal(ctx)
	if err != nil {
		return errors.Wrap(err, "getting attendance goal")
	}
	fmt.Fprintf(cli.out, "Attendance goal: %d%%\n", goal)
	return nil
}

func (cli *commandLine) ask(ctx context.Context, question string) error {
	answer, err := cli.asker.Ask(ctx, question)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, answer)
	return nil
}
