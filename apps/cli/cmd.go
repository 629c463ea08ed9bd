package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/trezcool/campuscompanion/apps"
	"github.com/trezcool/campuscompanion/core/prefs"
	"github.com/trezcool/campuscompanion/core/session"
	"github.com/trezcool/campuscompanion/services/chat"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	svc   *session.Service
	prefs prefs.Repository
	asker chat.Asker
	out   io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -username ENROLLMENT       - sign in to the portal; the password is prompted next")
	fmt.Fprintln(cli.out, "  logout                           - forget the saved credentials")
	fmt.Fprintln(cli.out, "  goal [-set GOAL]                 - show or change the attendance goal")
	fmt.Fprintln(cli.out, "  attendance [-semester ID]        - attendance per subject")
	fmt.Fprintln(cli.out, "  daily -subject CODE [-semester ID] - class-by-class attendance of a subject")
	fmt.Fprintln(cli.out, "  classes [-date YYYY-MM-DD]       - classes held on a day")
	fmt.Fprintln(cli.out, "  subjects [-semester ID]          - registered subjects")
	fmt.Fprintln(cli.out, "  exams [-semester ID] [-event ID] - exam events, or the schedule of one")
	fmt.Fprintln(cli.out, "  grades                           - SGPA and CGPA per semester")
	fmt.Fprintln(cli.out, "  marks [-semester ID]             - exam marks")
	fmt.Fprintln(cli.out, "  profile                          - personal information")
	fmt.Fprintln(cli.out, "  ask -q QUESTION                  - ask the academic rulebook assistant")
	fmt.Fprintln(cli.out, "Data commands accept -demo to use the sample data instead of the portal.")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	loginCmd := flag.NewFlagSet("login", flag.ExitOnError)
	loginUname := loginCmd.String("username", "", "The enrollment number. The password will be prompted next.")

	goalCmd := flag.NewFlagSet("goal", flag.ExitOnError)
	goalSet := goalCmd.Int("set", 0, "The new attendance goal, from 1 to 100.")

	dataCmd := flag.NewFlagSet(args[1], flag.ExitOnError)
	demo := dataCmd.Bool("demo", false, "Use the sample data.")
	semester := dataCmd.String("semester", "", "The semester registration id; the latest one by default.")
	subject := dataCmd.String("subject", "", "The subject code.")
	date := dataCmd.String("date", "", "The day, formatted as YYYY-MM-DD; today by default.")
	event := dataCmd.String("event", "", "The exam event id.")
	question := dataCmd.String("q", "", "The question.")

	ctx := context.Background()

	switch args[1] {
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginUname == "" {
			loginCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(ctx, *loginUname, string(pwd))
	case "logout":
		return cli.logout(ctx)
	case "goal":
		if err := goalCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.goal(ctx, *goalSet)
	case "ask":
		if err := dataCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *question == "" {
			dataCmd.Usage()
			return errHelp
		}
		return cli.ask(ctx, *question)
	case "attendance", "daily", "classes", "subjects", "exams", "grades", "marks", "profile":
		if err := dataCmd.Parse(args[2:]); err != nil {
			return err
		}
		sess, err := cli.open(ctx, *demo)
		if err != nil {
			return err
		}
		defer cli.close(ctx, sess)

		switch args[1] {
		case "attendance":
			return cli.attendance(ctx, sess, *semester)
		case "daily":
			if *subject == "" {
				dataCmd.Usage()
				return errHelp
			}
			return cli.daily(ctx, sess, *semester, *subject)
		case "classes":
			day, err := parseDate(*date)
			if err != nil {
				return err
			}
			return cli.classes(ctx, sess, *semester, day)
		case "subjects":
			return cli.subjects(ctx, sess, *semester)
		case "exams":
			return cli.exams(ctx, sess, *semester, *event)
		case "grades":
			return cli.grades(ctx, sess)
		case "marks":
			return cli.marks(ctx, sess, *semester)
		default:
			return cli.profile(ctx, sess)
		}
	default:
		cli.printUsage()
		return errHelp
	}
}

func parseDate(val string) (time.Time, error) {
	if val == "" {
		y, m, d := time.Now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse("2006-01-02", val)
	if err != nil {
		return time.Time{}, apps.NewArgumentError("date must be formatted as YYYY-MM-DD")
	}
	return day, nil
}
