package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/trezcool/campuscompanion/core/session"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	headStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle  = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headStyle
			}
			return cellStyle
		})
}

func (cli *commandLine) title(format string, args ...interface{}) {
	fmt.Fprintln(cli.out, titleStyle.Render(fmt.Sprintf(format, args...)))
}

func (cli *commandLine) unavailable(msg string) {
	fmt.Fprintln(cli.out, dimStyle.Render(msg))
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (cli *commandLine) attendance(ctx context.Context, sess *session.Session, semester string) error {
	view, err := sess.Store.Attendance.Report(ctx, semester)
	if err != nil {
		return err
	}
	cli.title("Attendance %s (goal %d%%)", view.Semester.RegistrationCode, view.Goal)
	if view.Unavailable != "" {
		cli.unavailable(view.Unavailable)
		return nil
	}

	t := newTable("Subject", "Attended", "Total", "%", "Status")
	for _, s := range view.Subjects {
		status := goodStyle.Render(fmt.Sprintf("can miss %d", s.ClassesCanMiss))
		switch {
		case s.GoalUnreachable:
			status = badStyle.Render("goal unreachable")
		case s.ClassesNeeded > 0:
			status = badStyle.Render(fmt.Sprintf("attend %d more", s.ClassesNeeded))
		}
		t.Row(s.Name, strconv.Itoa(s.Attended), strconv.Itoa(s.Total), pct(s.Percentage), status)
	}
	fmt.Fprintln(cli.out, t.Render())
	return nil
}

func (cli *commandLine) daily(ctx context.Context, sess *session.Session, semester, subject string) error {
	hist, err := sess.Store.Attendance.SubjectHistory(ctx, semester, subject)
	if err != nil {
		return err
	}
	cli.title("%s, %s", hist.Code, hist.Semester.RegistrationCode)
	if len(hist.Records) == 0 {
		cli.unavailable("No classes recorded yet")
		return nil
	}

	t := newTable("Date", "Type", "Attendance", "Running %")
	for i, r := range hist.Records {
		mark := goodStyle.Render(r.Present)
		if !r.IsPresent() {
			mark = badStyle.Render(r.Present)
		}
		running := ""
		if i < len(hist.Trend) {
			running = pct(hist.Trend[i].Percentage)
		}
		t.Row(r.DateTime, r.ClassType, mark, running)
	}
	fmt.Fprintln(cli.out, t.Render())
	return nil
}

func (cli *commandLine) classes(ctx context.Context, sess *session.Session, semester string, day time.Time) error {
	view, err := sess.Store.Attendance.Report(ctx, semester)
	if err != nil {
		return err
	}
	cli.title("Classes on %s", day.Format("Mon 02 Jan 2006"))
	if view.Unavailable != "" {
		cli.unavailable(view.Unavailable)
		return nil
	}

	// partial failures still leave the fetched subjects usable
	_, loadErr := sess.Store.Attendance.LoadAllDaily(ctx, view.Semester.RegistrationID)
	classes := sess.Store.Attendance.ClassesOn(view.Semester.RegistrationID, day)
	if len(classes) == 0 {
		if loadErr != nil {
			return loadErr
		}
		cli.unavailable("No classes on this day")
		return nil
	}

	t := newTable("Subject", "Time", "Type", "Attendance")
	for _, dc := range classes {
		for _, c := range dc.Classes {
			t.Row(dc.Name, strings.TrimSpace(strings.TrimPrefix(c.DateTime, c.Day())), c.ClassType, c.Present)
		}
	}
	fmt.Fprintln(cli.out, t.Render())
	if loadErr != nil {
		cli.unavailable("Some subjects could not be loaded")
	}
	return nil
}

func (cli *commandLine) subjects(ctx context.Context, sess *session.Session, semester string) error {
	view, err := sess.Store.Subjects.Subjects(ctx, semester)
	if err != nil {
		return err
	}
	cli.title("Subjects %s (%s credits)", view.Semester.RegistrationCode, num(view.TotalCredits))
	if view.Unavailable != "" {
		cli.unavailable(view.Unavailable)
		return nil
	}

	t := newTable("Code", "Subject", "Credits", "Teachers")
	for _, s := range view.Subjects {
		teachers := make([]string, 0, len(s.Components))
		for _, c := range s.Components {
			teachers = append(teachers, c.Type+": "+c.Teacher)
		}
		name := s.Name
		if s.IsAudit {
			name += dimStyle.Render(" (audit)")
		}
		t.Row(s.Code, name, num(s.Credits), strings.Join(teachers, "\n"))
	}
	fmt.Fprintln(cli.out, t.Render())
	return nil
}

func (cli *commandLine) exams(ctx context.Context, sess *session.Session, semester, event string) error {
	events, err := sess.Store.Exams.Events(ctx, semester)
	if err != nil {
		return err
	}
	if event == "" {
		cli.title("Exam events %s", events.Semester.RegistrationCode)
		if events.Unavailable != "" {
			cli.unavailable(events.Unavailable)
			return nil
		}
		t := newTable("Event", "Description")
		for _, ev := range events.Events {
			t.Row(ev.ID, ev.Desc)
		}
		fmt.Fprintln(cli.out, t.Render())
		return nil
	}

	sched, err := sess.Store.Exams.Schedule(ctx, event)
	if err != nil {
		return err
	}
	cli.title("%s", sched.Event.Desc)
	if len(sched.Exams) == 0 {
		cli.unavailable("No exams scheduled")
		return nil
	}
	t := newTable("Date", "Time", "Subject", "Venue")
	for _, e := range sched.Exams {
		t.Row(e.DateText, e.From+" - "+e.To, e.Subject, e.Venue)
	}
	fmt.Fprintln(cli.out, t.Render())
	return nil
}

func (cli *commandLine) grades(ctx context.Context, sess *session.Session) error {
	overview, err := sess.Store.Grades.Overview(ctx)
	if err != nil {
		return err
	}
	cli.title("Grades")
	if overview.Unavailable != "" {
		cli.unavailable(overview.Unavailable)
		return nil
	}
	t := newTable("Semester", "SGPA", "CGPA", "Credits")
	for _, g := range overview.Semesters {
		t.Row(string(g.StyNumber), num(g.SGPA), num(g.CGPA), num(g.TotalCourseCredit))
	}
	fmt.Fprintln(cli.out, t.Render())
	return nil
}

func (cli *commandLine) marks(ctx context.Context, sess *session.Session, semester string) error {
	view, err := sess.Store.Grades.Marks(ctx, semester)
	if err != nil {
		return err
	}
	cli.title("Marks %s", view.Semester.RegistrationCode)
	switch {
	case view.Unavailable != "":
		cli.unavailable(view.Unavailable)
		return nil
	case len(view.Courses) == 0 && view.HasDocument:
		cli.unavailable("The marks are only available as a printable document; use the API to download it")
		return nil
	}

	t := newTable("Subject", "Exam", "Marks")
	for _, c := range view.Courses {
		exams := make([]string, 0, len(c.Exams))
		for name := range c.Exams {
			exams = append(exams, name)
		}
		sort.Strings(exams)
		for _, name := range exams {
			m := c.Exams[name]
			t.Row(c.Name, name, num(m.OM)+" / "+num(m.FM))
		}
	}
	fmt.Fprintln(cli.out, t.Render())
	return nil
}

func (cli *commandLine) profile(ctx context.Context, sess *session.Session) error {
	view, err := sess.Store.Profile.Profile(ctx)
	if err != nil {
		return err
	}
	if view.Unavailable != "" {
		cli.unavailable(view.Unavailable)
		return nil
	}
	g := view.General
	cli.title("%s", g.StudentName)
	t := newTable("Field", "Value")
	rows := [][2]string{
		{"Enrollment", g.RegistrationNo},
		{"Program", g.ProgramCode + " " + g.Branch},
		{"Batch", g.Batch},
		{"Semester", string(g.Semester)},
		{"Email", g.StudentEmailID},
		{"Phone", g.StudentCellNo},
	}
	for _, r := range rows {
		t.Row(r[0], r[1])
	}
	fmt.Fprintln(cli.out, t.Render())

	if len(view.Qualifications) > 0 {
		q := newTable("Qualification", "Board", "Year", "%")
		for _, qual := range view.Qualifications {
			q.Row(qual.QualificationCode, qual.BoardName, string(qual.YearOfPassing), string(qual.PercentageMarks))
		}
		fmt.Fprintln(cli.out, q.Render())
	}
	return nil
}
