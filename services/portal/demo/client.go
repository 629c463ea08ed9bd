// Package demo is a portal.Client serving fixed sample data without any network access.
package demo

import (
	"context"
	"sync"

	"github.com/trezcool/campuscompanion/core/portal"
)

const Username = "demo"

type client struct {
	mu       sync.RWMutex
	loggedIn bool
}

var _ portal.Client = (*client)(nil)

// NewClient returns a logged-out demo client. Any credentials are accepted.
func NewClient() portal.Client {
	return &client{}
}

func (c *client) Login(ctx context.Context, _, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.loggedIn = true
	c.mu.Unlock()
	return nil
}

func (c *client) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loggedIn {
		return portal.ErrNotLoggedIn
	}
	return nil
}

func (c *client) AttendanceMeta(ctx context.Context) (portal.AttendanceMeta, error) {
	if err := c.check(ctx); err != nil {
		return portal.AttendanceMeta{}, err
	}
	return portal.AttendanceMeta{
		Headers:   []portal.Header{header},
		Semesters: cloneSemesters(semesters),
	}, nil
}

func (c *client) Attendance(ctx context.Context, _ portal.Header, sem portal.Semester) (portal.AttendanceReport, error) {
	if err := c.check(ctx); err != nil {
		return portal.AttendanceReport{}, err
	}
	subjects, ok := attendance[sem.RegistrationID]
	if !ok {
		return portal.AttendanceReport{}, portal.ErrNoAttendance
	}
	return portal.AttendanceReport{Subjects: append([]portal.SubjectAttendance(nil), subjects...)}, nil
}

func (c *client) SubjectDailyAttendance(ctx context.Context, sem portal.Semester, subjectID, _ string, _ []string) ([]portal.DailyAttendance, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	for _, subj := range attendance[sem.RegistrationID] {
		if subj.SubjectID == subjectID {
			return dailyRecords(subj), nil
		}
	}
	return nil, &portal.NoDataError{Message: "NO Attendance Found"}
}

func (c *client) GradesSummary(ctx context.Context) (portal.GradesSummary, error) {
	if err := c.check(ctx); err != nil {
		return portal.GradesSummary{}, err
	}
	return portal.GradesSummary{Semesters: append([]portal.SemesterGrade(nil), grades...)}, nil
}

func (c *client) GradeCardSemesters(ctx context.Context) ([]portal.Semester, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	return cloneSemesters(semesters[1:]), nil
}

func (c *client) GradeCard(ctx context.Context, sem portal.Semester) (portal.GradeCard, error) {
	if err := c.check(ctx); err != nil {
		return portal.GradeCard{}, err
	}
	entries, ok := gradeCards[sem.RegistrationID]
	if !ok {
		return portal.GradeCard{}, &portal.NoDataError{Message: "Grade card not found"}
	}
	return portal.GradeCard{Entries: append([]portal.GradeCardEntry(nil), entries...)}, nil
}

func (c *client) MarksSemesters(ctx context.Context) ([]portal.Semester, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	return cloneSemesters(semesters), nil
}

func (c *client) Marks(ctx context.Context, sem portal.Semester) (portal.MarksReport, error) {
	if err := c.check(ctx); err != nil {
		return portal.MarksReport{}, err
	}
	courses, ok := marks[sem.RegistrationID]
	if !ok {
		return portal.MarksReport{}, &portal.NoDataError{Message: "Marks not found"}
	}
	return portal.MarksReport{Courses: append([]portal.CourseMarks(nil), courses...)}, nil
}

func (c *client) ExamSemesters(ctx context.Context) ([]portal.Semester, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	return cloneSemesters(semesters), nil
}

func (c *client) ExamEvents(ctx context.Context, sem portal.Semester) ([]portal.ExamEvent, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	return append([]portal.ExamEvent(nil), examEvents[sem.RegistrationID]...), nil
}

func (c *client) ExamSchedule(ctx context.Context, event portal.ExamEvent) ([]portal.ExamScheduleEntry, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	return append([]portal.ExamScheduleEntry(nil), examSchedules[event.ID]...), nil
}

func (c *client) RegisteredSemesters(ctx context.Context) ([]portal.Semester, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	return cloneSemesters(semesters), nil
}

func (c *client) RegisteredSubjects(ctx context.Context, sem portal.Semester) (portal.RegisteredSubjects, error) {
	if err := c.check(ctx); err != nil {
		return portal.RegisteredSubjects{}, err
	}
	rows, ok := registeredSubjects[sem.RegistrationID]
	if !ok {
		return portal.RegisteredSubjects{}, &portal.NoDataError{Message: "No subjects registered"}
	}
	var total float64
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if !seen[r.SubjectCode] {
			seen[r.SubjectCode] = true
			total += r.Credits
		}
	}
	return portal.RegisteredSubjects{Subjects: append([]portal.RegisteredSubject(nil), rows...), TotalCredits: total}, nil
}

func (c *client) PersonalInfo(ctx context.Context) (portal.PersonalInfo, error) {
	if err := c.check(ctx); err != nil {
		return portal.PersonalInfo{}, err
	}
	info := profile
	info.Qualifications = append([]portal.Qualification(nil), profile.Qualifications...)
	return info, nil
}

func cloneSemesters(sems []portal.Semester) []portal.Semester {
	return append([]portal.Semester(nil), sems...)
}
