// Package portal describes what the dashboard needs from the student web portal.
//
// Two implementations exist: the real HTTP client (services/portal/webportal)
// and a demo client serving fixed sample data (services/portal/demo).
// Every data method requires a prior successful Login on the same Client.
package portal

import "context"

type Client interface {
	Login(ctx context.Context, username, password string) error

	AttendanceMeta(ctx context.Context) (AttendanceMeta, error)
	Attendance(ctx context.Context, header Header, sem Semester) (AttendanceReport, error)
	SubjectDailyAttendance(ctx context.Context, sem Semester, subjectID, individualSubjectCode string, componentIDs []string) ([]DailyAttendance, error)

	GradesSummary(ctx context.Context) (GradesSummary, error)
	GradeCardSemesters(ctx context.Context) ([]Semester, error)
	GradeCard(ctx context.Context, sem Semester) (GradeCard, error)
	MarksSemesters(ctx context.Context) ([]Semester, error)
	Marks(ctx context.Context, sem Semester) (MarksReport, error)

	ExamSemesters(ctx context.Context) ([]Semester, error)
	ExamEvents(ctx context.Context, sem Semester) ([]ExamEvent, error)
	ExamSchedule(ctx context.Context, event ExamEvent) ([]ExamScheduleEntry, error)

	RegisteredSemesters(ctx context.Context) ([]Semester, error)
	RegisteredSubjects(ctx context.Context, sem Semester) (RegisteredSubjects, error)

	PersonalInfo(ctx context.Context) (PersonalInfo, error)
}

// Factory builds a fresh, logged-out Client.
type Factory func() Client
