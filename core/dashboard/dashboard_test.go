package dashboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campuscompanion/core"
	"github.com/trezcool/campuscompanion/core/fetchcache"
	"github.com/trezcool/campuscompanion/core/portal"
	testutil "github.com/trezcool/campuscompanion/tests"
)

const (
	evenSem = "DEMO2025EVESEM"
	oddSem  = "DEMO2024ODDSEM"
	oldSem  = "DEMO2024EVESEM"
)

// noLatestAttendance answers "no attendance" for the latest demo semester.
type noLatestAttendance struct {
	*testutil.CountingClient
}

func (c noLatestAttendance) Attendance(ctx context.Context, header portal.Header, sem portal.Semester) (portal.AttendanceReport, error) {
	if sem.RegistrationID == evenSem {
		sem = portal.Semester{RegistrationID: oldSem}
	}
	return c.CountingClient.Attendance(ctx, header, sem)
}

func newTestStore(t *testing.T, client portal.Client) (*Store, *testutil.RecordingLogger) {
	t.Helper()
	logger := &testutil.RecordingLogger{}
	return NewStore(client, testutil.FixedGoal(75), logger, core.Person{ID: "demo", Username: "demo"}), logger
}

func TestClassesNeeded(t *testing.T) {
	tests := []struct {
		name          string
		goal          int
		attended      int
		total         int
		wantNeeded    int
		wantReachable bool
	}{
		{name: "below goal", goal: 75, attended: 6, total: 10, wantNeeded: 6, wantReachable: true},
		{name: "at goal", goal: 75, attended: 9, total: 12, wantNeeded: 0, wantReachable: true},
		{name: "above goal", goal: 75, attended: 9, total: 10, wantNeeded: 0, wantReachable: true},
		{name: "rounds up", goal: 80, attended: 7, total: 10, wantNeeded: 5, wantReachable: true},
		{name: "no classes yet", goal: 75, attended: 0, total: 0, wantNeeded: 0, wantReachable: true},
		{name: "full goal kept", goal: 100, attended: 10, total: 10, wantNeeded: 0, wantReachable: true},
		{name: "full goal missed", goal: 100, attended: 9, total: 10, wantNeeded: 0, wantReachable: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			needed, reachable := ClassesNeeded(tc.goal, tc.attended, tc.total)
			assert.Equal(t, tc.wantNeeded, needed)
			assert.Equal(t, tc.wantReachable, reachable)
			if reachable && needed > 0 {
				assert.GreaterOrEqual(t, Percentage(tc.attended+needed, tc.total+needed), float64(tc.goal))
				assert.Less(t, Percentage(tc.attended+needed-1, tc.total+needed-1), float64(tc.goal))
			}
		})
	}
}

func TestClassesCanMiss(t *testing.T) {
	tests := []struct {
		goal, attended, total, want int
	}{
		{goal: 75, attended: 9, total: 10, want: 2},
		{goal: 75, attended: 9, total: 12, want: 0},
		{goal: 75, attended: 6, total: 10, want: 0},
		{goal: 50, attended: 10, total: 10, want: 10},
		{goal: 100, attended: 10, total: 10, want: 0},
	}

	for _, tc := range tests {
		got := ClassesCanMiss(tc.goal, tc.attended, tc.total)
		assert.Equal(t, tc.want, got, "ClassesCanMiss(%d, %d, %d)", tc.goal, tc.attended, tc.total)
		if got > 0 {
			assert.GreaterOrEqual(t, Percentage(tc.attended, tc.total+got), float64(tc.goal))
		}
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, float64(100), Percentage(0, 0))
	assert.Equal(t, float64(50), Percentage(5, 10))
}

func TestAttendance_Report(t *testing.T) {
	ctx := context.Background()
	client := testutil.NewCountingClient(t)
	store, _ := newTestStore(t, client)

	view, err := store.Attendance.Report(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, evenSem, view.Semester.RegistrationID)
	assert.Equal(t, 75, view.Goal)
	require.Len(t, view.Subjects, 4)

	os := view.Subjects[0]
	assert.Equal(t, "OPERATING SYSTEMS", os.Name)
	assert.Equal(t, 43, os.Attended)
	assert.Equal(t, 48, os.Total)
	assert.Equal(t, 9, os.ClassesCanMiss)
	assert.Equal(t, 0, os.ClassesNeeded)

	// 2025EVE -> 2024ODD -> 2025EVE fetches each semester once
	_, err = store.Attendance.Report(ctx, oddSem)
	require.NoError(t, err)
	view, err = store.Attendance.Report(ctx, evenSem)
	require.NoError(t, err)
	assert.Equal(t, evenSem, view.Semester.RegistrationID)

	assert.Equal(t, 1, client.Calls("AttendanceMeta"))
	assert.Equal(t, 2, client.Calls("Attendance"))

	sems, err := store.Attendance.Semesters(ctx)
	require.NoError(t, err)
	assert.Equal(t, evenSem, sems.Selected)
	assert.Len(t, sems.Semesters, 3)
}

func TestAttendance_initialFallback(t *testing.T) {
	ctx := context.Background()
	client := noLatestAttendance{testutil.NewCountingClient(t)}
	store, _ := newTestStore(t, client)

	view, err := store.Attendance.Report(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, oddSem, view.Semester.RegistrationID)
	assert.Empty(t, view.Unavailable)
	assert.Len(t, view.Subjects, 3)

	// an explicit choice of the empty semester does not fall back
	view, err = store.Attendance.Report(ctx, evenSem)
	require.NoError(t, err)
	assert.Equal(t, evenSem, view.Semester.RegistrationID)
	assert.Equal(t, attendanceUnavailable, view.Unavailable)
	assert.Empty(t, view.Subjects)
	assert.Equal(t, 2, client.Calls("Attendance"))
}

func TestAttendance_unavailableIsCached(t *testing.T) {
	ctx := context.Background()
	client := testutil.NewCountingClient(t)
	store, _ := newTestStore(t, client)

	for i := 0; i < 2; i++ {
		view, err := store.Attendance.Report(ctx, oldSem)
		require.NoError(t, err)
		assert.Equal(t, attendanceUnavailable, view.Unavailable)
	}
	assert.Equal(t, 1, client.Calls("Attendance"))
}

func TestAttendance_errorsAreRetried(t *testing.T) {
	ctx := context.Background()
	client := testutil.NewCountingClient(t)
	store, logger := newTestStore(t, client)

	client.Fail("Attendance", portal.ErrServiceUnavailable)
	_, err := store.Attendance.Report(ctx, oddSem)
	assert.True(t, portal.IsUnavailable(err))
	require.Len(t, logger.Entries("error"), 1)
	assert.Contains(t, logger.Entries("error")[0].Args, core.Person{ID: "demo", Username: "demo"})

	client.Fail("Attendance", nil)
	view, err := store.Attendance.Report(ctx, oddSem)
	require.NoError(t, err)
	assert.Len(t, view.Subjects, 3)
	assert.Equal(t, 2, client.Calls("Attendance"))

	_, err = store.Attendance.Report(ctx, "NOPE")
	assert.Equal(t, ErrUnknownSemester, err)
}

func TestAttendance_daily(t *testing.T) {
	ctx := context.Background()
	client := testutil.NewCountingClient(t)
	store, _ := newTestStore(t, client)

	assert.Empty(t, store.Attendance.ClassesOn(oddSem, semesterStart(t, client)))

	statuses, err := store.Attendance.LoadAllDaily(ctx, oddSem)
	require.NoError(t, err)
	assert.Len(t, statuses, 3)
	for code, st := range statuses {
		assert.Equal(t, fetchcache.StatusCached, st, code)
	}
	assert.Equal(t, 3, client.Calls("SubjectDailyAttendance"))

	history, err := store.Attendance.SubjectHistory(ctx, oddSem, "DATA STRUCTURES(15B11CI311)")
	require.NoError(t, err)
	assert.Equal(t, 3, client.Calls("SubjectDailyAttendance"))
	assert.Len(t, history.Records, 64)
	require.NotEmpty(t, history.Trend)
	assert.InDelta(t, float64(57)/64*100, history.Trend[len(history.Trend)-1].Percentage, 0.001)
	assert.Equal(t, len(history.Calendar), len(history.Trend))

	day := semesterStart(t, client)
	classes := store.Attendance.ClassesOn(oddSem, day)
	require.Len(t, classes, 3)
	assert.Equal(t, "DATA STRUCTURES", classes[0].Name)
	assert.Len(t, classes[0].Classes, 3)

	_, err = store.Attendance.SubjectHistory(ctx, oddSem, "UNKNOWN")
	assert.Equal(t, ErrUnknownSubject, errors.Cause(err))
}

func TestAttendance_concurrentHistories(t *testing.T) {
	client := testutil.NewCountingClient(t)
	client.SetDelay(20 * time.Millisecond)
	store, _ := newTestStore(t, client)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Attendance.SubjectHistory(context.Background(), oddSem, "DATA STRUCTURES(15B11CI311)")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, client.Calls("SubjectDailyAttendance"))
}

func semesterStart(t *testing.T, client *testutil.CountingClient) time.Time {
	t.Helper()
	records, err := client.Client.SubjectDailyAttendance(context.Background(), portal.Semester{RegistrationID: oddSem}, "DS311", "", nil)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	return records[0].Date()
}

func TestTrendAndCalendar(t *testing.T) {
	records := []portal.DailyAttendance{
		{DateTime: "03/08/2024 09:00", Present: "Absent"},
		{DateTime: "01/08/2024 09:00", Present: "Present"},
		{DateTime: "01/08/2024 14:00", Present: "Present"},
		{DateTime: "05/08/2024 09:00", Present: "Present"},
	}

	assert.Equal(t, []TrendPoint{
		{Date: "01/08/2024", Percentage: 100},
		{Date: "03/08/2024", Percentage: float64(2) / 3 * 100},
		{Date: "05/08/2024", Percentage: 75},
	}, Trend(records))

	assert.Equal(t, []CalendarDay{
		{Date: "01/08/2024", Present: []bool{true, true}},
		{Date: "03/08/2024", Present: []bool{false}},
		{Date: "05/08/2024", Present: []bool{true}},
	}, Calendar(records))

	assert.Empty(t, Trend(nil))
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	client := testutil.NewCountingClient(t)
	store, _ := newTestStore(t, client)

	_, err := store.Attendance.Report(ctx, oddSem)
	require.NoError(t, err)
	_, err = store.Subjects.Subjects(ctx, "")
	require.NoError(t, err)

	store.Clear()

	sems, err := store.Attendance.Semesters(ctx)
	require.NoError(t, err)
	assert.Empty(t, sems.Selected)
	assert.Equal(t, 2, client.Calls("AttendanceMeta"))

	_, err = store.Subjects.Subjects(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, client.Calls("RegisteredSubjects"))
}

func TestSubjects(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, testutil.NewCountingClient(t))

	view, err := store.Subjects.Subjects(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, evenSem, view.Semester.RegistrationID)
	assert.Equal(t, float64(14), view.TotalCredits)
	require.Len(t, view.Subjects, 5)

	os := view.Subjects[0]
	assert.Equal(t, "15B11CI412", os.Code)
	assert.Equal(t, []Component{
		{Type: "L", Teacher: "Dr. Anita Sharma"},
		{Type: "T", Teacher: "Mr. Rohit Verma"},
		{Type: "P", Teacher: "Ms. Kavya Iyer"},
	}, os.Components)
	assert.True(t, view.Subjects[4].IsAudit)

	view, err = store.Subjects.Subjects(ctx, oldSem)
	require.NoError(t, err)
	assert.Equal(t, subjectsUnavailable, view.Unavailable)
	assert.Empty(t, view.Subjects)
}

func TestExams(t *testing.T) {
	ctx := context.Background()
	client := testutil.NewCountingClient(t)
	store, _ := newTestStore(t, client)

	_, err := store.Exams.Schedule(ctx, "DEMOEV-T1-2025")
	assert.Equal(t, ErrUnknownEvent, err)

	events, err := store.Exams.Events(ctx, "")
	require.NoError(t, err)
	require.Len(t, events.Events, 2)

	schedule, err := store.Exams.Schedule(ctx, "DEMOEV-T1-2025")
	require.NoError(t, err)
	require.Len(t, schedule.Exams, 2)
	assert.Equal(t, "OPERATING SYSTEMS", schedule.Exams[0].Subject)
	assert.Equal(t, "G1-12", schedule.Exams[0].Venue)
	assert.Equal(t, "G2", schedule.Exams[1].Venue)
	assert.Equal(t, 2025, schedule.Exams[0].Date.Year())

	_, err = store.Exams.Schedule(ctx, "DEMOEV-T1-2025")
	require.NoError(t, err)
	assert.Equal(t, 1, client.Calls("ExamSchedule"))
}

func TestGrades(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, testutil.NewCountingClient(t))

	overview, err := store.Grades.Overview(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, overview.Semesters)
	assert.Empty(t, overview.Unavailable)

	card, err := store.Grades.GradeCard(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, oddSem, card.Semester.RegistrationID)
	assert.Len(t, card.Entries, 4)

	marks, err := store.Grades.Marks(ctx, "")
	require.NoError(t, err)
	assert.False(t, marks.HasDocument)

	_, _, err = store.Grades.MarksDocument(ctx, "")
	assert.True(t, portal.IsNoData(err))
}

func TestProfile(t *testing.T) {
	store, _ := newTestStore(t, testutil.NewCountingClient(t))
	view, err := store.Profile.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "99103000", view.General.RegistrationNo)
	assert.Empty(t, view.Unavailable)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "DATA STRUCTURES", displayName("DATA STRUCTURES(15B11CI311)"))
	assert.Equal(t, "ECONOMICS", displayName(" ECONOMICS "))
	assert.Equal(t, "(ODD)", displayName("(ODD)"))
}
