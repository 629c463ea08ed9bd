package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/campuscompanion/core"
	"github.com/trezcool/campuscompanion/core/portal"
	"github.com/trezcool/campuscompanion/services/portal/demo"
)

// CountingClient wraps a portal.Client and counts the calls per method.
// Failures set in Fail are returned instead of calling the wrapped client.
type CountingClient struct {
	portal.Client

	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
	delay time.Duration
}

// NewCountingClient wraps a logged-in demo client.
func NewCountingClient(t *testing.T) *CountingClient {
	t.Helper()
	c := demo.NewClient()
	if err := c.Login(context.Background(), demo.Username, "demo"); err != nil {
		t.Fatalf("NewCountingClient() failed: %v", err)
	}
	return WrapClient(c)
}

func WrapClient(c portal.Client) *CountingClient {
	return &CountingClient{Client: c, calls: map[string]int{}, fail: map[string]error{}}
}

// Fail makes every call of method return err; a nil err restores it.
func (c *CountingClient) Fail(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.fail, method)
		return
	}
	c.fail[method] = err
}

// SetDelay slows every call down by d.
func (c *CountingClient) SetDelay(d time.Duration) {
	c.mu.Lock()
	c.delay = d
	c.mu.Unlock()
}

func (c *CountingClient) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

func (c *CountingClient) record(method string) error {
	c.mu.Lock()
	c.calls[method]++
	err, delay := c.fail[method], c.delay
	c.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return err
}

func (c *CountingClient) Login(ctx context.Context, username, password string) error {
	if err := c.record("Login"); err != nil {
		return err
	}
	return c.Client.Login(ctx, username, password)
}

func (c *CountingClient) AttendanceMeta(ctx context.Context) (portal.AttendanceMeta, error) {
	if err := c.record("AttendanceMeta"); err != nil {
		return portal.AttendanceMeta{}, err
	}
	return c.Client.AttendanceMeta(ctx)
}

func (c *CountingClient) Attendance(ctx context.Context, header portal.Header, sem portal.Semester) (portal.AttendanceReport, error) {
	if err := c.record("Attendance"); err != nil {
		return portal.AttendanceReport{}, err
	}
	return c.Client.Attendance(ctx, header, sem)
}

func (c *CountingClient) SubjectDailyAttendance(ctx context.Context, sem portal.Semester, subjectID, individualSubjectCode string, componentIDs []string) ([]portal.DailyAttendance, error) {
	if err := c.record("SubjectDailyAttendance"); err != nil {
		return nil, err
	}
	return c.Client.SubjectDailyAttendance(ctx, sem, subjectID, individualSubjectCode, componentIDs)
}

func (c *CountingClient) GradesSummary(ctx context.Context) (portal.GradesSummary, error) {
	if err := c.record("GradesSummary"); err != nil {
		return portal.GradesSummary{}, err
	}
	return c.Client.GradesSummary(ctx)
}

func (c *CountingClient) GradeCardSemesters(ctx context.Context) ([]portal.Semester, error) {
	if err := c.record("GradeCardSemesters"); err != nil {
		return nil, err
	}
	return c.Client.GradeCardSemesters(ctx)
}

func (c *CountingClient) GradeCard(ctx context.Context, sem portal.Semester) (portal.GradeCard, error) {
	if err := c.record("GradeCard"); err != nil {
		return portal.GradeCard{}, err
	}
	return c.Client.GradeCard(ctx, sem)
}

func (c *CountingClient) MarksSemesters(ctx context.Context) ([]portal.Semester, error) {
	if err := c.record("MarksSemesters"); err != nil {
		return nil, err
	}
	return c.Client.MarksSemesters(ctx)
}

func (c *CountingClient) Marks(ctx context.Context, sem portal.Semester) (portal.MarksReport, error) {
	if err := c.record("Marks"); err != nil {
		return portal.MarksReport{}, err
	}
	return c.Client.Marks(ctx, sem)
}

func (c *CountingClient) ExamSemesters(ctx context.Context) ([]portal.Semester, error) {
	if err := c.record("ExamSemesters"); err != nil {
		return nil, err
	}
	return c.Client.ExamSemesters(ctx)
}

func (c *CountingClient) ExamEvents(ctx context.Context, sem portal.Semester) ([]portal.ExamEvent, error) {
	if err := c.record("ExamEvents"); err != nil {
		return nil, err
	}
	return c.Client.ExamEvents(ctx, sem)
}

func (c *CountingClient) ExamSchedule(ctx context.Context, event portal.ExamEvent) ([]portal.ExamScheduleEntry, error) {
	if err := c.record("ExamSchedule"); err != nil {
		return nil, err
	}
	return c.Client.ExamSchedule(ctx, event)
}

func (c *CountingClient) RegisteredSemesters(ctx context.Context) ([]portal.Semester, error) {
	if err := c.record("RegisteredSemesters"); err != nil {
		return nil, err
	}
	return c.Client.RegisteredSemesters(ctx)
}

func (c *CountingClient) RegisteredSubjects(ctx context.Context, sem portal.Semester) (portal.RegisteredSubjects, error) {
	if err := c.record("RegisteredSubjects"); err != nil {
		return portal.RegisteredSubjects{}, err
	}
	return c.Client.RegisteredSubjects(ctx, sem)
}

func (c *CountingClient) PersonalInfo(ctx context.Context) (portal.PersonalInfo, error) {
	if err := c.record("PersonalInfo"); err != nil {
		return portal.PersonalInfo{}, err
	}
	return c.Client.PersonalInfo(ctx)
}

// FixedGoal is a dashboard.GoalSource always answering the same goal.
type FixedGoal int

func (g FixedGoal) Goal(context.Context) (int, error) {
	return int(g), nil
}

// Entry is one call recorded by a RecordingLogger.
type Entry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// RecordingLogger is a core.Logger keeping every entry in memory.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []Entry
}

var _ core.Logger = (*RecordingLogger)(nil)

func (l *RecordingLogger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	l.entries = append(l.entries, Entry{Level: level, Msg: msg, Args: args})
	l.mu.Unlock()
}

func (l *RecordingLogger) Entries(level string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Entry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (l *RecordingLogger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *RecordingLogger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *RecordingLogger) Warn(msg string, args ...interface{})  { l.log("warning", msg, args) }
func (l *RecordingLogger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *RecordingLogger) Fatal(msg string, args ...interface{}) { l.log("critical", msg, args) }

// Config returns a test configuration with no network backends.
func Config(t *testing.T) *core.Config {
	t.Helper()
	conf := core.NewConfig()
	conf.TestMode = true
	conf.SecretKey = "test-secret-key"
	conf.Portal.Offline = false
	conf.Chat.Demo = true
	conf.Prefs.Path = ""
	conf.Server.DisableReqLogs = true
	return conf
}
