// Package dashboard keeps the per-session view state of the student dashboard.
//
// A Store holds one keyed cache per domain (attendance, grades, exams,
// subjects, profile). Records are fetched from the portal on first use and
// reused for the rest of the session; Clear drops everything on logout.
package dashboard

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/campuscompanion/core"
	"github.com/trezcool/campuscompanion/core/fetchcache"
	"github.com/trezcool/campuscompanion/core/portal"
)

// singletonKey addresses the per-session lists that are fetched once.
const singletonKey = "all"

var (
	ErrUnknownSemester = errors.New("semester not found")
	ErrUnknownEvent    = errors.New("exam event not found")
	ErrUnknownSubject  = errors.New("subject not found")
	ErrNoSemesters     = errors.New("no semesters available")
)

// GoalSource provides the attendance goal (1..100).
type GoalSource interface {
	Goal(ctx context.Context) (int, error)
}

type Store struct {
	Attendance *AttendanceService
	Grades     *GradesService
	Exams      *ExamsService
	Subjects   *SubjectsService
	Profile    *ProfileService

	clearFuncs []func()
}

// NewStore builds an empty Store on top of a logged-in portal client.
// Fetch failures that are not cached are reported to logger along with person.
func NewStore(client portal.Client, goals GoalSource, logger core.Logger, person core.Person, opts ...fetchcache.Option) *Store {
	s := &Store{}
	nc := cacheFactory{
		logger: logger,
		person: person,
		opts:   opts,
		track:  func(fn func()) { s.clearFuncs = append(s.clearFuncs, fn) },
	}
	s.Attendance = newAttendanceService(client, goals, nc)
	s.Grades = newGradesService(client, nc)
	s.Exams = newExamsService(client, nc)
	s.Subjects = newSubjectsService(client, nc)
	s.Profile = newProfileService(client, nc)
	return s
}

// Clear empties every cache and selection of the Store.
func (s *Store) Clear() {
	for _, fn := range s.clearFuncs {
		fn()
	}
}

type cacheFactory struct {
	logger core.Logger
	person core.Person
	opts   []fetchcache.Option
	track  func(fn func())
}

func newCache[V any](f cacheFactory, name string) *fetchcache.Cache[V] {
	opts := []fetchcache.Option{
		fetchcache.WithNoData(portal.IsNoData),
		fetchcache.WithMetrics(fetchcache.NewMetrics()),
		fetchcache.WithErrorHook(func(cache, key string, err error) {
			f.logger.Error(fmt.Sprintf("fetching %s[%s]", cache, key), err, f.person)
		}),
	}
	c := fetchcache.New[V](name, append(opts, f.opts...)...)
	f.track(c.Clear)
	return c
}

// semesterList loads a semester list kept under singletonKey; a negative result is an empty list.
func semesterList(ctx context.Context, c *fetchcache.Cache[[]portal.Semester], fetch fetchcache.Fetcher[[]portal.Semester]) ([]portal.Semester, error) {
	e, err := c.Load(ctx, singletonKey, fetch)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", c.Name())
	}
	if e.IsMissing() {
		return []portal.Semester{}, nil
	}
	return e.Value, nil
}

// resolveSemester picks regID, else the selection, else the first (latest) semester.
func resolveSemester(sems []portal.Semester, regID, selected string) (portal.Semester, error) {
	if regID == "" {
		regID = selected
	}
	if regID == "" {
		if len(sems) == 0 {
			return portal.Semester{}, ErrNoSemesters
		}
		return sems[0], nil
	}
	sem, ok := portal.FindSemester(sems, regID)
	if !ok {
		return portal.Semester{}, ErrUnknownSemester
	}
	return sem, nil
}
