package dashboard

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/campuscompanion/core/fetchcache"
	"github.com/trezcool/campuscompanion/core/portal"
)

const (
	gradesUnavailable    = "Grade sheet is not available"
	gradeCardUnavailable = "Grade card not available for this semester"
	marksUnavailable     = "Marks not available for this semester"
)

type GradesService struct {
	client portal.Client

	summary   *fetchcache.Cache[portal.GradesSummary]
	cardSems  *fetchcache.Cache[[]portal.Semester]
	cards     *fetchcache.Cache[portal.GradeCard]
	marksSems *fetchcache.Cache[[]portal.Semester]
	marks     *fetchcache.Cache[portal.MarksReport]
}

func newGradesService(client portal.Client, nc cacheFactory) *GradesService {
	return &GradesService{
		client:    client,
		summary:   newCache[portal.GradesSummary](nc, "grades_summary"),
		cardSems:  newCache[[]portal.Semester](nc, "grade_card_semesters"),
		cards:     newCache[portal.GradeCard](nc, "grade_cards"),
		marksSems: newCache[[]portal.Semester](nc, "marks_semesters"),
		marks:     newCache[portal.MarksReport](nc, "marks"),
	}
}

type (
	GradesOverview struct {
		Semesters   []portal.SemesterGrade `json:"semesters"`
		Unavailable string                 `json:"unavailable,omitempty"`
	}

	GradeCardView struct {
		Semester    portal.Semester         `json:"semester"`
		Entries     []portal.GradeCardEntry `json:"entries"`
		Unavailable string                  `json:"unavailable,omitempty"`
	}

	MarksView struct {
		Semester    portal.Semester      `json:"semester"`
		Courses     []portal.CourseMarks `json:"courses"`
		HasDocument bool                 `json:"has_document"`
		Unavailable string               `json:"unavailable,omitempty"`
	}
)

// Overview returns the SGPA/CGPA of every semester.
func (s *GradesService) Overview(ctx context.Context) (GradesOverview, error) {
	e, err := s.summary.Load(ctx, singletonKey, s.client.GradesSummary)
	if err != nil {
		return GradesOverview{}, errors.Wrap(err, "loading grades summary")
	}
	if e.IsMissing() || len(e.Value.Semesters) == 0 {
		return GradesOverview{Semesters: []portal.SemesterGrade{}, Unavailable: gradesUnavailable}, nil
	}
	return GradesOverview{Semesters: e.Value.Semesters}, nil
}

func (s *GradesService) GradeCardSemesters(ctx context.Context) ([]portal.Semester, error) {
	return semesterList(ctx, s.cardSems, s.client.GradeCardSemesters)
}

// GradeCard returns and selects the grade card of regID; empty means the selection or the latest semester.
func (s *GradesService) GradeCard(ctx context.Context, regID string) (GradeCardView, error) {
	sems, err := s.GradeCardSemesters(ctx)
	if err != nil {
		return GradeCardView{}, err
	}
	sem, err := resolveSemester(sems, regID, s.cards.Selected())
	if err != nil {
		if err == ErrNoSemesters {
			return GradeCardView{Entries: []portal.GradeCardEntry{}, Unavailable: gradeCardUnavailable}, nil
		}
		return GradeCardView{}, err
	}
	s.cards.Select(sem.RegistrationID)

	e, err := s.cards.Load(ctx, sem.RegistrationID, func(ctx context.Context) (portal.GradeCard, error) {
		return s.client.GradeCard(ctx, sem)
	})
	if err != nil {
		return GradeCardView{}, errors.Wrapf(err, "loading grade card of %s", sem.RegistrationCode)
	}
	v := GradeCardView{Semester: sem, Entries: e.Value.Entries}
	if e.IsMissing() {
		v.Unavailable = gradeCardUnavailable
	}
	if v.Entries == nil {
		v.Entries = []portal.GradeCardEntry{}
	}
	return v, nil
}

func (s *GradesService) MarksSemesters(ctx context.Context) ([]portal.Semester, error) {
	return semesterList(ctx, s.marksSems, s.client.MarksSemesters)
}

// Marks returns and selects the marks of regID; empty means the selection or the latest semester.
func (s *GradesService) Marks(ctx context.Context, regID string) (MarksView, error) {
	sem, e, err := s.loadMarks(ctx, regID)
	if err != nil {
		if err == ErrNoSemesters {
			return MarksView{Courses: []portal.CourseMarks{}, Unavailable: marksUnavailable}, nil
		}
		return MarksView{}, err
	}
	v := MarksView{Semester: sem, Courses: e.Value.Courses, HasDocument: len(e.Value.Document) > 0}
	if e.IsMissing() {
		v.Unavailable = marksUnavailable
	}
	if v.Courses == nil {
		v.Courses = []portal.CourseMarks{}
	}
	return v, nil
}

// MarksDocument returns the printable marks statement of regID.
func (s *GradesService) MarksDocument(ctx context.Context, regID string) ([]byte, string, error) {
	_, e, err := s.loadMarks(ctx, regID)
	if err != nil {
		return nil, "", err
	}
	if e.IsMissing() || len(e.Value.Document) == 0 {
		return nil, "", portal.ErrNoData
	}
	return e.Value.Document, e.Value.ContentType, nil
}

func (s *GradesService) loadMarks(ctx context.Context, regID string) (portal.Semester, fetchcache.Entry[portal.MarksReport], error) {
	var e fetchcache.Entry[portal.MarksReport]
	sems, err := s.MarksSemesters(ctx)
	if err != nil {
		return portal.Semester{}, e, err
	}
	sem, err := resolveSemester(sems, regID, s.marks.Selected())
	if err != nil {
		return portal.Semester{}, e, err
	}
	s.marks.Select(sem.RegistrationID)

	e, err = s.marks.Load(ctx, sem.RegistrationID, func(ctx context.Context) (portal.MarksReport, error) {
		return s.client.Marks(ctx, sem)
	})
	if err != nil {
		return portal.Semester{}, e, errors.Wrapf(err, "loading marks of %s", sem.RegistrationCode)
	}
	return sem, e, nil
}
