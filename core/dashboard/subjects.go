package dashboard

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/campuscompanion/core/fetchcache"
	"github.com/trezcool/campuscompanion/core/portal"
)

const subjectsUnavailable = "No registered subjects for this semester"

type SubjectsService struct {
	client portal.Client

	sems     *fetchcache.Cache[[]portal.Semester]
	subjects *fetchcache.Cache[portal.RegisteredSubjects]
}

func newSubjectsService(client portal.Client, nc cacheFactory) *SubjectsService {
	return &SubjectsService{
		client:   client,
		sems:     newCache[[]portal.Semester](nc, "registered_semesters"),
		subjects: newCache[portal.RegisteredSubjects](nc, "registered_subjects"),
	}
}

type (
	SubjectsView struct {
		Semester     portal.Semester `json:"semester"`
		Subjects     []SubjectInfo   `json:"subjects"`
		TotalCredits float64         `json:"total_credits"`
		Unavailable  string          `json:"unavailable,omitempty"`
	}

	SubjectInfo struct {
		Code       string      `json:"code"`
		Name       string      `json:"name"`
		Credits    float64     `json:"credits"`
		IsAudit    bool        `json:"is_audit"`
		Components []Component `json:"components"`
	}

	// Component is one teaching part of a subject (lecture, tutorial, practical) and who teaches it.
	Component struct {
		Type    string `json:"type"`
		Teacher string `json:"teacher"`
	}
)

func (s *SubjectsService) Semesters(ctx context.Context) ([]portal.Semester, error) {
	return semesterList(ctx, s.sems, s.client.RegisteredSemesters)
}

// Subjects returns and selects the registered subjects of regID; empty means the selection or the latest semester.
func (s *SubjectsService) Subjects(ctx context.Context, regID string) (SubjectsView, error) {
	sems, err := s.Semesters(ctx)
	if err != nil {
		return SubjectsView{}, err
	}
	sem, err := resolveSemester(sems, regID, s.subjects.Selected())
	if err != nil {
		if err == ErrNoSemesters {
			return SubjectsView{Subjects: []SubjectInfo{}, Unavailable: subjectsUnavailable}, nil
		}
		return SubjectsView{}, err
	}
	s.subjects.Select(sem.RegistrationID)

	e, err := s.subjects.Load(ctx, sem.RegistrationID, func(ctx context.Context) (portal.RegisteredSubjects, error) {
		return s.client.RegisteredSubjects(ctx, sem)
	})
	if err != nil {
		return SubjectsView{}, errors.Wrapf(err, "loading subjects of %s", sem.RegistrationCode)
	}
	v := SubjectsView{Semester: sem, Subjects: GroupSubjects(e.Value.Subjects), TotalCredits: e.Value.TotalCredits}
	if e.IsMissing() {
		v.Unavailable = subjectsUnavailable
	}
	return v, nil
}

// GroupSubjects merges the per-component rows of the portal into one entry per subject code,
// keeping the portal order.
func GroupSubjects(rows []portal.RegisteredSubject) []SubjectInfo {
	out := []SubjectInfo{}
	index := make(map[string]int, len(rows))
	for _, r := range rows {
		i, ok := index[r.SubjectCode]
		if !ok {
			i = len(out)
			index[r.SubjectCode] = i
			out = append(out, SubjectInfo{
				Code:       r.SubjectCode,
				Name:       r.SubjectDesc,
				Credits:    r.Credits,
				IsAudit:    r.AuditSubject == "Y",
				Components: []Component{},
			})
		}
		out[i].Components = append(out[i].Components, Component{Type: r.ComponentCode, Teacher: r.EmployeeName})
	}
	return out
}
