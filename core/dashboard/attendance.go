package dashboard

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/campuscompanion/core/fetchcache"
	"github.com/trezcool/campuscompanion/core/portal"
)

const (
	attendanceUnavailable = "Attendance not available for this semester"

	// dailyConcurrency caps the daily attendance fetches running at once.
	dailyConcurrency = 4
)

type AttendanceService struct {
	client portal.Client
	goals  GoalSource

	meta    *fetchcache.Cache[portal.AttendanceMeta]
	reports *fetchcache.Cache[portal.AttendanceReport]
	daily   *fetchcache.Cache[[]portal.DailyAttendance]

	initMu sync.Mutex
}

func newAttendanceService(client portal.Client, goals GoalSource, nc cacheFactory) *AttendanceService {
	return &AttendanceService{
		client:  client,
		goals:   goals,
		meta:    newCache[portal.AttendanceMeta](nc, "attendance_meta"),
		reports: newCache[portal.AttendanceReport](nc, "attendance"),
		daily:   newCache[[]portal.DailyAttendance](nc, "attendance_daily"),
	}
}

type (
	AttendanceSemesters struct {
		Semesters      []portal.Semester `json:"semesters"`
		LatestHeader   portal.Header     `json:"latest_header"`
		LatestSemester portal.Semester   `json:"latest_semester"`
		Selected       string            `json:"selected,omitempty"`
	}

	AttendanceView struct {
		Semester    portal.Semester  `json:"semester"`
		Goal        int              `json:"goal"`
		Unavailable string           `json:"unavailable,omitempty"`
		Subjects    []SubjectSummary `json:"subjects"`
	}

	SubjectSummary struct {
		Code            string  `json:"code"`
		Name            string  `json:"name"`
		Attended        int     `json:"attended"`
		Total           int     `json:"total"`
		Percentage      float64 `json:"percentage"`
		Combined        float64 `json:"combined"`
		Lecture         float64 `json:"lecture"`
		Tutorial        float64 `json:"tutorial"`
		Practical       float64 `json:"practical"`
		ClassesNeeded   int     `json:"classes_needed"`
		ClassesCanMiss  int     `json:"classes_can_miss"`
		GoalUnreachable bool    `json:"goal_unreachable,omitempty"`
	}

	SubjectHistory struct {
		Semester portal.Semester          `json:"semester"`
		Code     string                   `json:"code"`
		Status   fetchcache.Status        `json:"status"`
		Records  []portal.DailyAttendance `json:"records"`
		Trend    []TrendPoint             `json:"trend"`
		Calendar []CalendarDay            `json:"calendar"`
	}

	TrendPoint struct {
		Date       string  `json:"date"`
		Percentage float64 `json:"percentage"`
	}

	CalendarDay struct {
		Date    string `json:"date"`
		Present []bool `json:"present"`
	}

	DayClasses struct {
		Code    string                   `json:"code"`
		Name    string                   `json:"name"`
		Classes []portal.DailyAttendance `json:"classes"`
	}
)

// Semesters returns the attendance semesters, fetched once per session.
func (s *AttendanceService) Semesters(ctx context.Context) (AttendanceSemesters, error) {
	meta, err := s.loadMeta(ctx)
	if err != nil {
		return AttendanceSemesters{}, err
	}
	out := AttendanceSemesters{Semesters: meta.Semesters, Selected: s.reports.Selected()}
	if out.Semesters == nil {
		out.Semesters = []portal.Semester{}
	}
	out.LatestHeader, _ = meta.LatestHeader()
	out.LatestSemester, _ = meta.LatestSemester()
	return out, nil
}

// Report returns the attendance of regID and selects it.
// With an empty regID the current selection is used; the very first load picks the
// latest semester, or the previous one when the latest has no attendance yet.
func (s *AttendanceService) Report(ctx context.Context, regID string) (AttendanceView, error) {
	meta, err := s.loadMeta(ctx)
	if err != nil {
		return AttendanceView{}, err
	}
	if len(meta.Semesters) == 0 {
		return AttendanceView{Unavailable: attendanceUnavailable, Subjects: []SubjectSummary{}}, nil
	}

	if regID == "" {
		regID = s.reports.Selected()
	}
	if regID == "" {
		return s.initialReport(ctx, meta)
	}

	sem, ok := portal.FindSemester(meta.Semesters, regID)
	if !ok {
		return AttendanceView{}, ErrUnknownSemester
	}
	s.reports.Select(regID)
	e, err := s.loadReport(ctx, meta, sem)
	if err != nil {
		return AttendanceView{}, err
	}
	return s.view(ctx, sem, e)
}

func (s *AttendanceService) initialReport(ctx context.Context, meta portal.AttendanceMeta) (AttendanceView, error) {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	// another request may have finished the initial load meanwhile
	if sel := s.reports.Selected(); sel != "" {
		if sem, ok := portal.FindSemester(meta.Semesters, sel); ok {
			e, err := s.loadReport(ctx, meta, sem)
			if err != nil {
				return AttendanceView{}, err
			}
			return s.view(ctx, sem, e)
		}
	}

	sem := meta.Semesters[0]
	e, err := s.loadReport(ctx, meta, sem)
	if err != nil {
		return AttendanceView{}, err
	}
	if e.IsMissing() && len(meta.Semesters) > 1 {
		sem = meta.Semesters[1]
		if e, err = s.loadReport(ctx, meta, sem); err != nil {
			return AttendanceView{}, err
		}
	}
	s.reports.Select(sem.RegistrationID)
	return s.view(ctx, sem, e)
}

// SubjectHistory returns the class-by-class records of a subject with its trend and calendar.
func (s *AttendanceService) SubjectHistory(ctx context.Context, regID, code string) (SubjectHistory, error) {
	sem, records, err := s.subjectDaily(ctx, regID, code)
	if err != nil {
		return SubjectHistory{}, err
	}
	return SubjectHistory{
		Semester: sem,
		Code:     code,
		Status:   s.daily.Status(dailyKey(sem.RegistrationID, code)),
		Records:  records,
		Trend:    Trend(records),
		Calendar: Calendar(records),
	}, nil
}

// LoadAllDaily fetches the daily records of every subject of regID concurrently.
// Statuses are reported per subject code even when some fetches failed.
func (s *AttendanceService) LoadAllDaily(ctx context.Context, regID string) (map[string]fetchcache.Status, error) {
	meta, err := s.loadMeta(ctx)
	if err != nil {
		return nil, err
	}
	sem, err := resolveSemester(meta.Semesters, regID, s.reports.Selected())
	if err != nil {
		return nil, err
	}
	e, err := s.loadReport(ctx, meta, sem)
	if err != nil {
		return nil, err
	}

	var g errgroup.Group
	g.SetLimit(dailyConcurrency)
	for _, subj := range e.Value.Subjects {
		code := subj.SubjectCode
		g.Go(func() error {
			_, _, err := s.subjectDaily(ctx, sem.RegistrationID, code)
			return err
		})
	}
	err = g.Wait()

	statuses := make(map[string]fetchcache.Status, len(e.Value.Subjects))
	for _, subj := range e.Value.Subjects {
		statuses[subj.SubjectCode] = s.daily.Status(dailyKey(sem.RegistrationID, subj.SubjectCode))
	}
	return statuses, errors.Wrap(err, "loading daily attendance")
}

// ClassesOn lists, per subject, the classes held on day. Only already fetched records are used.
func (s *AttendanceService) ClassesOn(regID string, day time.Time) []DayClasses {
	if regID == "" {
		regID = s.reports.Selected()
	}
	out := []DayClasses{}
	e, ok := s.reports.Get(regID)
	if !ok || e.IsMissing() {
		return out
	}

	prefix := day.Format(portal.DateLayout)
	for _, subj := range e.Value.Subjects {
		de, ok := s.daily.Get(dailyKey(regID, subj.SubjectCode))
		if !ok {
			continue
		}
		var classes []portal.DailyAttendance
		for _, c := range de.Value {
			if strings.HasPrefix(c.DateTime, prefix) {
				classes = append(classes, c)
			}
		}
		if len(classes) > 0 {
			out = append(out, DayClasses{Code: subj.SubjectCode, Name: displayName(subj.SubjectCode), Classes: classes})
		}
	}
	return out
}

func (s *AttendanceService) subjectDaily(ctx context.Context, regID, code string) (portal.Semester, []portal.DailyAttendance, error) {
	meta, err := s.loadMeta(ctx)
	if err != nil {
		return portal.Semester{}, nil, err
	}
	sem, err := resolveSemester(meta.Semesters, regID, s.reports.Selected())
	if err != nil {
		return portal.Semester{}, nil, err
	}
	e, err := s.loadReport(ctx, meta, sem)
	if err != nil {
		return portal.Semester{}, nil, err
	}

	var subj *portal.SubjectAttendance
	for i := range e.Value.Subjects {
		if e.Value.Subjects[i].SubjectCode == code {
			subj = &e.Value.Subjects[i]
			break
		}
	}
	if subj == nil {
		return portal.Semester{}, nil, ErrUnknownSubject
	}

	de, err := s.daily.Load(ctx, dailyKey(sem.RegistrationID, code), func(ctx context.Context) ([]portal.DailyAttendance, error) {
		return s.client.SubjectDailyAttendance(ctx, sem, subj.SubjectID, subj.IndividualSubjectCode, subj.ComponentIDs())
	})
	if err != nil {
		return portal.Semester{}, nil, errors.Wrapf(err, "loading daily attendance of %s", code)
	}
	if de.IsMissing() || de.Value == nil {
		return sem, []portal.DailyAttendance{}, nil
	}
	return sem, de.Value, nil
}

func (s *AttendanceService) loadMeta(ctx context.Context) (portal.AttendanceMeta, error) {
	e, err := s.meta.Load(ctx, singletonKey, s.client.AttendanceMeta)
	if err != nil {
		return portal.AttendanceMeta{}, errors.Wrap(err, "loading attendance meta")
	}
	return e.Value, nil
}

func (s *AttendanceService) loadReport(ctx context.Context, meta portal.AttendanceMeta, sem portal.Semester) (fetchcache.Entry[portal.AttendanceReport], error) {
	header, _ := meta.LatestHeader()
	e, err := s.reports.Load(ctx, sem.RegistrationID, func(ctx context.Context) (portal.AttendanceReport, error) {
		return s.client.Attendance(ctx, header, sem)
	})
	return e, errors.Wrapf(err, "loading attendance of %s", sem.RegistrationCode)
}

func (s *AttendanceService) view(ctx context.Context, sem portal.Semester, e fetchcache.Entry[portal.AttendanceReport]) (AttendanceView, error) {
	goal, err := s.goals.Goal(ctx)
	if err != nil {
		return AttendanceView{}, errors.Wrap(err, "getting attendance goal")
	}
	v := AttendanceView{Semester: sem, Goal: goal, Subjects: []SubjectSummary{}}
	if e.IsMissing() {
		v.Unavailable = attendanceUnavailable
		return v, nil
	}
	for _, subj := range e.Value.Subjects {
		v.Subjects = append(v.Subjects, summarize(subj, goal))
	}
	return v, nil
}

func summarize(subj portal.SubjectAttendance, goal int) SubjectSummary {
	attended := int(math.Round(subj.LTotalPres + subj.TTotalPres + subj.PTotalPres))
	total := int(math.Round(subj.LTotalClass + subj.TTotalClass + subj.PTotalClass))
	needed, reachable := ClassesNeeded(goal, attended, total)
	return SubjectSummary{
		Code:            subj.SubjectCode,
		Name:            displayName(subj.SubjectCode),
		Attended:        attended,
		Total:           total,
		Percentage:      Percentage(attended, total),
		Combined:        subj.LTPercentage,
		Lecture:         subj.LPercentage,
		Tutorial:        subj.TPercentage,
		Practical:       subj.PPercentage,
		ClassesNeeded:   needed,
		ClassesCanMiss:  ClassesCanMiss(goal, attended, total),
		GoalUnreachable: !reachable,
	}
}

// Trend is the cumulative attendance percentage after each class day, in date order.
func Trend(records []portal.DailyAttendance) []TrendPoint {
	sorted := sortByDate(records)
	points := []TrendPoint{}
	var present, total int
	for _, r := range sorted {
		total++
		if r.IsPresent() {
			present++
		}
		pct := float64(present) / float64(total) * 100
		if n := len(points); n > 0 && points[n-1].Date == r.Day() {
			points[n-1].Percentage = pct
			continue
		}
		points = append(points, TrendPoint{Date: r.Day(), Percentage: pct})
	}
	return points
}

// Calendar groups the present/absent marks of each class day, in date order.
func Calendar(records []portal.DailyAttendance) []CalendarDay {
	sorted := sortByDate(records)
	days := []CalendarDay{}
	for _, r := range sorted {
		if n := len(days); n > 0 && days[n-1].Date == r.Day() {
			days[n-1].Present = append(days[n-1].Present, r.IsPresent())
			continue
		}
		days = append(days, CalendarDay{Date: r.Day(), Present: []bool{r.IsPresent()}})
	}
	return days
}

func sortByDate(records []portal.DailyAttendance) []portal.DailyAttendance {
	sorted := make([]portal.DailyAttendance, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date().Before(sorted[j].Date())
	})
	return sorted
}

func dailyKey(regID, code string) string {
	return regID + "/" + code
}

// displayName drops the trailing "(CODE)" the portal appends to subject names.
func displayName(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ")") {
		if i := strings.LastIndex(s, "("); i > 0 {
			return strings.TrimSpace(s[:i])
		}
	}
	return s
}
