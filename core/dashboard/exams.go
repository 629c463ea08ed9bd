package dashboard

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/campuscompanion/core/fetchcache"
	"github.com/trezcool/campuscompanion/core/portal"
)

const examsUnavailable = "No exam events for this semester"

type ExamsService struct {
	client portal.Client

	sems      *fetchcache.Cache[[]portal.Semester]
	events    *fetchcache.Cache[[]portal.ExamEvent]
	schedules *fetchcache.Cache[[]portal.ExamScheduleEntry]
}

func newExamsService(client portal.Client, nc cacheFactory) *ExamsService {
	return &ExamsService{
		client:    client,
		sems:      newCache[[]portal.Semester](nc, "exam_semesters"),
		events:    newCache[[]portal.ExamEvent](nc, "exam_events"),
		schedules: newCache[[]portal.ExamScheduleEntry](nc, "exam_schedules"),
	}
}

type (
	ExamEventsView struct {
		Semester    portal.Semester    `json:"semester"`
		Events      []portal.ExamEvent `json:"events"`
		Unavailable string             `json:"unavailable,omitempty"`
	}

	ScheduleView struct {
		Event portal.ExamEvent `json:"event"`
		Exams []ScheduledExam  `json:"exams"`
	}

	ScheduledExam struct {
		SubjectCode string    `json:"subject_code"`
		Subject     string    `json:"subject"`
		Date        time.Time `json:"date"`
		DateText    string    `json:"date_text"`
		From        string    `json:"from"`
		To          string    `json:"to"`
		Venue       string    `json:"venue,omitempty"`
	}
)

func (s *ExamsService) Semesters(ctx context.Context) ([]portal.Semester, error) {
	return semesterList(ctx, s.sems, s.client.ExamSemesters)
}

// Events returns and selects the exam events of regID; empty means the selection or the latest semester.
func (s *ExamsService) Events(ctx context.Context, regID string) (ExamEventsView, error) {
	sems, err := s.Semesters(ctx)
	if err != nil {
		return ExamEventsView{}, err
	}
	sem, err := resolveSemester(sems, regID, s.events.Selected())
	if err != nil {
		if err == ErrNoSemesters {
			return ExamEventsView{Events: []portal.ExamEvent{}, Unavailable: examsUnavailable}, nil
		}
		return ExamEventsView{}, err
	}
	s.events.Select(sem.RegistrationID)

	e, err := s.events.Load(ctx, sem.RegistrationID, func(ctx context.Context) ([]portal.ExamEvent, error) {
		return s.client.ExamEvents(ctx, sem)
	})
	if err != nil {
		return ExamEventsView{}, errors.Wrapf(err, "loading exam events of %s", sem.RegistrationCode)
	}
	v := ExamEventsView{Semester: sem, Events: e.Value}
	if e.IsMissing() || len(e.Value) == 0 {
		v.Events = []portal.ExamEvent{}
		v.Unavailable = examsUnavailable
	}
	return v, nil
}

// Schedule returns and selects the schedule of an exam event listed by a previous Events call.
func (s *ExamsService) Schedule(ctx context.Context, eventID string) (ScheduleView, error) {
	event, ok := s.findEvent(eventID)
	if !ok {
		return ScheduleView{}, ErrUnknownEvent
	}
	s.schedules.Select(eventID)

	e, err := s.schedules.Load(ctx, eventID, func(ctx context.Context) ([]portal.ExamScheduleEntry, error) {
		return s.client.ExamSchedule(ctx, event)
	})
	if err != nil {
		return ScheduleView{}, errors.Wrapf(err, "loading exam schedule of %s", eventID)
	}

	v := ScheduleView{Event: event, Exams: make([]ScheduledExam, 0, len(e.Value))}
	for _, entry := range e.Value {
		v.Exams = append(v.Exams, scheduledExam(entry))
	}
	return v, nil
}

func (s *ExamsService) findEvent(eventID string) (portal.ExamEvent, bool) {
	for _, regID := range s.events.Keys() {
		e, ok := s.events.Get(regID)
		if !ok {
			continue
		}
		for _, ev := range e.Value {
			if ev.ID == eventID {
				return ev, true
			}
		}
	}
	return portal.ExamEvent{}, false
}

func scheduledExam(entry portal.ExamScheduleEntry) ScheduledExam {
	subject := entry.SubjectDesc
	if i := strings.Index(subject, "("); i > 0 {
		subject = subject[:i]
	}
	date, _ := time.Parse(portal.DateLayout, strings.TrimSpace(entry.DateTime))
	return ScheduledExam{
		SubjectCode: entry.SubjectCode,
		Subject:     strings.TrimSpace(subject),
		Date:        date,
		DateText:    entry.DateTime,
		From:        entry.DateTimeFrom,
		To:          entry.DateTimeUpTo,
		Venue:       venue(entry.RoomCode, entry.SeatNo),
	}
}

func venue(room, seat string) string {
	switch {
	case room != "" && seat != "":
		return room + "-" + seat
	case room != "":
		return room
	default:
		return seat
	}
}
