package echoapi

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campuscompanion/core"
	"github.com/trezcool/campuscompanion/core/dashboard"
	"github.com/trezcool/campuscompanion/core/fetchcache"
)

type dashboardApi struct{}

func registerDashboardAPI(g *echo.Group, authed []echo.MiddlewareFunc) {
	api := dashboardApi{}

	ag := g.Group("/attendance", authed...)
	ag.GET("", api.attendance)
	ag.GET("/semesters", api.attendanceSemesters)
	ag.GET("/daily", api.classesOn)
	ag.GET("/subjects/:code/daily", api.subjectHistory)

	gg := g.Group("/grades", authed...)
	gg.GET("", api.gradesOverview)
	gg.GET("/cards/semesters", api.gradeCardSemesters)
	gg.GET("/cards", api.gradeCard)
	gg.GET("/marks/semesters", api.marksSemesters)
	gg.GET("/marks", api.marks)
	gg.GET("/marks/document", api.marksDocument)

	eg := g.Group("/exams", authed...)
	eg.GET("/semesters", api.examSemesters)
	eg.GET("/events", api.examEvents)
	eg.GET("/schedule", api.examSchedule)

	sg := g.Group("/subjects", authed...)
	sg.GET("", api.subjects)
	sg.GET("/semesters", api.subjectSemesters)

	g.GET("/profile", api.profile, authed...)
}

// store returns the dashboard of the request's session.
func (dashboardApi) store(ctx echo.Context) (*dashboard.Store, error) {
	sess, err := getContextSession(ctx)
	if err != nil {
		return nil, err
	}
	return sess.Store, nil
}

func semesterQuery(ctx echo.Context) string {
	var q SemesterQuery
	q.Bind(ctx)
	return q.Semester
}

func (api dashboardApi) attendanceSemesters(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	sems, err := store.Attendance.Semesters(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing attendance semesters")
	}
	return ctx.JSON(http.StatusOK, sems)
}

func (api dashboardApi) attendance(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	view, err := store.Attendance.Report(ctx.Request().Context(), semesterQuery(ctx))
	if err != nil {
		return errors.Wrap(err, "getting attendance")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api dashboardApi) subjectHistory(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	code, err := url.PathUnescape(ctx.Param("code"))
	if err != nil {
		return errHttpNotFound
	}
	code = core.CleanString(code)
	hist, err := store.Attendance.SubjectHistory(ctx.Request().Context(), semesterQuery(ctx), code)
	if err != nil {
		return errors.Wrapf(err, "getting daily attendance of %s", code)
	}
	return ctx.JSON(http.StatusOK, hist)
}

type classesOnResponse struct {
	Date       string                       `json:"date"`
	Semester   string                       `json:"semester"`
	Statuses   map[string]fetchcache.Status `json:"statuses"`
	Incomplete bool                         `json:"incomplete,omitempty"`
	Classes    []dashboard.DayClasses       `json:"classes"`
}

// classesOn loads the daily records of every subject, then lists the classes held on the given date.
// Subjects whose records could not be fetched are reported through their status.
func (api dashboardApi) classesOn(ctx echo.Context) error {
	day, err := bindDate(ctx)
	if err != nil {
		return err
	}
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	rctx := ctx.Request().Context()

	view, err := store.Attendance.Report(rctx, semesterQuery(ctx))
	if err != nil {
		return errors.Wrap(err, "getting attendance")
	}
	resp := classesOnResponse{
		Date:     day.Format("2006-01-02"),
		Semester: view.Semester.RegistrationID,
		Statuses: map[string]fetchcache.Status{},
		Classes:  []dashboard.DayClasses{},
	}
	if view.Semester.RegistrationID == "" || view.Unavailable != "" {
		return ctx.JSON(http.StatusOK, resp)
	}

	statuses, err := store.Attendance.LoadAllDaily(rctx, view.Semester.RegistrationID)
	if statuses == nil {
		return errors.Wrap(err, "loading daily attendance")
	}
	resp.Statuses = statuses
	resp.Incomplete = err != nil
	resp.Classes = store.Attendance.ClassesOn(view.Semester.RegistrationID, day)
	return ctx.JSON(http.StatusOK, resp)
}

func (api dashboardApi) gradesOverview(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	overview, err := store.Grades.Overview(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting grades overview")
	}
	return ctx.JSON(http.StatusOK, overview)
}

func (api dashboardApi) gradeCardSemesters(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	sems, err := store.Grades.GradeCardSemesters(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing grade card semesters")
	}
	return ctx.JSON(http.StatusOK, sems)
}

func (api dashboardApi) gradeCard(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	card, err := store.Grades.GradeCard(ctx.Request().Context(), semesterQuery(ctx))
	if err != nil {
		return errors.Wrap(err, "getting grade card")
	}
	return ctx.JSON(http.StatusOK, card)
}

func (api dashboardApi) marksSemesters(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	sems, err := store.Grades.MarksSemesters(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing marks semesters")
	}
	return ctx.JSON(http.StatusOK, sems)
}

func (api dashboardApi) marks(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	marks, err := store.Grades.Marks(ctx.Request().Context(), semesterQuery(ctx))
	if err != nil {
		return errors.Wrap(err, "getting marks")
	}
	return ctx.JSON(http.StatusOK, marks)
}

func (api dashboardApi) marksDocument(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	doc, contentType, err := store.Grades.MarksDocument(ctx.Request().Context(), semesterQuery(ctx))
	if err != nil {
		return errors.Wrap(err, "getting marks document")
	}
	if contentType == "" {
		contentType = "application/pdf"
	}
	return ctx.Blob(http.StatusOK, contentType, doc)
}

func (api dashboardApi) examSemesters(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	sems, err := store.Exams.Semesters(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing exam semesters")
	}
	return ctx.JSON(http.StatusOK, sems)
}

func (api dashboardApi) examEvents(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	events, err := store.Exams.Events(ctx.Request().Context(), semesterQuery(ctx))
	if err != nil {
		return errors.Wrap(err, "listing exam events")
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api dashboardApi) examSchedule(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	event := core.CleanString(ctx.QueryParam("event"))
	sched, err := store.Exams.Schedule(ctx.Request().Context(), event)
	if err != nil {
		return errors.Wrapf(err, "getting schedule of %q", event)
	}
	return ctx.JSON(http.StatusOK, sched)
}

func (api dashboardApi) subjectSemesters(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	sems, err := store.Subjects.Semesters(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing subject semesters")
	}
	return ctx.JSON(http.StatusOK, sems)
}

func (api dashboardApi) subjects(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	subjects, err := store.Subjects.Subjects(ctx.Request().Context(), semesterQuery(ctx))
	if err != nil {
		return errors.Wrap(err, "getting subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api dashboardApi) profile(ctx echo.Context) error {
	store, err := api.store(ctx)
	if err != nil {
		return err
	}
	profile, err := store.Profile.Profile(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	return ctx.JSON(http.StatusOK, profile)
}
