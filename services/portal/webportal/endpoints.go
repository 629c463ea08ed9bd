package webportal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/campuscompanion/core/portal"
)

const (
	pathPretokenCheck      = "/token/pretoken-check"
	pathGenerateToken      = "/token/generate-token1"
	pathAttendanceMeta     = "/StudentClassAttendance/getstudentInforegistrationforattendence"
	pathAttendance         = "/StudentClassAttendance/getstudentattendancedetail"
	pathSubjectDaily       = "/StudentClassAttendance/getstudentsubjectpersentage"
	pathSGPACheck          = "/studentsgpacgpa/checkIfstudentmasterexist"
	pathSGPA               = "/studentsgpacgpa/getallsemesterdata"
	pathGradeCardSems      = "/studentgradecard/getregistrationList"
	pathGradeCardInfo      = "/studentgradecard/getstudentinfo"
	pathGradeCard          = "/studentgradecard/showstudentgradecard"
	pathMarksSems          = "/studentcommonsontroller/getsemestercode-exammarks"
	pathMarksDocument      = "/studentsexamview/printstudent-exammarks/%s/%s/%s"
	pathExamSems           = "/studentcommonsontroller/getsemestercode-withstudentexamevents"
	pathExamEvents         = "/studentcommonsontroller/getstudentexamevents"
	pathExamSchedule       = "/studentsexamview/get-subjectexam-scheduledetail"
	pathRegisteredSems     = "/reqsubfaculty/getregistrationList"
	pathRegisteredSubjects = "/reqsubfaculty/getfaculties"
	pathPersonalInfo       = "/studentpersinfo/getstudent-personalinformation"
)

// Login performs the two-step token exchange of the portal and keeps the session on the client.
func (c *client) Login(ctx context.Context, username, password string) error {
	var pre map[string]interface{}
	err := c.post(ctx, pathPretokenCheck, map[string]interface{}{
		"username": username,
		"usertype": "S",
		"captcha":  defaultCaptcha,
	}, "", &pre)
	if err != nil {
		return loginError(err)
	}

	pre["password"] = password
	var gen struct {
		RegData struct {
			Token         string      `json:"token"`
			MemberID      portal.Text `json:"memberid"`
			ClientID      portal.Text `json:"clientid"`
			MemberType    string      `json:"membertype"`
			EnrollmentNo  string      `json:"enrollmentno"`
			InstituteList []struct {
				Label string      `json:"label"`
				Value portal.Text `json:"value"`
			} `json:"institutelist"`
		} `json:"regdata"`
	}
	if err := c.post(ctx, pathGenerateToken, pre, "", &gen); err != nil {
		return loginError(err)
	}
	if gen.RegData.Token == "" || len(gen.RegData.InstituteList) == 0 {
		return &portal.LoginError{Err: errors.WithMessage(portal.ErrBadCredentials, "incomplete session data")}
	}

	c.mu.Lock()
	c.sess = &session{
		token:       gen.RegData.Token,
		memberID:    gen.RegData.MemberID.String(),
		clientID:    gen.RegData.ClientID.String(),
		memberType:  gen.RegData.MemberType,
		instituteID: gen.RegData.InstituteList[0].Value.String(),
		enrollment:  gen.RegData.EnrollmentNo,
	}
	c.mu.Unlock()
	return nil
}

func loginError(err error) error {
	if portal.IsUnavailable(err) || portal.IsNetwork(err) {
		return &portal.LoginError{Err: err}
	}
	var apiErr *portal.APIError
	if errors.As(err, &apiErr) || portal.IsNoData(err) || errors.Is(err, portal.ErrNotLoggedIn) {
		return &portal.LoginError{Err: errors.WithMessage(portal.ErrBadCredentials, err.Error())}
	}
	return &portal.LoginError{Err: err}
}

// semesterWire decodes both semester shapes of the portal.
type semesterWire struct {
	RegistrationID      portal.Text `json:"registrationid"`
	RegistrationCode    string      `json:"registrationcode"`
	RegistrationIDAlt   portal.Text `json:"registration_id"`
	RegistrationCodeAlt string      `json:"registration_code"`
}

func toSemesters(ws []semesterWire) []portal.Semester {
	sems := make([]portal.Semester, 0, len(ws))
	for _, w := range ws {
		id, code := w.RegistrationID.String(), w.RegistrationCode
		if id == "" {
			id = w.RegistrationIDAlt.String()
		}
		if code == "" {
			code = w.RegistrationCodeAlt
		}
		sems = append(sems, portal.Semester{RegistrationID: id, RegistrationCode: code})
	}
	return sems
}

func (c *client) AttendanceMeta(ctx context.Context) (portal.AttendanceMeta, error) {
	var out struct {
		HeaderList []portal.Header `json:"headerlist"`
		SemList    []semesterWire  `json:"semlist"`
	}
	err := c.postAuthed(ctx, pathAttendanceMeta, func(s *session) map[string]interface{} {
		return map[string]interface{}{
			"clientid":    s.clientID,
			"instituteid": s.instituteID,
			"membertype":  s.memberType,
		}
	}, &out)
	if err != nil {
		return portal.AttendanceMeta{}, err
	}
	return portal.AttendanceMeta{Headers: out.HeaderList, Semesters: toSemesters(out.SemList)}, nil
}

func (c *client) Attendance(ctx context.Context, header portal.Header, sem portal.Semester) (portal.AttendanceReport, error) {
	var out portal.AttendanceReport
	err := c.postAuthed(ctx, pathAttendance, func(s *session) map[string]interface{} {
		return map[string]interface{}{
			"clientid":         s.clientID,
			"instituteid":      s.instituteID,
			"registrationcode": sem.RegistrationCode,
			"registrationid":   sem.RegistrationID,
			"stynumber":        header.StyNumber.String(),
		}
	}, &out)
	return out, err
}

func (c *client) SubjectDailyAttendance(ctx context.Context, sem portal.Semester, subjectID, individualSubjectCode string, componentIDs []string) ([]portal.DailyAttendance, error) {
	cmpKeys := make([]map[string]string, 0, len(componentIDs))
	for _, id := range componentIDs {
		cmpKeys = append(cmpKeys, map[string]string{"subjectcomponentid": id})
	}
	var out struct {
		Records []portal.DailyAttendance `json:"studentAttdsummarylist"`
	}
	err := c.postAuthed(ctx, pathSubjectDaily, func(s *session) map[string]interface{} {
		return map[string]interface{}{
			"cmpidkey":         cmpKeys,
			"clientid":         s.clientID,
			"instituteid":      s.instituteID,
			"registrationcode": sem.RegistrationCode,
			"registrationid":   sem.RegistrationID,
			"subjectcode":      individualSubjectCode,
			"subjectid":        subjectID,
		}
	}, &out)
	return out.Records, err
}

func (c *client) GradesSummary(ctx context.Context) (portal.GradesSummary, error) {
	var check struct {
		StudentLov struct {
			StyNumber portal.Text `json:"stynumber"`
		} `json:"studentlov"`
	}
	err := c.postAuthed(ctx, pathSGPACheck, func(s *session) map[string]interface{} {
		return map[string]interface{}{"instituteid": s.instituteID, "studentid": s.memberID}
	}, &check)
	if err != nil {
		return portal.GradesSummary{}, err
	}

	var out portal.GradesSummary
	err = c.postAuthed(ctx, pathSGPA, func(s *session) map[string]interface{} {
		return map[string]interface{}{
			"instituteid": s.instituteID,
			"studentid":   s.memberID,
			"stynumber":   check.StudentLov.StyNumber.String(),
		}
	}, &out)
	return out, err
}

func (c *client) GradeCardSemesters(ctx context.Context) ([]portal.Semester, error) {
	return c.semesters(ctx, pathGradeCardSems, "registrations")
}

func (c *client) GradeCard(ctx context.Context, sem portal.Semester) (portal.GradeCard, error) {
	var info struct {
		ProgramID portal.Text `json:"programid"`
		BranchID  portal.Text `json:"branchid"`
	}
	err := c.postAuthed(ctx, pathGradeCardInfo, func(s *session) map[string]interface{} {
		return map[string]interface{}{"instituteid": s.instituteID}
	}, &info)
	if err != nil {
		return portal.GradeCard{}, err
	}

	var out portal.GradeCard
	err = c.postAuthed(ctx, pathGradeCard, func(s *session) map[string]interface{} {
		return map[string]interface{}{
			"branchid":       info.BranchID.String(),
			"instituteid":    s.instituteID,
			"programid":      info.ProgramID.String(),
			"registrationid": sem.RegistrationID,
		}
	}, &out)
	return out, err
}

func (c *client) MarksSemesters(ctx context.Context) ([]portal.Semester, error) {
	return c.semesters(ctx, pathMarksSems, "semestercode")
}

// Marks downloads the printable marks statement of sem.
func (c *client) Marks(ctx context.Context, sem portal.Semester) (portal.MarksReport, error) {
	s, err := c.session()
	if err != nil {
		return portal.MarksReport{}, err
	}
	path := fmt.Sprintf(pathMarksDocument,
		url.PathEscape(s.instituteID), url.PathEscape(sem.RegistrationID), url.PathEscape(sem.RegistrationCode))
	resp, err := c.send(ctx, rest.Get, path, nil, s.token)
	if err != nil {
		return portal.MarksReport{}, err
	}
	if resp.StatusCode == http.StatusNotFound || len(resp.Body) == 0 {
		return portal.MarksReport{}, &portal.NoDataError{Message: "marks not found for " + sem.RegistrationCode}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return portal.MarksReport{}, &portal.APIError{Status: resp.StatusCode, Message: "downloading marks"}
	}

	contentType := "application/pdf"
	if cts := resp.Headers["Content-Type"]; len(cts) > 0 {
		contentType = cts[0]
	}
	return portal.MarksReport{Document: []byte(resp.Body), ContentType: contentType}, nil
}

func (c *client) ExamSemesters(ctx context.Context) ([]portal.Semester, error) {
	var out struct {
		Info struct {
			Semesters []semesterWire `json:"semestercode"`
		} `json:"semesterCodeinfo"`
	}
	err := c.postAuthed(ctx, pathExamSems, func(s *session) map[string]interface{} {
		return map[string]interface{}{
			"clientid":    s.clientID,
			"instituteid": s.instituteID,
			"memberid":    s.memberID,
		}
	}, &out)
	return toSemesters(out.Info.Semesters), err
}

func (c *client) ExamEvents(ctx context.Context, sem portal.Semester) ([]portal.ExamEvent, error) {
	var out struct {
		EventCode struct {
			Events []portal.ExamEvent `json:"examevent"`
		} `json:"eventcode"`
	}
	err := c.postAuthed(ctx, pathExamEvents, func(s *session) map[string]interface{} {
		return map[string]interface{}{
			"instituteid":   s.instituteID,
			"registationid": sem.RegistrationID, // sic
		}
	}, &out)
	return out.EventCode.Events, err
}

func (c *client) ExamSchedule(ctx context.Context, event portal.ExamEvent) ([]portal.ExamScheduleEntry, error) {
	var out struct {
		SubjectInfo []portal.ExamScheduleEntry `json:"subjectinfo"`
	}
	err := c.postAuthed(ctx, pathExamSchedule, func(s *session) map[string]interface{} {
		return map[string]interface{}{
			"instituteid": s.instituteID,
			"studentid":   s.memberID,
			"exameventid": event.ID,
		}
	}, &out)
	return out.SubjectInfo, err
}

func (c *client) RegisteredSemesters(ctx context.Context) ([]portal.Semester, error) {
	return c.semesters(ctx, pathRegisteredSems, "registrations")
}

func (c *client) RegisteredSubjects(ctx context.Context, sem portal.Semester) (portal.RegisteredSubjects, error) {
	var out struct {
		Registrations []struct {
			SubjectCode   string  `json:"subjectcode"`
			SubjectDesc   string  `json:"subjectdesc"`
			ComponentCode string  `json:"subjectcomponentcode"`
			EmployeeName  string  `json:"employeename"`
			Credits       float64 `json:"credits"`
			AuditSubject  string  `json:"audtsubject"`
		} `json:"registrations"`
		TotalCredits float64 `json:"totalcreditpoints"`
	}
	err := c.postAuthed(ctx, pathRegisteredSubjects, func(s *session) map[string]interface{} {
		return map[string]interface{}{
			"instituteid":    s.instituteID,
			"registrationid": sem.RegistrationID,
			"studentid":      s.memberID,
		}
	}, &out)
	if err != nil {
		return portal.RegisteredSubjects{}, err
	}

	subjects := make([]portal.RegisteredSubject, 0, len(out.Registrations))
	for _, r := range out.Registrations {
		subjects = append(subjects, portal.RegisteredSubject{
			SubjectCode:   r.SubjectCode,
			SubjectDesc:   r.SubjectDesc,
			ComponentCode: r.ComponentCode,
			EmployeeName:  r.EmployeeName,
			Credits:       r.Credits,
			AuditSubject:  r.AuditSubject,
		})
	}
	return portal.RegisteredSubjects{Subjects: subjects, TotalCredits: out.TotalCredits}, nil
}

func (c *client) PersonalInfo(ctx context.Context) (portal.PersonalInfo, error) {
	var out portal.PersonalInfo
	err := c.postAuthed(ctx, pathPersonalInfo, func(s *session) map[string]interface{} {
		return map[string]interface{}{"clinetid": s.clientID, "instituteid": s.instituteID} // sic
	}, &out)
	return out, err
}

// semesters posts the common institute/student payload and reads the semester list under field.
func (c *client) semesters(ctx context.Context, path, field string) ([]portal.Semester, error) {
	var out map[string]json.RawMessage
	err := c.postAuthed(ctx, path, func(s *session) map[string]interface{} {
		return map[string]interface{}{"instituteid": s.instituteID, "studentid": s.memberID}
	}, &out)
	if err != nil {
		return nil, err
	}
	var ws []semesterWire
	if raw, ok := out[field]; ok {
		if err := json.Unmarshal(raw, &ws); err != nil {
			return nil, errors.Wrapf(err, "decoding %s of %s", field, path)
		}
	}
	return toSemesters(ws), nil
}
