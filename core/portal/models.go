package portal

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is how the portal writes dates: "25/10/2024" or "25/10/2024 10:30".
const DateLayout = "02/01/2006"

// Text decodes a JSON string, number or null into a string.
// The portal is not consistent about the types of numeric-looking fields.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(b)
	return nil
}

func (t Text) String() string {
	return string(t)
}

type Semester struct {
	RegistrationID   string `json:"registration_id"`
	RegistrationCode string `json:"registration_code"`
}

// Header identifies the attendance context of the student (program, branch, year).
type Header struct {
	BranchDesc  string `json:"branchdesc"`
	Name        string `json:"name"`
	ProgramDesc string `json:"programdesc"`
	StyNumber   Text   `json:"stynumber"`
}

type AttendanceMeta struct {
	Headers   []Header   `json:"headers"`
	Semesters []Semester `json:"semesters"`
}

// LatestHeader returns the first header; the portal lists the newest first.
func (m AttendanceMeta) LatestHeader() (Header, bool) {
	if len(m.Headers) == 0 {
		return Header{}, false
	}
	return m.Headers[0], true
}

// LatestSemester returns the first semester; the portal lists the newest first.
func (m AttendanceMeta) LatestSemester() (Semester, bool) {
	if len(m.Semesters) == 0 {
		return Semester{}, false
	}
	return m.Semesters[0], true
}

// FindSemester looks a semester up by its registration id.
func FindSemester(sems []Semester, regID string) (Semester, bool) {
	for _, s := range sems {
		if s.RegistrationID == regID {
			return s, true
		}
	}
	return Semester{}, false
}

type AttendanceReport struct {
	Subjects []SubjectAttendance `json:"studentattendancelist"`
}

// SubjectAttendance holds the lecture (L), tutorial (T) and practical (P) totals of a subject.
type SubjectAttendance struct {
	SubjectCode           string  `json:"subjectcode"`
	SubjectID             string  `json:"subjectid"`
	IndividualSubjectCode string  `json:"individualsubjectcode"`
	LTotalClass           float64 `json:"Ltotalclass"`
	LTotalPres            float64 `json:"Ltotalpres"`
	LPercentage           float64 `json:"Lpercentage"`
	TTotalClass           float64 `json:"Ttotalclass"`
	TTotalPres            float64 `json:"Ttotalpres"`
	TPercentage           float64 `json:"Tpercentage"`
	PTotalClass           float64 `json:"Ptotalclass"`
	PTotalPres            float64 `json:"Ptotalpres"`
	PPercentage           float64 `json:"Ppercentage"`
	LTPercentage          float64 `json:"LTpercantage"`
	LComponentID          string  `json:"Lsubjectcomponentid"`
	PComponentID          string  `json:"Psubjectcomponentid"`
	TComponentID          string  `json:"Tsubjectcomponentid"`
}

// ComponentIDs lists the non-empty component ids in L, P, T order.
func (s SubjectAttendance) ComponentIDs() []string {
	ids := make([]string, 0, 3)
	for _, id := range []string{s.LComponentID, s.PComponentID, s.TComponentID} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

type DailyAttendance struct {
	DateTime     string `json:"datetime"`
	Present      string `json:"present"`
	ClassType    string `json:"classtype"`
	AttendanceBy string `json:"attendanceby"`
}

func (d DailyAttendance) IsPresent() bool {
	return d.Present == "Present"
}

// Day returns the "dd/mm/yyyy" part of DateTime.
func (d DailyAttendance) Day() string {
	return strings.SplitN(strings.TrimSpace(d.DateTime), " ", 2)[0]
}

// Date parses Day; the zero time is returned when it is malformed.
func (d DailyAttendance) Date() time.Time {
	t, err := time.Parse(DateLayout, d.Day())
	if err != nil {
		return time.Time{}
	}
	return t
}

type GradesSummary struct {
	Semesters []SemesterGrade `json:"semesterList"`
}

type SemesterGrade struct {
	StyNumber         Text    `json:"stynumber"`
	SGPA              float64 `json:"sgpa"`
	CGPA              float64 `json:"cgpa"`
	EarnedGradePoints float64 `json:"earnedgradepoints"`
	TotalCourseCredit float64 `json:"totalcoursecredit"`
}

type GradeCard struct {
	Entries []GradeCardEntry `json:"gradecard"`
}

type GradeCardEntry struct {
	SubjectCode       string  `json:"subjectcode"`
	SubjectDesc       string  `json:"subjectdesc"`
	Grade             string  `json:"grade"`
	CourseCreditPoint float64 `json:"coursecreditpoint"`
}

// MarksReport is the exam marks statement of a semester.
// The real portal only hands out the printable document; Courses is filled when the data is structured.
type MarksReport struct {
	Courses     []CourseMarks `json:"courses"`
	Document    []byte        `json:"-"`
	ContentType string        `json:"-"`
}

type CourseMarks struct {
	Code  string               `json:"code"`
	Name  string               `json:"name"`
	Exams map[string]ExamMarks `json:"exams"`
}

// ExamMarks holds obtained (OM) and full (FM) marks.
type ExamMarks struct {
	OM float64 `json:"OM"`
	FM float64 `json:"FM"`
}

type ExamEvent struct {
	ID   string `json:"exam_event_id"`
	Code string `json:"exam_event_code,omitempty"`
	Desc string `json:"exam_event_desc"`
}

// UnmarshalJSON accepts both spellings the portal uses for event fields.
func (e *ExamEvent) UnmarshalJSON(b []byte) error {
	var raw struct {
		ExamEventID    Text   `json:"exam_event_id"`
		ExamEventIDAlt Text   `json:"exameventid"`
		Code           string `json:"exam_event_code"`
		CodeAlt        string `json:"exameventcode"`
		Desc           string `json:"exam_event_desc"`
		DescAlt        string `json:"exameventdesc"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = ExamEvent{
		ID:   firstNonEmpty(raw.ExamEventIDAlt.String(), raw.ExamEventID.String()),
		Code: firstNonEmpty(raw.CodeAlt, raw.Code),
		Desc: firstNonEmpty(raw.DescAlt, raw.Desc),
	}
	return nil
}

type ExamScheduleEntry struct {
	SubjectCode  string `json:"subjectcode"`
	SubjectDesc  string `json:"subjectdesc"`
	DateTime     string `json:"datetime"`
	DateTimeFrom string `json:"datetimefrom"`
	DateTimeUpTo string `json:"datetimeupto"`
	RoomCode     string `json:"roomcode"`
	SeatNo       string `json:"seatno"`
}

type RegisteredSubjects struct {
	Subjects     []RegisteredSubject `json:"subjects"`
	TotalCredits float64             `json:"total_credits"`
}

type RegisteredSubject struct {
	SubjectCode   string  `json:"subject_code"`
	SubjectDesc   string  `json:"subject_desc"`
	ComponentCode string  `json:"subject_component_code"`
	EmployeeName  string  `json:"employee_name"`
	Credits       float64 `json:"credits"`
	AuditSubject  string  `json:"audtsubject"`
}

type PersonalInfo struct {
	General        GeneralInformation `json:"generalinformation"`
	Qualifications []Qualification    `json:"qualification"`
}

type GeneralInformation struct {
	StudentName          string `json:"studentname"`
	RegistrationNo       string `json:"registrationno"`
	DateOfBirth          string `json:"dateofbirth"`
	Gender               string `json:"gender"`
	BloodGroup           string `json:"bloodgroup"`
	Nationality          string `json:"nationality"`
	Category             string `json:"category"`
	StudentEmailID       string `json:"studentemailid"`
	StudentPersonalEmail string `json:"studentpersonalemailid"`
	StudentCellNo        string `json:"studentcellno"`
	StudentTelephoneNo   string `json:"studenttelephoneno"`
	ProgramCode          string `json:"programcode"`
	Branch               string `json:"branch"`
	Batch                string `json:"batch"`
	SectionCode          string `json:"sectioncode"`
	Semester             Text   `json:"semester"`
	AdmissionYear        Text   `json:"admissionyear"`
	AcademicYear         string `json:"academicyear"`
	InstituteCode        string `json:"institutecode"`
	FathersName          string `json:"fathersname"`
	MotherName           string `json:"mothername"`
	ParentCellNo         string `json:"parentcellno"`
	ParentEmailID        string `json:"parentemailid"`
	ParentTelephoneNo    string `json:"parenttelephoneno"`
	PAddress             string `json:"paddress"`
	PCityName            string `json:"pcityname"`
	PDistrict            string `json:"pdistrict"`
	PStateName           string `json:"pstatename"`
	PPostalCode          Text   `json:"ppostalcode"`
	CAddress             string `json:"caddress"`
	CCityName            string `json:"ccityname"`
	CDistrict            string `json:"cdistrict"`
	CStateName           string `json:"cstatename"`
	CPostalCode          Text   `json:"cpostalcode"`
}

type Qualification struct {
	QualificationCode string `json:"qualificationcode"`
	BoardName         string `json:"boardname"`
	YearOfPassing     Text   `json:"yearofpassing"`
	Division          string `json:"division"`
	PercentageMarks   Text   `json:"percentagemarks"`
	ObtainedMarks     Text   `json:"obtainedmarks"`
	FullMarks         Text   `json:"fullmarks"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
