package demo

import (
	"fmt"
	"time"

	"github.com/trezcool/campuscompanion/core/portal"
)

var (
	header = portal.Header{
		BranchDesc:  "Computer Science & Engineering",
		Name:        "B.Tech",
		ProgramDesc: "Bachelor of Technology",
		StyNumber:   "4",
	}

	semesters = []portal.Semester{
		{RegistrationID: "DEMO2025EVESEM", RegistrationCode: "2025EVESEM"},
		{RegistrationID: "DEMO2024ODDSEM", RegistrationCode: "2024ODDSEM"},
		{RegistrationID: "DEMO2024EVESEM", RegistrationCode: "2024EVESEM"},
	}

	// semester start dates used to lay out the generated daily records
	semesterStarts = map[string]time.Time{
		"DEMO2025EVESEM": time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC),
		"DEMO2024ODDSEM": time.Date(2024, time.July, 22, 0, 0, 0, 0, time.UTC),
	}

	attendance = map[string][]portal.SubjectAttendance{
		"DEMO2025EVESEM": {
			subjectAttendance("DEMO2025EVESEM", "OPERATING SYSTEMS(15B11CI412)", "OS412", 28, 25, 6, 6, 14, 12),
			subjectAttendance("DEMO2025EVESEM", "DATABASE SYSTEMS(15B11CI413)", "DB413", 30, 21, 8, 6, 14, 13),
			subjectAttendance("DEMO2025EVESEM", "THEORY OF COMPUTATION(18B11CI411)", "TC411", 32, 22, 10, 7, 0, 0),
			subjectAttendance("DEMO2025EVESEM", "ECONOMICS(15B11HS211)", "EC211", 24, 23, 0, 0, 0, 0),
		},
		"DEMO2024ODDSEM": {
			subjectAttendance("DEMO2024ODDSEM", "DATA STRUCTURES(15B11CI311)", "DS311", 36, 30, 10, 9, 18, 18),
			subjectAttendance("DEMO2024ODDSEM", "DISCRETE MATHEMATICS(15B11MA301)", "DM301", 40, 29, 10, 8, 0, 0),
			subjectAttendance("DEMO2024ODDSEM", "COMPUTER ORGANISATION(15B11EC311)", "CO311", 30, 26, 0, 0, 16, 15),
		},
	}

	grades = []portal.SemesterGrade{
		{StyNumber: "1", SGPA: 8.2, CGPA: 8.2, EarnedGradePoints: 196.8, TotalCourseCredit: 24},
		{StyNumber: "2", SGPA: 8.6, CGPA: 8.4, EarnedGradePoints: 215, TotalCourseCredit: 25},
		{StyNumber: "3", SGPA: 7.9, CGPA: 8.23, EarnedGradePoints: 189.6, TotalCourseCredit: 24},
	}

	gradeCards = map[string][]portal.GradeCardEntry{
		"DEMO2024ODDSEM": {
			{SubjectCode: "15B11CI311", SubjectDesc: "DATA STRUCTURES", Grade: "A", CourseCreditPoint: 4},
			{SubjectCode: "15B11MA301", SubjectDesc: "DISCRETE MATHEMATICS", Grade: "B+", CourseCreditPoint: 4},
			{SubjectCode: "15B11EC311", SubjectDesc: "COMPUTER ORGANISATION", Grade: "A+", CourseCreditPoint: 3},
			{SubjectCode: "15B17CI371", SubjectDesc: "DATA STRUCTURES LAB", Grade: "A", CourseCreditPoint: 1},
		},
		"DEMO2024EVESEM": {
			{SubjectCode: "15B11CI211", SubjectDesc: "OBJECT ORIENTED PROGRAMMING", Grade: "A", CourseCreditPoint: 4},
			{SubjectCode: "15B11MA211", SubjectDesc: "MATHEMATICS-2", Grade: "B", CourseCreditPoint: 4},
			{SubjectCode: "15B11PH211", SubjectDesc: "PHYSICS-2", Grade: "B+", CourseCreditPoint: 4},
		},
	}

	marks = map[string][]portal.CourseMarks{
		"DEMO2025EVESEM": {
			{Code: "15B11CI412", Name: "OPERATING SYSTEMS", Exams: map[string]portal.ExamMarks{"T1": {OM: 16, FM: 20}, "T2": {OM: 17.5, FM: 20}}},
			{Code: "15B11CI413", Name: "DATABASE SYSTEMS", Exams: map[string]portal.ExamMarks{"T1": {OM: 14, FM: 20}, "T2": {OM: 15, FM: 20}}},
		},
		"DEMO2024ODDSEM": {
			{Code: "15B11CI311", Name: "DATA STRUCTURES", Exams: map[string]portal.ExamMarks{"T1": {OM: 18, FM: 20}, "T2": {OM: 16, FM: 20}, "T3": {OM: 30, FM: 35}}},
			{Code: "15B11MA301", Name: "DISCRETE MATHEMATICS", Exams: map[string]portal.ExamMarks{"T1": {OM: 12, FM: 20}, "T2": {OM: 14.5, FM: 20}, "T3": {OM: 24, FM: 35}}},
		},
	}

	examEvents = map[string][]portal.ExamEvent{
		"DEMO2025EVESEM": {
			{ID: "DEMOEV-T1-2025", Code: "T1", Desc: "T1 EXAMINATION EVEN 2025"},
			{ID: "DEMOEV-T2-2025", Code: "T2", Desc: "T2 EXAMINATION EVEN 2025"},
		},
		"DEMO2024ODDSEM": {
			{ID: "DEMOEV-T3-2024", Code: "T3", Desc: "END TERM EXAMINATION ODD 2024"},
		},
	}

	examSchedules = map[string][]portal.ExamScheduleEntry{
		"DEMOEV-T1-2025": {
			{SubjectCode: "15B11CI412", SubjectDesc: "OPERATING SYSTEMS(15B11CI412)", DateTime: "10/02/2025", DateTimeFrom: "09:00 AM", DateTimeUpTo: "10:00 AM", RoomCode: "G1", SeatNo: "12"},
			{SubjectCode: "15B11CI413", SubjectDesc: "DATABASE SYSTEMS(15B11CI413)", DateTime: "11/02/2025", DateTimeFrom: "09:00 AM", DateTimeUpTo: "10:00 AM", RoomCode: "G2"},
		},
		"DEMOEV-T2-2025": {
			{SubjectCode: "15B11CI412", SubjectDesc: "OPERATING SYSTEMS(15B11CI412)", DateTime: "24/03/2025", DateTimeFrom: "11:00 AM", DateTimeUpTo: "12:30 PM"},
		},
		"DEMOEV-T3-2024": {
			{SubjectCode: "15B11CI311", SubjectDesc: "DATA STRUCTURES(15B11CI311)", DateTime: "02/12/2024", DateTimeFrom: "10:00 AM", DateTimeUpTo: "12:00 PM", RoomCode: "CR-301", SeatNo: "7"},
		},
	}

	registeredSubjects = map[string][]portal.RegisteredSubject{
		"DEMO2025EVESEM": {
			{SubjectCode: "15B11CI412", SubjectDesc: "OPERATING SYSTEMS", ComponentCode: "L", EmployeeName: "Dr. Anita Sharma", Credits: 4},
			{SubjectCode: "15B11CI412", SubjectDesc: "OPERATING SYSTEMS", ComponentCode: "T", EmployeeName: "Mr. Rohit Verma", Credits: 4},
			{SubjectCode: "15B11CI412", SubjectDesc: "OPERATING SYSTEMS", ComponentCode: "P", EmployeeName: "Ms. Kavya Iyer", Credits: 4},
			{SubjectCode: "15B11CI413", SubjectDesc: "DATABASE SYSTEMS", ComponentCode: "L", EmployeeName: "Dr. Sanjay Gupta", Credits: 4},
			{SubjectCode: "15B11CI413", SubjectDesc: "DATABASE SYSTEMS", ComponentCode: "P", EmployeeName: "Ms. Kavya Iyer", Credits: 4},
			{SubjectCode: "18B11CI411", SubjectDesc: "THEORY OF COMPUTATION", ComponentCode: "L", EmployeeName: "Dr. Meera Nair", Credits: 3},
			{SubjectCode: "15B11HS211", SubjectDesc: "ECONOMICS", ComponentCode: "L", EmployeeName: "Dr. Arvind Rao", Credits: 3},
			{SubjectCode: "15B19HS491", SubjectDesc: "ENVIRONMENTAL STUDIES", ComponentCode: "L", EmployeeName: "Dr. Arvind Rao", Credits: 0, AuditSubject: "Y"},
		},
		"DEMO2024ODDSEM": {
			{SubjectCode: "15B11CI311", SubjectDesc: "DATA STRUCTURES", ComponentCode: "L", EmployeeName: "Dr. Sanjay Gupta", Credits: 4},
			{SubjectCode: "15B11CI311", SubjectDesc: "DATA STRUCTURES", ComponentCode: "P", EmployeeName: "Mr. Rohit Verma", Credits: 4},
			{SubjectCode: "15B11MA301", SubjectDesc: "DISCRETE MATHEMATICS", ComponentCode: "L", EmployeeName: "Dr. Priya Menon", Credits: 4},
			{SubjectCode: "15B11EC311", SubjectDesc: "COMPUTER ORGANISATION", ComponentCode: "L", EmployeeName: "Dr. Vivek Jain", Credits: 3},
		},
	}

	profile = portal.PersonalInfo{
		General: portal.GeneralInformation{
			StudentName:          "DEMO STUDENT",
			RegistrationNo:       "99103000",
			DateOfBirth:          "01/01/2004",
			Gender:               "Other",
			BloodGroup:           "O+",
			Nationality:          "Indian",
			Category:             "General",
			StudentEmailID:       "99103000@mail.jiit.ac.in",
			StudentPersonalEmail: "demo.student@example.com",
			StudentCellNo:        "9000000000",
			ProgramCode:          "B.T",
			Branch:               "CSE",
			Batch:                "B4",
			SectionCode:          "B",
			Semester:             "4",
			AdmissionYear:        "2023",
			AcademicYear:         "2024-2025",
			InstituteCode:        "JIIT",
			FathersName:          "DEMO FATHER",
			MotherName:           "DEMO MOTHER",
			PCityName:            "Noida",
			PStateName:           "Uttar Pradesh",
			PPostalCode:          "201309",
			CCityName:            "Noida",
			CStateName:           "Uttar Pradesh",
			CPostalCode:          "201309",
		},
		Qualifications: []portal.Qualification{
			{QualificationCode: "12TH", BoardName: "CBSE", YearOfPassing: "2023", Division: "I", PercentageMarks: "92.4", ObtainedMarks: "462", FullMarks: "500"},
			{QualificationCode: "10TH", BoardName: "CBSE", YearOfPassing: "2021", Division: "I", PercentageMarks: "94.0", ObtainedMarks: "470", FullMarks: "500"},
		},
	}
)

func subjectAttendance(regID, code, id string, lClass, lPres, tClass, tPres, pClass, pPres float64) portal.SubjectAttendance {
	pct := func(pres, class float64) float64 {
		if class == 0 {
			return 0
		}
		return float64(int(pres/class*1000+0.5)) / 10
	}
	s := portal.SubjectAttendance{
		SubjectCode:           code,
		SubjectID:             id,
		IndividualSubjectCode: regID + "-" + id,
		LTotalClass:           lClass,
		LTotalPres:            lPres,
		LPercentage:           pct(lPres, lClass),
		TTotalClass:           tClass,
		TTotalPres:            tPres,
		TPercentage:           pct(tPres, tClass),
		PTotalClass:           pClass,
		PTotalPres:            pPres,
		PPercentage:           pct(pPres, pClass),
		LTPercentage:          pct(lPres+tPres, lClass+tClass),
	}
	if lClass > 0 {
		s.LComponentID = id + "L"
	}
	if tClass > 0 {
		s.TComponentID = id + "T"
	}
	if pClass > 0 {
		s.PComponentID = id + "P"
	}
	return s
}

// dailyRecords lays the totals of subj out as one class per component every other day,
// spreading the absences evenly.
func dailyRecords(subj portal.SubjectAttendance) []portal.DailyAttendance {
	regID := subj.IndividualSubjectCode[:len(subj.IndividualSubjectCode)-len(subj.SubjectID)-1]
	start := semesterStarts[regID]

	var out []portal.DailyAttendance
	components := []struct {
		kind, hour  string
		class, pres int
	}{
		{"Lecture", "09:00", int(subj.LTotalClass), int(subj.LTotalPres)},
		{"Tutorial", "11:00", int(subj.TTotalClass), int(subj.TTotalPres)},
		{"Practical", "14:00", int(subj.PTotalClass), int(subj.PTotalPres)},
	}
	for _, comp := range components {
		for i := 0; i < comp.class; i++ {
			present := (i+1)*comp.pres/comp.class > i*comp.pres/comp.class
			status := "Absent"
			if present {
				status = "Present"
			}
			day := start.AddDate(0, 0, 2*i)
			out = append(out, portal.DailyAttendance{
				DateTime:     fmt.Sprintf("%s %s", day.Format(portal.DateLayout), comp.hour),
				Present:      status,
				ClassType:    comp.kind,
				AttendanceBy: "Faculty",
			})
		}
	}
	return out
}
