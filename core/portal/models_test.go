package portal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExamEvent_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		data string
		want ExamEvent
	}{
		{
			name: "compact spelling",
			data: `{"exameventid": "EV01", "exameventcode": "T1", "exameventdesc": "Test 1"}`,
			want: ExamEvent{ID: "EV01", Code: "T1", Desc: "Test 1"},
		},
		{
			name: "snake spelling",
			data: `{"exam_event_id": "EV02", "exam_event_desc": "End Term"}`,
			want: ExamEvent{ID: "EV02", Desc: "End Term"},
		},
		{
			name: "numeric id",
			data: `{"exam_event_id": 1042, "exam_event_desc": "Test 2"}`,
			want: ExamEvent{ID: "1042", Desc: "Test 2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ExamEvent
			require.NoError(t, json.Unmarshal([]byte(tt.data), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestText_UnmarshalJSON(t *testing.T) {
	var v struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 5, "b": "five", "c": null}`), &v))
	assert.Equal(t, Text("5"), v.A)
	assert.Equal(t, Text("five"), v.B)
	assert.Equal(t, Text(""), v.C)
}

func TestSubjectAttendance_ComponentIDs(t *testing.T) {
	s := SubjectAttendance{LComponentID: "L1", TComponentID: "T1"}
	assert.Equal(t, []string{"L1", "T1"}, s.ComponentIDs())
	assert.Empty(t, SubjectAttendance{}.ComponentIDs())
}

func TestDailyAttendance(t *testing.T) {
	d := DailyAttendance{DateTime: "05/08/2024 09:00", Present: "Present"}
	assert.True(t, d.IsPresent())
	assert.Equal(t, "05/08/2024", d.Day())
	assert.Equal(t, time.Date(2024, 8, 5, 0, 0, 0, 0, time.UTC), d.Date())

	bad := DailyAttendance{DateTime: "garbage", Present: "Absent"}
	assert.False(t, bad.IsPresent())
	assert.True(t, bad.Date().IsZero())
}

func TestErrors(t *testing.T) {
	wrapped := errors.Wrap(ErrNoAttendance, "fetching attendance")
	assert.True(t, IsNoData(wrapped))
	assert.False(t, IsUnavailable(wrapped))

	lErr := errors.Wrap(&LoginError{Err: ErrServiceUnavailable}, "logging in")
	assert.True(t, IsLoginError(lErr))
	assert.True(t, IsUnavailable(lErr))
	assert.False(t, IsNetwork(lErr))

	assert.True(t, IsNetwork(&LoginError{Err: ErrNetwork}))
	assert.False(t, IsNoData(&APIError{Status: 500, Message: "boom"}))
}

func TestAttendanceMeta_Latest(t *testing.T) {
	var meta AttendanceMeta
	_, ok := meta.LatestSemester()
	assert.False(t, ok)

	meta.Semesters = []Semester{{RegistrationID: "R2", RegistrationCode: "2024ODD"}, {RegistrationID: "R1"}}
	sem, ok := meta.LatestSemester()
	assert.True(t, ok)
	assert.Equal(t, "2024ODD", sem.RegistrationCode)

	found, ok := FindSemester(meta.Semesters, "R1")
	assert.True(t, ok)
	assert.Equal(t, "R1", found.RegistrationID)
	_, ok = FindSemester(meta.Semesters, "nope")
	assert.False(t, ok)
}
