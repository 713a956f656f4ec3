package echoapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasahq/darasa/core/schedule"
	"github.com/darasahq/darasa/core/staff"
)

// seedLeaveDay gives T1 two Monday periods in 6A and marks them absent.
func seedLeaveDay(t *testing.T, app *testApp, token string) {
	t.Helper()

	app.createClass(t, "6A", "Class 6-A")
	app.createClass(t, "7B", "Class 7-B")
	app.createTeacher(t, "T1", "Asha Mwangi", "Mathematics")
	app.createTeacher(t, "T2", "Baraka Odhiambo", "English")

	for _, period := range []int{0, 4} {
		req, rec := newAuthRequest(http.MethodPut, "/v1/schedule/base", token, marchallObj(t, schedule.SaveBaseRequest{
			Day: schedule.Monday, ClassID: "6A", Period: period,
			Entry: &schedule.BaseEntry{TeacherID: "T1", Subject: "Mathematics"},
		}))
		app.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	}

	req, rec := newAuthRequest(http.MethodPost, "/v1/attendance", token, marchallObj(t, staff.AttendanceEntry{
		Date: monday, TeacherID: "T1", Status: staff.StatusAbsent,
	}))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
}

func Test_substitutionFlow(t *testing.T) {
	app := setup(t)
	token := app.getToken(t, RolePrincipal)
	seedLeaveDay(t, app, token)

	// start identifies both pending periods
	req, rec := newAuthRequest(http.MethodPost, "/v1/substitutions", token, marchallObj(t, StartSubstitutionRequest{
		Date: monday, TeacherID: "T1",
	}))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var flow workflowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flow))
	assert.Equal(t, schedule.StatePeriodsIdentified, flow.State)
	assert.Len(t, flow.Pending, 2)

	// proposals exclude the absent teacher
	req, rec = newAuthRequest(http.MethodGet, "/v1/substitutions/proposals?date="+monday+"&teacher_id=T1", token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var proposals []schedule.Proposal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &proposals))
	require.Len(t, proposals, 2)
	for _, p := range proposals {
		for _, c := range p.Candidates {
			assert.NotEqual(t, "T1", c.ID)
		}
	}

	// substitute covers period 0
	req, rec = newAuthRequest(http.MethodPost, "/v1/substitutions/apply", token, marchallObj(t, ApplyActionRequest{
		Date: monday, TeacherID: "T1", ClassID: "6A", Period: 0,
		Action: "substitute", SubTeacherID: "T2",
	}))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flow))
	assert.Equal(t, schedule.StateActionApplied, flow.State)
	assert.Len(t, flow.Pending, 1)

	// period 4 left vacant resolves the workflow
	req, rec = newAuthRequest(http.MethodPost, "/v1/substitutions/apply", token, marchallObj(t, ApplyActionRequest{
		Date: monday, TeacherID: "T1", ClassID: "6A", Period: 4,
		Action: "vacant", Note: "self study",
	}))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flow))
	assert.Equal(t, schedule.StateResolved, flow.State)
	assert.Empty(t, flow.Pending)

	// both overrides landed in the effective schedule
	req, rec = newAuthRequest(http.MethodGet, "/v1/schedule/effective?date="+monday, token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var effective map[string]schedule.EffectiveEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &effective))
	assert.Equal(t, "T2", effective["6A_0"].TeacherID)
	assert.Equal(t, schedule.KindSubstitution, effective["6A_0"].Kind)
	assert.Equal(t, schedule.KindVacant, effective["6A_4"].Kind)
	assert.Equal(t, "self study", effective["6A_4"].Note)
}

func Test_substitutionStartRequiresLeave(t *testing.T) {
	app := setup(t)
	token := app.getToken(t, RolePrincipal)

	app.createTeacher(t, "T1", "Asha Mwangi", "Mathematics")

	req, rec := newAuthRequest(http.MethodPost, "/v1/substitutions", token, marchallObj(t, StartSubstitutionRequest{
		Date: monday, TeacherID: "T1",
	}))
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func Test_substitutionDismiss(t *testing.T) {
	app := setup(t)
	token := app.getToken(t, RolePrincipal)
	seedLeaveDay(t, app, token)

	req, rec := newAuthRequest(http.MethodPost, "/v1/substitutions", token, marchallObj(t, StartSubstitutionRequest{
		Date: monday, TeacherID: "T1",
	}))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/substitutions/dismiss", token, marchallObj(t, DismissSubstitutionRequest{
		Date: monday, TeacherID: "T1",
	}))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var flow workflowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &flow))
	assert.Equal(t, schedule.StateResolved, flow.State)

	// dismissed workflows are gone from the registry
	req, rec = newAuthRequest(http.MethodGet, "/v1/substitutions?date="+monday+"&teacher_id=T1", token)
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// the untouched periods kept their base entries
	req, rec = newAuthRequest(http.MethodGet, "/v1/schedule/effective?date="+monday, token)
	app.server.ServeHTTP(rec, req)
	var effective map[string]schedule.EffectiveEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &effective))
	assert.False(t, effective["6A_0"].IsOverride)
}

func Test_attendanceRoundTrip(t *testing.T) {
	app := setup(t)
	token := app.getToken(t, RoleStaff) // attendance is open to staff

	app.createTeacher(t, "T1", "Asha Mwangi", "Mathematics")

	mark := func(status staff.AttendanceStatus) *httptest.ResponseRecorder {
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance", token, marchallObj(t, staff.AttendanceEntry{
			Date: monday, TeacherID: "T1", Status: status,
		}))
		app.server.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusNoContent, mark(staff.StatusHalfDayBefore).Code)

	req, rec := newAuthRequest(http.MethodGet, "/v1/attendance?date="+monday, token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var marks map[string]staff.AttendanceStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &marks))
	assert.Equal(t, staff.StatusHalfDayBefore, marks["T1"])

	// present clears the record
	require.Equal(t, http.StatusNoContent, mark(staff.StatusPresent).Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/attendance?date="+monday, token)
	app.server.ServeHTTP(rec, req)
	marks = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &marks))
	assert.Empty(t, marks)
}
