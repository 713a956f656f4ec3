package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasahq/darasa/core/schedule"
)

const monday = "2024-05-06"

func Test_scheduleFlow(t *testing.T) {
	app := setup(t)
	token := app.getToken(t, RolePrincipal)

	app.createClass(t, "6A", "Class 6-A")
	app.createTeacher(t, "T1", "Asha Mwangi", "Mathematics")
	app.createTeacher(t, "T2", "Baraka Odhiambo", "English")

	// base cell lands in the weekly grid
	req, rec := newAuthRequest(http.MethodPut, "/v1/schedule/base", token, marchallObj(t, schedule.SaveBaseRequest{
		Day:     schedule.Monday,
		ClassID: "6A",
		Period:  0,
		Entry:   &schedule.BaseEntry{TeacherID: "T1", Subject: "Mathematics"},
	}))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodGet, "/v1/schedule/base?day=Monday", token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var base map[string]schedule.BaseEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &base))
	assert.Equal(t, "T1", base["6A_0"].TeacherID)

	// an override replaces the base cell for its date only
	req, rec = newAuthRequest(http.MethodPut, "/v1/schedule/overrides", token, marchallObj(t, schedule.SaveOverrideRequest{
		Date:    monday,
		ClassID: "6A",
		Period:  0,
		Override: &schedule.Override{
			Kind:              schedule.KindSubstitution,
			OriginalTeacherID: "T1",
			Substitution:      &schedule.Substitution{TeacherID: "T2"},
		},
	}))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodGet, "/v1/schedule/effective?date="+monday, token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var effective map[string]schedule.EffectiveEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &effective))
	got := effective["6A_0"]
	assert.True(t, got.IsOverride)
	assert.Equal(t, "T2", got.TeacherID)
	assert.Equal(t, "Mathematics", got.Subject) // filled from base

	// next Monday is untouched
	req, rec = newAuthRequest(http.MethodGet, "/v1/schedule/effective?date=2024-05-13", token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	effective = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &effective))
	assert.False(t, effective["6A_0"].IsOverride)
	assert.Equal(t, "T1", effective["6A_0"].TeacherID)
}

func Test_scheduleValidation(t *testing.T) {
	app := setup(t)
	token := app.getToken(t, RolePrincipal)

	tests := []httpTest{
		{name: "effective requires date", method: http.MethodGet, path: "/v1/schedule/effective", wantCode: http.StatusBadRequest},
		{name: "effective rejects malformed date", method: http.MethodGet, path: "/v1/schedule/effective?date=06-05-2024", wantCode: http.StatusBadRequest},
		{name: "base rejects unknown day", method: http.MethodGet, path: "/v1/schedule/base?day=Sunday", wantCode: http.StatusBadRequest},
		{
			name:   "base rejects lunch period",
			method: http.MethodPut, path: "/v1/schedule/base",
			body: marchallObj(t, schedule.SaveBaseRequest{
				Day: schedule.Monday, ClassID: "6A", Period: schedule.LunchPeriod,
				Entry: &schedule.BaseEntry{TeacherID: "T1", Subject: "Math"},
			}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:   "override rejects Sunday date",
			method: http.MethodPut, path: "/v1/schedule/overrides",
			body: marchallObj(t, schedule.SaveOverrideRequest{
				Date: "2024-05-05", ClassID: "6A", Period: 0,
				Override: &schedule.Override{Kind: schedule.KindVacant, Vacant: &schedule.Vacancy{}},
			}),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_classCascadeDelete(t *testing.T) {
	app := setup(t)
	token := app.getToken(t, RolePrincipal)

	app.createClass(t, "6A", "Class 6-A")
	app.createTeacher(t, "T1", "Asha Mwangi", "Mathematics")

	req, rec := newAuthRequest(http.MethodPut, "/v1/schedule/base", token, marchallObj(t, schedule.SaveBaseRequest{
		Day: schedule.Monday, ClassID: "6A", Period: 0,
		Entry: &schedule.BaseEntry{TeacherID: "T1", Subject: "Mathematics"},
	}))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newAuthRequest(http.MethodDelete, "/v1/classes/6A", token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/schedule/effective?date="+monday, token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var effective map[string]schedule.EffectiveEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &effective))
	assert.Empty(t, effective)

	// unknown class 404s
	req, rec = newAuthRequest(http.MethodGet, "/v1/classes/6A", token)
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_suggest(t *testing.T) {
	app := setup(t)
	token := app.getToken(t, RolePrincipal)

	app.createClass(t, "6A", "Class 6-A")
	app.createClass(t, "7B", "Class 7-B")
	app.createTeacher(t, "T1", "Asha Mwangi", "Mathematics")
	app.createTeacher(t, "T2", "Baraka Odhiambo", "English")

	req, rec := newAuthRequest(http.MethodPost, "/v1/schedule/suggest", token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var proposed []schedule.ProposedEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &proposed))
	require.NotEmpty(t, proposed)

	// no teacher is proposed twice for the same (day, period)
	seen := make(map[string]bool)
	for _, p := range proposed {
		assert.NotEqual(t, schedule.LunchPeriod, p.Period)
		key := string(p.Day) + schedule.SlotKey(p.Entry.TeacherID, p.Period)
		assert.False(t, seen[key], "teacher %s proposed twice for %s period %d", p.Entry.TeacherID, p.Day, p.Period)
		seen[key] = true
	}

	// nothing was persisted
	req, rec = newAuthRequest(http.MethodGet, "/v1/schedule/base?day=Monday", token)
	app.server.ServeHTTP(rec, req)
	var base map[string]schedule.BaseEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &base))
	assert.Empty(t, base)
}
