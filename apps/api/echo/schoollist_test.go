package echoapi_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medatlas/medatlas/core/place"
	"github.com/medatlas/medatlas/core/schoollist"
	"github.com/medatlas/medatlas/core/user"
)

func addEntry(t *testing.T, app *testApp, token, placeID string, cat schoollist.Category) schoollist.CreatedEntry {
	t.Helper()
	body := marchallObj(t, schoollist.NewEntry{PlaceID: placeID, Category: cat})
	req, rec := newAuthRequest(http.MethodPost, "/user/school-list", token, body)
	app.serve(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created schoollist.CreatedEntry
	decodeData(t, rec, &created)
	return created
}

func Test_schoolListApi_create(t *testing.T) {
	app := setup(t)
	student := app.createUser(t, "Jane", "jane", "jane@medatlas.test", nil, stats(515, 3.8))
	average := app.createUser(t, "Avery", "avery", "avery@medatlas.test", nil, stats(510, 3.7))
	struggling := app.createUser(t, "Sam", "sam", "sam@medatlas.test", nil, stats(472, 2.0))
	noStats := app.createUser(t, "Noa", "noa", "noa@medatlas.test", nil, user.Stats{})

	hopkins := app.createPlace(t, "Johns Hopkins", "MD", metrics(510, 3.7, 8))
	state := app.createPlace(t, "State U", "OH", metrics(510, 3.7, 20))
	blank := app.createPlace(t, "No Metrics", "TX", place.Metrics{})

	tests := []struct {
		name     string
		usr      user.User
		placeID  string
		wantOdds int
	}{
		{name: "above average", usr: student, placeID: hopkins.ID, wantOdds: 14},
		{name: "equal to averages", usr: average, placeID: state.ID, wantOdds: 20},
		{name: "clamped to min", usr: struggling, placeID: hopkins.ID, wantOdds: schoollist.MinOdds},
		{name: "no stats", usr: noStats, placeID: hopkins.ID, wantOdds: 0},
		{name: "default metrics", usr: average, placeID: blank.ID, wantOdds: 26},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := addEntry(t, app, app.getToken(t, tt.usr), tt.placeID, schoollist.CategoryTarget)
			assert.NotEmpty(t, created.ID)
			assert.Equal(t, tt.wantOdds, created.AcceptanceOdds)

			entry, err := app.entryRepo.GetEntry(ctxb(), tt.usr.ID, created.ID)
			require.NoError(t, err)
			assert.Equal(t, schoollist.StatusPlanning, entry.ApplicationStatus)
			assert.Equal(t, tt.wantOdds, entry.AcceptanceOdds)
		})
	}

	token := app.getToken(t, student)
	runHTTPTests(t, app, []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: "/user/school-list",
			body:     marchallObj(t, schoollist.NewEntry{PlaceID: hopkins.ID, Category: schoollist.CategoryReach}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "already in list", method: http.MethodPost, path: "/user/school-list", token: token,
			body:     marchallObj(t, schoollist.NewEntry{PlaceID: hopkins.ID, Category: schoollist.CategoryReach}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "school is already in your list"}),
		},
		{
			name: "unknown school", method: http.MethodPost, path: "/user/school-list", token: token,
			body:     marchallObj(t, schoollist.NewEntry{PlaceID: uuid.New().String(), Category: schoollist.CategoryReach}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "school not found"}),
		},
	})

	for _, body := range []string{
		`{"place_id": "not-a-uuid", "category": "reach"}`,
		fmt.Sprintf(`{"place_id": %q, "category": "dream"}`, state.ID),
		`{}`,
	} {
		req, rec := newAuthRequest(http.MethodPost, "/user/school-list", token, []byte(body))
		app.serve(req, rec)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)

		var res httpErr
		decodeJSON(t, rec, &res)
		assert.Equal(t, "invalid input", res.Error)
		assert.NotEmpty(t, res.Fields)
	}
}

func Test_schoolListApi_query(t *testing.T) {
	app := setup(t)
	jane := app.createUser(t, "Jane", "jane", "jane@medatlas.test", nil, stats(515, 3.8))
	other := app.createUser(t, "Other", "other", "other@medatlas.test", nil, stats(515, 3.8))
	hopkins := app.createPlace(t, "Johns Hopkins", "MD", metrics(510, 3.7, 8))
	state := app.createPlace(t, "State U", "OH", metrics(510, 3.7, 20))

	token := app.getToken(t, jane)
	addEntry(t, app, token, hopkins.ID, schoollist.CategoryReach)
	addEntry(t, app, app.getToken(t, other), state.ID, schoollist.CategorySafety)

	req, rec := newAuthRequest(http.MethodGet, "/user/school-list", token)
	app.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var entries []schoollist.EntryDetail
	decodeData(t, rec, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, hopkins.ID, entries[0].PlaceID)
	assert.Equal(t, "Johns Hopkins", entries[0].PlaceName)
	assert.Equal(t, "MD", entries[0].PlaceState)
	assert.Equal(t, schoollist.CategoryReach, entries[0].Category)
}

func Test_schoolListApi_update(t *testing.T) {
	app := setup(t)
	jane := app.createUser(t, "Jane", "jane", "jane@medatlas.test", nil, stats(515, 3.8))
	other := app.createUser(t, "Other", "other", "other@medatlas.test", nil, user.Stats{})
	hopkins := app.createPlace(t, "Johns Hopkins", "MD", metrics(510, 3.7, 8))

	token := app.getToken(t, jane)
	created := addEntry(t, app, token, hopkins.ID, schoollist.CategoryReach)
	require.Equal(t, 14, created.AcceptanceOdds)

	// new stats must not change the stored odds on update
	req, rec := newAuthRequest(http.MethodPut, "/user/stats", token, []byte(`{"mcat": 528, "gpa": 4.0}`))
	app.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	update := func(body string) []byte { return []byte(fmt.Sprintf(body, created.ID)) }

	req, rec = newAuthRequest(http.MethodPut, "/user/school-list", token,
		update(`{"id": %q, "application_status": "interview_invite", "notes": "Interview on Oct 3", "category": "target"}`))
	app.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var entry schoollist.Entry
	decodeData(t, rec, &entry)
	assert.Equal(t, schoollist.StatusInterviewInvite, entry.ApplicationStatus)
	assert.Equal(t, "Interview on Oct 3", entry.Notes)
	assert.Equal(t, schoollist.CategoryTarget, entry.Category)
	assert.Equal(t, 14, entry.AcceptanceOdds)

	// any status may follow any other
	req, rec = newAuthRequest(http.MethodPut, "/user/school-list", token, update(`{"id": %q, "application_status": "planning"}`))
	app.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, &entry)
	assert.Equal(t, schoollist.StatusPlanning, entry.ApplicationStatus)
	assert.Equal(t, "Interview on Oct 3", entry.Notes, "omitted fields are kept")

	// values are normalised like on creation
	req, rec = newAuthRequest(http.MethodPut, "/user/school-list", token, update(`{"id": %q, "application_status": " Accepted ", "category": "Reach"}`))
	app.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, &entry)
	assert.Equal(t, schoollist.StatusAccepted, entry.ApplicationStatus)
	assert.Equal(t, schoollist.CategoryReach, entry.Category)

	runHTTPTests(t, app, []httpTest{
		{
			name: "unknown status", method: http.MethodPut, path: "/user/school-list", token: token,
			body: update(`{"id": %q, "application_status": "matched"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "missing id", method: http.MethodPut, path: "/user/school-list", token: token,
			body: []byte(`{"notes": "lost"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "not the owner", method: http.MethodPut, path: "/user/school-list", token: app.getToken(t, other),
			body:     update(`{"id": %q, "notes": "mine now"}`),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "school list entry not found"}),
		},
	})
}

func Test_schoolListApi_refreshOdds(t *testing.T) {
	app := setup(t)
	jane := app.createUser(t, "Jane", "jane", "jane@medatlas.test", nil, user.Stats{})
	hopkins := app.createPlace(t, "Johns Hopkins", "MD", metrics(510, 3.7, 8))
	state := app.createPlace(t, "State U", "OH", metrics(510, 3.7, 20))

	token := app.getToken(t, jane)
	assert.Equal(t, 0, addEntry(t, app, token, hopkins.ID, schoollist.CategoryReach).AcceptanceOdds)
	assert.Equal(t, 0, addEntry(t, app, token, state.ID, schoollist.CategoryTarget).AcceptanceOdds)

	req, rec := newAuthRequest(http.MethodPut, "/user/stats", token, []byte(`{"mcat": 510, "gpa": 3.7}`))
	app.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodPost, "/user/school-list/refresh-odds", token)
	app.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var entries []schoollist.EntryDetail
	decodeData(t, rec, &entries)
	odds := make(map[string]int, len(entries))
	for _, e := range entries {
		odds[e.PlaceID] = e.AcceptanceOdds
	}
	assert.Equal(t, map[string]int{hopkins.ID: 8, state.ID: 20}, odds)

	// persisted
	req, rec = newAuthRequest(http.MethodGet, "/user/school-list", token)
	app.serve(req, rec)
	decodeData(t, rec, &entries)
	for _, e := range entries {
		assert.Equal(t, odds[e.PlaceID], e.AcceptanceOdds)
	}
}

func Test_schoolListApi_destroy(t *testing.T) {
	app := setup(t)
	jane := app.createUser(t, "Jane", "jane", "jane@medatlas.test", nil, user.Stats{})
	other := app.createUser(t, "Other", "other", "other@medatlas.test", nil, user.Stats{})
	hopkins := app.createPlace(t, "Johns Hopkins", "MD", metrics(510, 3.7, 8))

	token := app.getToken(t, jane)
	created := addEntry(t, app, token, hopkins.ID, schoollist.CategoryReach)
	path := "/user/school-list?id=" + created.ID
	notFound := marchallObj(t, httpErr{Error: "school list entry not found"})

	runHTTPTests(t, app, []httpTest{
		{name: "missing id", method: http.MethodDelete, path: "/user/school-list", token: token, wantCode: http.StatusBadRequest},
		{name: "not the owner", method: http.MethodDelete, path: path, token: app.getToken(t, other), wantCode: http.StatusNotFound, wantData: notFound},
		{name: "success", method: http.MethodDelete, path: path, token: token, wantCode: http.StatusOK, wantData: []byte(`{"success": true}`)},
		{name: "already removed", method: http.MethodDelete, path: path, token: token, wantCode: http.StatusNotFound, wantData: notFound},
	})

	// the school can be added again
	addEntry(t, app, token, hopkins.ID, schoollist.CategorySafety)
}
