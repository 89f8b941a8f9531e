package echoapi_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medatlas/medatlas/core/place"
	"github.com/medatlas/medatlas/core/review"
	"github.com/medatlas/medatlas/core/user"
)

func postReview(t *testing.T, app *testApp, token, placeID string, rating int) review.Review {
	t.Helper()
	body := marchallObj(t, review.NewReview{Rating: rating, Title: "My take", Content: "Supportive faculty and a great match list."})
	req, rec := newAuthRequest(http.MethodPost, "/places/"+placeID+"/reviews", token, body)
	app.serve(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var r review.Review
	decodeData(t, rec, &r)
	return r
}

func getPlace(t *testing.T, app *testApp, id string) place.Place {
	t.Helper()
	req, rec := newRequest(http.MethodGet, "/places/"+id)
	app.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var p place.Place
	decodeData(t, rec, &p)
	return p
}

func Test_reviewApi_create(t *testing.T) {
	app := setup(t)
	jane := app.createUser(t, "Jane Doe", "jane", "jane@medatlas.test", nil, user.Stats{})
	hopkins := app.createPlace(t, "Johns Hopkins", "MD", metrics(521, 3.94, 6))
	token := app.getToken(t, jane)
	path := "/places/" + hopkins.ID + "/reviews"

	runHTTPTests(t, app, []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: path,
			body:     marchallObj(t, review.NewReview{Rating: 5, Content: "Loved every minute of it."}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{name: "rating too high", method: http.MethodPost, path: path, token: token, body: []byte(`{"rating": 6, "content": "Loved every minute of it."}`), wantCode: http.StatusBadRequest},
		{name: "rating too low", method: http.MethodPost, path: path, token: token, body: []byte(`{"rating": 0, "content": "Loved every minute of it."}`), wantCode: http.StatusBadRequest},
		{name: "content too short", method: http.MethodPost, path: path, token: token, body: []byte(`{"rating": 4, "content": "meh"}`), wantCode: http.StatusBadRequest},
	})

	r := postReview(t, app, token, hopkins.ID, 4)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "Jane Doe", r.AuthorName)
	assert.Equal(t, hopkins.ID, r.PlaceID)

	req, rec := newAuthRequest(http.MethodPost, path, token, marchallObj(t, review.NewReview{Rating: 1, Content: "Changed my mind entirely."}))
	app.serve(req, rec)
	checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "you have already reviewed this school"})}, rec)

	p := getPlace(t, app, hopkins.ID)
	assert.Equal(t, 1, p.ReviewCount)
	assert.Equal(t, 4.0, p.RatingAvg)
}

func Test_reviewApi_query(t *testing.T) {
	app := setup(t) // preview limit: 2
	hopkins := app.createPlace(t, "Johns Hopkins", "MD", metrics(521, 3.94, 6))
	for i, rating := range []int{5, 4, 3} {
		usr := app.createUser(t, "Reviewer", fmt.Sprintf("reviewer%d", i), "", nil, user.Stats{})
		postReview(t, app, app.getToken(t, usr), hopkins.ID, rating)
	}
	premium := app.createUser(t, "Premium", "premium", "premium@medatlas.test", nil, user.Stats{})
	premium.IsPremium = true
	_, err := app.usrRepo.UpdateUser(ctxb(), premium)
	require.NoError(t, err)
	basic := app.createUser(t, "Basic", "basic", "basic@medatlas.test", nil, user.Stats{})

	path := "/places/" + hopkins.ID + "/reviews"
	tests := []struct {
		name       string
		token      string
		wantCount  int
		wantLocked bool
	}{
		{name: "anonymous", wantCount: 2, wantLocked: true},
		{name: "basic", token: app.getToken(t, basic), wantCount: 2, wantLocked: true},
		{name: "premium", token: app.getToken(t, premium), wantCount: 3, wantLocked: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, path, tt.token)
			app.serve(req, rec)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var page review.Page
			decodeData(t, rec, &page)
			assert.Len(t, page.Reviews, tt.wantCount)
			assert.Equal(t, 3, page.Total)
			assert.Equal(t, tt.wantLocked, page.Locked)
		})
	}

	p := getPlace(t, app, hopkins.ID)
	assert.Equal(t, 3, p.ReviewCount)
	assert.Equal(t, 4.0, p.RatingAvg)

	runHTTPTests(t, app, []httpTest{
		{
			name: "invalid token", path: path, token: "not.a.token",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name: "unknown school", path: "/places/lol/reviews",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "school not found"}),
		},
	})
}

func Test_reviewApi_destroy(t *testing.T) {
	app := setup(t)
	hopkins := app.createPlace(t, "Johns Hopkins", "MD", metrics(521, 3.94, 6))
	author := app.createUser(t, "Author", "author", "author@medatlas.test", nil, user.Stats{})
	other := app.createUser(t, "Other", "other", "other@medatlas.test", nil, user.Stats{})
	moderator := app.createUser(t, "Mod", "moderator", "mod@medatlas.test", []string{user.RoleModerator}, user.Stats{})

	mine := postReview(t, app, app.getToken(t, author), hopkins.ID, 2)
	theirs := postReview(t, app, app.getToken(t, other), hopkins.ID, 4)
	notFound := marchallObj(t, httpErr{Error: "review not found"})

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", method: http.MethodDelete, path: "/reviews/" + mine.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "not the author", method: http.MethodDelete, path: "/reviews/" + mine.ID, token: app.getToken(t, other), wantCode: http.StatusNotFound, wantData: notFound},
		{name: "author", method: http.MethodDelete, path: "/reviews/" + mine.ID, token: app.getToken(t, author), wantCode: http.StatusOK},
		{name: "already removed", method: http.MethodDelete, path: "/reviews/" + mine.ID, token: app.getToken(t, author), wantCode: http.StatusNotFound, wantData: notFound},
	})

	p := getPlace(t, app, hopkins.ID)
	assert.Equal(t, 1, p.ReviewCount)
	assert.Equal(t, 4.0, p.RatingAvg)

	req, rec := newAuthRequest(http.MethodDelete, "/reviews/"+theirs.ID, app.getToken(t, moderator))
	app.serve(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	p = getPlace(t, app, hopkins.ID)
	assert.Equal(t, 0, p.ReviewCount)
	assert.Equal(t, 0.0, p.RatingAvg)
}
