package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hogandenver05/Norse-Interview/core/course"
	"github.com/hogandenver05/Norse-Interview/core/user"
	"github.com/hogandenver05/Norse-Interview/testutil"
)

func Test_courseApi_read(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Ragnar", "ragnar@nku.edu", "", false)
	token := getToken(t, app.auth, usr)

	now := time.Now()
	runes := testutil.CreateCourse(t, app.courseRepo, "Runes", now.Add(-2*time.Hour))
	sagas := testutil.CreateCourse(t, app.courseRepo, "Sagas", now.Add(-time.Hour))
	raids := testutil.CreateCourse(t, app.courseRepo, "Raids", now)

	runHTTPTests(t, app, []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/api/courses", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Get all", method: http.MethodGet, path: "/api/courses", token: token,
			wantCode: http.StatusOK, wantData: marchallList(t, raids, sagas, runes),
		},
		{
			name: "order by title", method: http.MethodGet, path: "/api/courses?ordering=title", token: token,
			wantCode: http.StatusOK, wantData: marchallList(t, raids, runes, sagas),
		},
		{
			name: "order by -title", method: http.MethodGet, path: "/api/courses?ordering=-title", token: token,
			wantCode: http.StatusOK, wantData: marchallList(t, sagas, runes, raids),
		},
		{
			name: "unknown ordering", method: http.MethodGet, path: "/api/courses?ordering=answer", token: token,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"ordering": `cannot order by "answer"`}),
		},
		{
			name: "search", method: http.MethodGet, path: "/api/courses?search=SAGA", token: token,
			wantCode: http.StatusOK, wantData: marchallList(t, sagas),
		},
		{
			name: "search (unknown)", method: http.MethodGet, path: "/api/courses?search=valhalla", token: token,
			wantCode: http.StatusOK, wantData: marchallList(t),
		},
		{
			name: "retrieve", method: http.MethodGet, path: "/api/courses/" + runes.ID, token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, runes),
		},
		{
			name: "retrieve (trailing slash)", method: http.MethodGet, path: "/api/courses/" + runes.ID + "/", token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, runes),
		},
		{
			name: "retrieve (unknown)", method: http.MethodGet, path: "/api/courses/unknown", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errCourseUnknown),
		},
	})
}

func Test_courseApi_write(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.usrRepo, "Odin", "odin@nku.edu", "", true)
	usr := testutil.CreateUser(t, app.usrRepo, "Ragnar", "ragnar@nku.edu", "", false)
	adminToken := getToken(t, app.auth, admin)
	usrToken := getToken(t, app.auth, usr)

	invalid := testutil.NewCourse("Runes")
	invalid.Quizzes[0].Answer = "maybe"
	invalid.Topics = invalid.Topics[:3]

	runes := testutil.CreateCourse(t, app.courseRepo, "Runes")

	runHTTPTests(t, app, []httpTest{
		{
			name: "create: Admin required", method: http.MethodPost, path: "/api/courses", token: usrToken,
			body: marchallObj(t, testutil.NewCourse("Sagas")), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermission),
		},
		{
			name: "create: invalid", method: http.MethodPost, path: "/api/courses", token: adminToken,
			body: marchallObj(t, invalid), wantCode: http.StatusBadRequest,
		},
		{
			name: "update: Admin required", method: http.MethodPut, path: "/api/courses/" + runes.ID, token: usrToken,
			body: marchallObj(t, course.UpdateCourse{Title: "Elder Futhark"}), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermission),
		},
		{
			name: "update: unknown", method: http.MethodPut, path: "/api/courses/unknown", token: adminToken,
			body: marchallObj(t, course.UpdateCourse{Title: "Elder Futhark"}), wantCode: http.StatusNotFound, wantData: marchallObj(t, errCourseUnknown),
		},
		{
			name: "update", method: http.MethodPut, path: "/api/courses/" + runes.ID, token: adminToken,
			body: marchallObj(t, course.UpdateCourse{Title: "Elder Futhark"}), wantCode: http.StatusOK,
		},
		{
			name: "delete: Admin required", method: http.MethodDelete, path: "/api/courses/" + runes.ID, token: usrToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermission),
		},
	})

	rec := app.do(http.MethodPost, "/api/courses", adminToken, marchallObj(t, invalid))
	fldErrs := decodeMap(t, rec)
	assert.Contains(t, fldErrs, "topics")
	assert.Equal(t, "answer must be one of the options", fldErrs["answer"])

	updated, err := app.courseRepo.GetCourseByID(context.Background(), runes.ID)
	require.NoError(t, err)
	assert.Equal(t, "Elder Futhark", updated.Title)
	assert.Equal(t, runes.Description, updated.Description)

	// create
	rec = app.do(http.MethodPost, "/api/courses", adminToken, marchallObj(t, testutil.NewCourse("Sagas")))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := decodeMap(t, rec)
	id, _ := data["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "Sagas", data["title"])
	assert.Equal(t, course.DefaultImage, data["image"])
	_, err = app.courseRepo.GetCourseByID(context.Background(), id)
	assert.NoError(t, err)
}

func Test_courseApi_delete(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.usrRepo, "Odin", "odin@nku.edu", "", true)
	adminToken := getToken(t, app.auth, admin)

	runes := testutil.CreateCourse(t, app.courseRepo, "Runes")
	sagas := testutil.CreateCourse(t, app.courseRepo, "Sagas")
	testutil.CreateUser(t, app.usrRepo, "Ragnar", "ragnar@nku.edu", "", false,
		user.Enrollment{CourseID: runes.ID, Completion: 45}, user.Enrollment{CourseID: sagas.ID, Completion: 100})
	testutil.CreateUser(t, app.usrRepo, "Bjorn", "bjorn@nku.edu", "", false, user.Enrollment{CourseID: runes.ID})

	runHTTPTests(t, app, []httpTest{
		{
			name: "delete", method: http.MethodDelete, path: "/api/courses/" + runes.ID, token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, map[string]string{"success": "Course deleted successfully."}),
		},
		{
			name: "delete again", method: http.MethodDelete, path: "/api/courses/" + runes.ID, token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errCourseUnknown),
		},
		{
			name: "retrieve deleted", method: http.MethodGet, path: "/api/courses/" + runes.ID, token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errCourseUnknown),
		},
	})

	// enrollments went with the course
	assert.Equal(t, []user.Enrollment{{CourseID: sagas.ID, Completion: 100}}, app.getUser(t, "ragnar@nku.edu").EnrolledCourses)
	assert.Empty(t, app.getUser(t, "bjorn@nku.edu").EnrolledCourses)
}
