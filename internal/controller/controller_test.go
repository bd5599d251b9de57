package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"learn_with_me_client/internal/api"
	"learn_with_me_client/internal/model"
	"learn_with_me_client/internal/service"
	"learn_with_me_client/internal/store"
	"learn_with_me_client/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) util.Response {
	t.Helper()
	var resp util.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRespondError_StatusMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", api.NewValidationError("op", "course ID is required"), http.StatusBadRequest, "course ID is required"},
		{"rejected", &api.Error{Kind: api.KindRequestRejected, Status: 400}, http.StatusBadRequest, util.MsgInvalidRequest},
		{"unauthorized", &api.Error{Kind: api.KindUnauthorized}, http.StatusUnauthorized, "fallback"},
		{"not found with server text", &api.Error{Kind: api.KindNotFound, Message: "course not found", FromServer: true}, http.StatusNotFound, "course not found"},
		{"conflict", &api.Error{Kind: api.KindConflict}, http.StatusConflict, "fallback"},
		{"transport", &api.Error{Kind: api.KindTransport}, http.StatusServiceUnavailable, util.MsgNetworkIssue},
		{"server", &api.Error{Kind: api.KindServer, Message: "boom", FromServer: true}, http.StatusBadGateway, "boom"},
		{"unknown kind", &api.Error{Kind: api.KindUnknown}, http.StatusInternalServerError, "fallback"},
		{"plain error", errors.New("db down"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(rec)
			respondError(ctx, tc.err, "fallback")

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.message, decode(t, rec).Message)
		})
	}
}

func TestRespondError_FieldErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	respondError(ctx, util.ValidationErrors{"email": "Email is required"}, "fallback")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "validation failed", resp.Message)
	assert.Equal(t, map[string]interface{}{"email": "Email is required"}, resp.Data)
}

// enrolledAPI 服务端已有报名记录
type enrolledAPI struct {
	creates int
}

func (a *enrolledAPI) IsEnrolled(ctx context.Context, courseID string) (bool, error) {
	return true, nil
}

func (a *enrolledAPI) CreateEnrollment(ctx context.Context, courseID, userID string) (*model.CourseProgress, error) {
	a.creates++
	return nil, &api.Error{Kind: api.KindConflict}
}

func (a *enrolledAPI) GetCourseProgress(ctx context.Context, courseID string) (*model.CourseProgress, error) {
	return &model.CourseProgress{ID: "p1", UserID: "u1", CourseID: courseID}, nil
}

func (a *enrolledAPI) UpdateVideoProgress(ctx context.Context, input api.VideoProgressInput) (*model.VideoProgress, error) {
	return nil, &api.Error{Kind: api.KindTransport}
}

func (a *enrolledAPI) MarkCourseCompleted(ctx context.Context, courseID string) (*model.CourseProgress, error) {
	return nil, &api.Error{Kind: api.KindServer, Message: "course has unfinished videos", FromServer: true}
}

type fixedUser string

func (u fixedUser) CurrentUserID() (string, error) { return string(u), nil }

func newProgressRouter(progressAPI service.ProgressAPI) *gin.Engine {
	svc := service.NewProgressService(progressAPI, store.NewCourseStore(), fixedUser("u1"), 0.9)
	c := NewProgressController(svc)

	r := gin.New()
	r.POST("/courses/:id/enroll", c.Enroll)
	r.POST("/courses/:id/complete", c.CompleteCourse)
	r.PUT("/courses/:id/videos/:videoId/progress", c.UpdateVideoProgress)
	return r
}

func TestProgressController_EnrollWhenAlreadyEnrolled(t *testing.T) {
	fake := &enrolledAPI{}
	r := newProgressRouter(fake)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/courses/c1/enroll", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec).Data.(map[string]interface{})
	assert.Equal(t, true, data["alreadyEnrolled"])
	assert.Equal(t, "c1", data["courseId"])
	assert.Equal(t, "u1", data["userId"])
	assert.Zero(t, fake.creates)
}

func TestProgressController_ErrorResponses(t *testing.T) {
	r := newProgressRouter(&enrolledAPI{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/courses/c1/complete", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "course has unfinished videos", decode(t, rec).Message)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/courses/c1/videos/v1/progress", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing body")
}
