package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"learn_with_me_client/internal/controller"
	"learn_with_me_client/internal/model"
	"learn_with_me_client/internal/service"
	"learn_with_me_client/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouteTestEngine(session *store.SessionStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	s := &services{
		sessionStore: session,
		auth:         service.NewAuthService(nil, session, nil),
	}
	c := &controllers{media: controller.NewMediaController(nil)}
	(&App{}).registerRoutes(r, c, s)
	return r
}

func TestMediaProbe_RequiresSession(t *testing.T) {
	session := store.NewSessionStore()
	r := newRouteTestEngine(session)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/media/probe?url=http://169.254.169.254/latest", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": "u1"}).SignedString([]byte("k"))
	require.NoError(t, err)
	session.Set("ann@example.com", model.AuthTokens{AccessToken: token}, nil)

	// 登录后进入处理函数，缺少 url 参数返回 400
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/media/probe", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
